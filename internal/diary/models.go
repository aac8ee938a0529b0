package diary

import (
	"time"

	"github.com/wasuken/maptabi-new/internal/location"
)

type Diary struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DiaryWithLocations struct {
	Diary
	Locations []location.Location `json:"locations"`
}

type Input struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsPublic bool   `json:"isPublic"`
}

// ReplaceRequest is the body of a full waypoint replacement. Locations
// must be present (an empty array clears the route; a missing or
// non-array value is rejected).
type ReplaceRequest struct {
	Locations []location.Input `json:"locations"`
}
