package location

import "time"

// Location is one waypoint in a diary's route. DiaryTitle, UserID and
// DistanceKm are only populated by queries that join or compute them
// (owner listing, public nearby).
type Location struct {
	ID         int64      `json:"id"`
	DiaryID    int64      `json:"diaryId"`
	Name       *string    `json:"name"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Altitude   *float64   `json:"altitude"`
	RecordedAt *time.Time `json:"recordedAt"`
	OrderIndex int        `json:"orderIndex"`
	CreatedAt  time.Time  `json:"createdAt"`
	DiaryTitle string     `json:"diaryTitle,omitempty"`
	UserID     int64      `json:"userId,omitempty"`
	DistanceKm *float64   `json:"distanceKm,omitempty"`
}

// Input is a waypoint specification supplied by the client. Latitude
// and longitude are pointers so missing coordinates can be rejected
// before any statement runs.
type Input struct {
	Name       *string    `json:"name"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	Altitude   *float64   `json:"altitude"`
	RecordedAt *time.Time `json:"recordedAt"`
	OrderIndex *int       `json:"orderIndex"`
}

// NearbyParams bounds the public proximity search.
type NearbyParams struct {
	Latitude             float64
	Longitude            float64
	RadiusKm             float64
	MaxDiaries           int
	MaxLocationsPerDiary int
}
