package comment

import "time"

type Comment struct {
	ID         int64     `json:"id"`
	LocationID int64     `json:"locationId"`
	UserID     int64     `json:"userId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	UserName   string    `json:"userName,omitempty"`
}

type Input struct {
	Content string `json:"content"`
}
