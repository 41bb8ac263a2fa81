package model

import "time"

// RatingEvent is a single live review of an item by a rater. The review
// store keeps at most one live event per (RaterID, ItemID) pair; a new
// event for the pair supersedes the prior one in place.
type RatingEvent struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	RaterID   string    `json:"rater_id"`
	Score     int       `json:"score"` // 1..5
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
