package models

import "time"

// QueueEntry represents a player waiting in the ranked queue.
type QueueEntry struct {
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Rating       int       `json:"rating"`
	InputMode    string    `json:"inputMode"`
	JoinedAt     time.Time `json:"joinedAt"`
}
