package domain

import "time"

// Option is a candidate outcome proposed by a room participant.
type Option struct {
	ID            string
	RoomID        string
	Text          string
	SubmittedBy   string
	SubmitterName string // joined from users, not stored on the row
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
