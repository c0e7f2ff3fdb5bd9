package domain

import "time"

// Candidate stands in exactly one session. SessionID is immutable after
// creation; a vote is only valid for candidates in the voter's own session.
type Candidate struct {
	ID        string
	SessionID string
	FullName  string
	Position  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
