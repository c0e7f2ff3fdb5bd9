package domain

import "time"

// Voter lifecycle: created from a roster upload, logs in with Code + access
// PIN, requests exactly one vote token (TokenGenerated flips false→true,
// irreversible), casts exactly one vote (HasVoted flips false→true,
// irreversible).
type Voter struct {
	ID        string
	Code      string // human-readable login code, e.g. "VTR-7F3A9"
	Email     string // unique within a session
	SessionID string

	PinHash string // argon2id of the access PIN

	// TokenHash is the argon2id of the one-time vote token; empty until
	// issued, never overwritten once set.
	TokenHash        string
	TokenGenerated   bool
	TokenGeneratedAt *time.Time

	HasVoted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
