package domain

import "time"

// Vote is an immutable append-only record. It carries the SHA-256 fingerprint
// of the submitted token rather than the plaintext, which is all the
// duplicate auditor needs for grouping.
type Vote struct {
	ID               string
	CandidateID      string
	SessionID        string
	TokenFingerprint string
	CreatedAt        time.Time
}

// DuplicateTokenGroup is one anomaly found by the integrity auditor: a token
// fingerprint shared by more than one vote record.
type DuplicateTokenGroup struct {
	TokenFingerprint string
	Count            int
	VoteIDs          []string
}
