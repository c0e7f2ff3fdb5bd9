package domain

import "time"

// Session is a single-day voting event. The voting window is
// [StartTime, EndTime] on VotingDate, all interpreted in UTC.
// StartTime < EndTime is enforced at creation and update.
type Session struct {
	ID             string
	OrganizationID string
	Title          string
	Description    string
	VotingDate     time.Time // date component only, UTC midnight
	StartTime      TimeOfDay
	EndTime        TimeOfDay
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
