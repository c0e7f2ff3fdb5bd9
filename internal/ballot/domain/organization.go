package domain

import "time"

// Organization is an account that runs voting sessions. Email is unique and
// compared lower-cased everywhere.
type Organization struct {
	ID            string
	Name          string
	Email         string
	ContactPerson string
	PasswordHash  string
	Role          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
