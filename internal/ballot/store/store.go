package store

import (
	"context"
	"errors"
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports a lost conditional update: the guarded flag had
	// already flipped by the time the write ran. Callers re-read current
	// state to decide what the loss means.
	ErrConflict = errors.New("store: conditional update conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to actively stop people from accidentally doing transactions
// within transactions.
type Store interface {
	Organizations() Organizations
	Sessions() Sessions
	Candidates() Candidates
	Voters() Voters
	Votes() Votes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Organizations interface {
	// CreateOrganization inserts a new organization (id is a ULID minted by
	// the service). Duplicate name or email maps to ErrAlreadyExists.
	CreateOrganization(ctx context.Context, o domain.Organization) error

	// GetOrganizationByID returns an organization by id.
	GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error)

	// GetOrganizationByEmail looks up by lower-cased email.
	GetOrganizationByEmail(ctx context.Context, email string) (domain.Organization, error)

	// ListOrganizations returns all organizations, newest first.
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)

	// ExistsOrganizationConflict reports whether another organization
	// (id != excludeID) already uses the given name or email.
	ExistsOrganizationConflict(ctx context.Context, excludeID, name, email string) (bool, error)

	// UpdateOrganizationProfile mutates name/email/contact and bumps updated_at.
	UpdateOrganizationProfile(ctx context.Context, id, name, email, contactPerson string) error
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// ListSessionsByOrganization returns the org's sessions, newest first.
	ListSessionsByOrganization(ctx context.Context, organizationID string) ([]domain.Session, error)

	// UpdateSessionDetails rewrites the mutable fields and bumps updated_at.
	UpdateSessionDetails(ctx context.Context, id, title, description string,
		votingDate time.Time, startTime, endTime domain.TimeOfDay) error
}

type Candidates interface {
	CreateCandidate(ctx context.Context, c domain.Candidate) error

	GetCandidateByID(ctx context.Context, id string) (domain.Candidate, error)

	ListCandidatesBySession(ctx context.Context, sessionID string) ([]domain.Candidate, error)

	// UpdateCandidateDetails mutates name/position only; the session binding
	// is immutable.
	UpdateCandidateDetails(ctx context.Context, id, fullName, position string) error
}

type Voters interface {
	CreateVoter(ctx context.Context, v domain.Voter) error

	GetVoterByID(ctx context.Context, id string) (domain.Voter, error)

	// GetVoterByCode is used during voter login.
	GetVoterByCode(ctx context.Context, code string) (domain.Voter, error)

	// ExistsVoterEmailInSession compares emails lower-cased.
	ExistsVoterEmailInSession(ctx context.Context, email, sessionID string) (bool, error)

	ListVotersBySession(ctx context.Context, sessionID string) ([]domain.Voter, error)

	// ListPendingVotersBySession returns voters that have not voted yet.
	ListPendingVotersBySession(ctx context.Context, sessionID string) ([]domain.Voter, error)

	// SetVoterTokenHash stores the one-time token hash, guarded by
	// token_generated = 0. A lost guard returns ErrConflict; the hash is
	// never overwritten.
	SetVoterTokenHash(ctx context.Context, voterID, tokenHash string, at time.Time) error

	// MarkVoterVoted flips has_voted, guarded by has_voted = 0.
	// A lost guard returns ErrConflict.
	MarkVoterVoted(ctx context.Context, voterID string) error
}

type Votes interface {
	// CreateVote appends an immutable vote record.
	CreateVote(ctx context.Context, v domain.Vote) error

	CountVotesByCandidate(ctx context.Context, candidateID string) (int, error)

	ListVotesBySession(ctx context.Context, sessionID string) ([]domain.Vote, error)

	// FindDuplicateTokenFingerprints groups the session's votes by token
	// fingerprint and returns every group with more than one record.
	FindDuplicateTokenFingerprints(ctx context.Context, sessionID string) ([]domain.DuplicateTokenGroup, error)
}
