package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/internal/ballot/window"
	"github.com/openballot/ballotd/pkg/idx"
	"github.com/openballot/ballotd/pkg/slogx"
)

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrCandidateNotFound      = errors.New("candidate not found")
	ErrNotSessionOwner        = errors.New("session belongs to a different organization")
	ErrInvalidSession         = errors.New("invalid session details")
	ErrInvalidSessionWindow   = errors.New("start time must be before end time")
	ErrVotingDatePast         = errors.New("voting date cannot be in the past")
	ErrNoCandidates           = errors.New("session needs at least one candidate")
	ErrDuplicateCandidateName = errors.New("duplicate candidate name in session")
	ErrSessionStarted         = errors.New("session can no longer be modified")
)

// CandidateInput is one candidate in a session create request.
type CandidateInput struct {
	FullName string
	Position string
}

// SessionDetail is a session with its candidates' running results and roster.
type SessionDetail struct {
	Session    domain.Session
	Candidates []CandidateTally
	Voters     []domain.Voter
}

// SessionService manages voting sessions and their candidates. All
// organization-facing operations check ownership before touching anything.
type SessionService struct {
	Store store.Store
	Clock clock
}

// Create registers a session together with its candidates in one transaction.
func (s *SessionService) Create(
	ctx context.Context,
	organizationID, title, description string,
	votingDate time.Time,
	startTime, endTime domain.TimeOfDay,
	candidates []CandidateInput,
) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate the basics.
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Session{}, ErrInvalidSession
	}
	if startTime >= endTime {
		return domain.Session{}, ErrInvalidSessionWindow
	}
	votingDate = dateOnly(votingDate)
	if votingDate.Before(dateOnly(s.Clock.now())) {
		return domain.Session{}, ErrVotingDatePast
	}
	if len(candidates) == 0 {
		return domain.Session{}, ErrNoCandidates
	}

	// 2. Candidate names must be unique within the session, compared
	// case-insensitively.
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		name := strings.ToLower(strings.TrimSpace(c.FullName))
		if name == "" {
			return domain.Session{}, ErrInvalidSession
		}
		if _, dup := seen[name]; dup {
			return domain.Session{}, ErrDuplicateCandidateName
		}
		seen[name] = struct{}{}
	}

	// 3. The owning organization must exist.
	if _, err := s.Store.Organizations().GetOrganizationByID(ctx, organizationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrOrganizationNotFound
		}
		log.Error("failed to fetch organization", slog.Any("error", err))
		return domain.Session{}, err
	}

	// 4. Persist session and candidates together.
	now := s.Clock.now()
	sess := domain.Session{
		ID:             idx.New().String(),
		OrganizationID: organizationID,
		Title:          title,
		Description:    strings.TrimSpace(description),
		VotingDate:     votingDate,
		StartTime:      startTime,
		EndTime:        endTime,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().CreateSession(ctx, sess); err != nil {
			return err
		}
		for _, c := range candidates {
			candidate := domain.Candidate{
				ID:        idx.New().String(),
				SessionID: sess.ID,
				FullName:  strings.TrimSpace(c.FullName),
				Position:  strings.TrimSpace(c.Position),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Candidates().CreateCandidate(ctx, candidate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create session", slog.Any("error", err))
		return domain.Session{}, err
	}

	log.Info("session created",
		slog.String("session_id", sess.ID),
		slog.String("organization_id", organizationID),
		slog.Int("candidates", len(candidates)),
	)
	return sess, nil
}

// Get returns a session with per-candidate tallies and the voter roster.
// Only the owning organization may read it.
func (s *SessionService) Get(ctx context.Context, organizationID, sessionID string) (SessionDetail, error) {
	sess, err := s.owned(ctx, organizationID, sessionID)
	if err != nil {
		return SessionDetail{}, err
	}

	candidates, err := s.Store.Candidates().ListCandidatesBySession(ctx, sess.ID)
	if err != nil {
		return SessionDetail{}, err
	}
	tallies := make([]CandidateTally, 0, len(candidates))
	for _, c := range candidates {
		count, err := s.Store.Votes().CountVotesByCandidate(ctx, c.ID)
		if err != nil {
			return SessionDetail{}, err
		}
		tallies = append(tallies, CandidateTally{Candidate: c, Votes: count})
	}

	voters, err := s.Store.Voters().ListVotersBySession(ctx, sess.ID)
	if err != nil {
		return SessionDetail{}, err
	}

	return SessionDetail{Session: sess, Candidates: tallies, Voters: voters}, nil
}

// List returns the organization's sessions, newest first.
func (s *SessionService) List(ctx context.Context, organizationID string) ([]domain.Session, error) {
	return s.Store.Sessions().ListSessionsByOrganization(ctx, organizationID)
}

// ListActive returns the organization's sessions that are still upcoming or
// currently open.
func (s *SessionService) ListActive(ctx context.Context, organizationID string) ([]domain.Session, error) {
	sessions, err := s.Store.Sessions().ListSessionsByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.now()
	out := make([]domain.Session, 0, len(sessions))
	for _, sess := range sessions {
		if window.StateAt(sess, now) != window.Closed {
			out = append(out, sess)
		}
	}
	return out, nil
}

// Update rewrites a session's mutable fields. Once the voting date has
// begun the session is frozen.
func (s *SessionService) Update(
	ctx context.Context,
	organizationID, sessionID, title, description string,
	votingDate time.Time,
	startTime, endTime domain.TimeOfDay,
) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	sess, err := s.owned(ctx, organizationID, sessionID)
	if err != nil {
		return domain.Session{}, err
	}

	if err := s.requireNotStarted(sess); err != nil {
		return domain.Session{}, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Session{}, ErrInvalidSession
	}
	if startTime >= endTime {
		return domain.Session{}, ErrInvalidSessionWindow
	}
	votingDate = dateOnly(votingDate)
	if votingDate.Before(dateOnly(s.Clock.now())) {
		return domain.Session{}, ErrVotingDatePast
	}

	err = s.Store.Sessions().UpdateSessionDetails(ctx, sess.ID, title,
		strings.TrimSpace(description), votingDate, startTime, endTime)
	if err != nil {
		log.Error("failed to update session", slog.Any("error", err))
		return domain.Session{}, err
	}

	log.Info("session updated", slog.String("session_id", sess.ID))
	return s.Store.Sessions().GetSessionByID(ctx, sess.ID)
}

// Candidates lists a session's candidates. Voters may call this for their own
// session, so there is no ownership check here.
func (s *SessionService) Candidates(ctx context.Context, sessionID string) ([]domain.Candidate, error) {
	if _, err := s.Store.Sessions().GetSessionByID(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s.Store.Candidates().ListCandidatesBySession(ctx, sessionID)
}

// UpdateCandidate renames a candidate or changes their position. The session
// binding is immutable, and a started session freezes its candidates too.
func (s *SessionService) UpdateCandidate(ctx context.Context, organizationID, candidateID, fullName, position string) (domain.Candidate, error) {
	log := slogx.FromContext(ctx)

	candidate, err := s.Store.Candidates().GetCandidateByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Candidate{}, ErrCandidateNotFound
		}
		return domain.Candidate{}, err
	}

	sess, err := s.owned(ctx, organizationID, candidate.SessionID)
	if err != nil {
		return domain.Candidate{}, err
	}
	if err := s.requireNotStarted(sess); err != nil {
		return domain.Candidate{}, err
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return domain.Candidate{}, ErrInvalidSession
	}

	// Renaming must not collide with a sibling candidate.
	siblings, err := s.Store.Candidates().ListCandidatesBySession(ctx, sess.ID)
	if err != nil {
		return domain.Candidate{}, err
	}
	for _, c := range siblings {
		if c.ID != candidate.ID && strings.EqualFold(strings.TrimSpace(c.FullName), fullName) {
			return domain.Candidate{}, ErrDuplicateCandidateName
		}
	}

	if err := s.Store.Candidates().UpdateCandidateDetails(ctx, candidate.ID, fullName, strings.TrimSpace(position)); err != nil {
		log.Error("failed to update candidate", slog.Any("error", err))
		return domain.Candidate{}, err
	}
	return s.Store.Candidates().GetCandidateByID(ctx, candidate.ID)
}

// owned fetches a session and verifies the caller's organization owns it.
func (s *SessionService) owned(ctx context.Context, organizationID, sessionID string) (domain.Session, error) {
	sess, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	if sess.OrganizationID != organizationID {
		return domain.Session{}, ErrNotSessionOwner
	}
	return sess, nil
}

// requireNotStarted rejects modification from the voting date onwards.
func (s *SessionService) requireNotStarted(sess domain.Session) error {
	if !dateOnly(s.Clock.now()).Before(dateOnly(sess.VotingDate)) {
		return ErrSessionStarted
	}
	return nil
}

// dateOnly truncates t to UTC midnight.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
