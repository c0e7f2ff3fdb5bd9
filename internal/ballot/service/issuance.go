package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/internal/ballot/window"
	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/mailx"
	"github.com/openballot/ballotd/pkg/slogx"
)

var (
	ErrVoterNotFound     = errors.New("voter not found")
	ErrAlreadyIssued     = errors.New("vote token has already been issued")
	ErrSessionNotStarted = errors.New("voting session has not started")
	ErrSessionClosed     = errors.New("voting session has closed")
)

// IssuanceService mints one-time vote tokens. A voter gets exactly one token
// over the session's lifetime; the plaintext is returned (and emailed) once
// and only the argon2id hash is persisted.
type IssuanceService struct {
	Store store.Store
	Mail  mailx.Sender
	Clock clock
}

// IssueToken generates the voter's single vote token.
func (s *IssuanceService) IssueToken(ctx context.Context, voterID string) (string, error) {
	log := slogx.FromContext(ctx)

	// 1. Fetch the voter.
	voter, err := s.Store.Voters().GetVoterByID(ctx, voterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("token issuance attempted for unknown voter",
				slog.String("voter_id", voterID),
			)
			return "", ErrVoterNotFound
		}
		log.Error("failed to fetch voter", slog.Any("error", err))
		return "", err
	}

	// 2. One token per voter, ever. The flag never resets.
	if voter.TokenGenerated {
		log.Warn("token issuance attempted twice",
			slog.String("voter_id", voter.ID),
		)
		return "", ErrAlreadyIssued
	}

	// 3. Issuance is only allowed while the session window is open.
	sess, err := s.Store.Sessions().GetSessionByID(ctx, voter.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrSessionNotFound
		}
		log.Error("failed to fetch session", slog.Any("error", err))
		return "", err
	}
	if err := requireOpen(sess, s.Clock.now()); err != nil {
		return "", err
	}

	// 4. Generate the token and hash it. Only the hash is stored.
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate vote token", slog.Any("error", err))
		return "", err
	}
	tokenHash, err := cryptox.HashPassword(token)
	if err != nil {
		log.Error("failed to hash vote token", slog.Any("error", err))
		return "", err
	}

	// 5. Persist, guarded by token_generated = 0. Losing the guard means a
	// concurrent request won the race; surface it as a duplicate issuance.
	if err := s.Store.Voters().SetVoterTokenHash(ctx, voter.ID, tokenHash, s.Clock.now()); err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Warn("concurrent token issuance lost the race",
				slog.String("voter_id", voter.ID),
			)
			return "", ErrAlreadyIssued
		}
		log.Error("failed to store vote token hash", slog.Any("error", err))
		return "", err
	}

	// 6. Email delivery is best effort and happens after the state is
	// committed. A mail failure never rolls back the issuance.
	if s.Mail != nil {
		body := fmt.Sprintf(
			"Your one-time vote token for %q:\n\n%s\n\nIt can be used exactly once.",
			sess.Title, token,
		)
		if err := s.Mail.Send(ctx, voter.Email, "Your vote token", body); err != nil {
			log.Warn("failed to email vote token",
				slog.String("voter_id", voter.ID),
				slog.Any("error", err),
			)
		}
	}

	log.Info("vote token issued",
		slog.String("voter_id", voter.ID),
		slog.String("session_id", sess.ID),
	)

	// 7. Return the plaintext. It is never recoverable after this.
	return token, nil
}

// VerifyToken reports whether the presented token matches the voter's stored
// hash. Read-only; it never consumes the token.
func (s *IssuanceService) VerifyToken(ctx context.Context, voterID, token string) (bool, error) {
	voter, err := s.Store.Voters().GetVoterByID(ctx, voterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrVoterNotFound
		}
		return false, err
	}
	if token == "" || !voter.TokenGenerated || voter.TokenHash == "" {
		return false, nil
	}
	return cryptox.VerifyPassword(token, voter.TokenHash) == nil, nil
}

// requireOpen maps the clock gate's state onto the issuance/casting errors.
func requireOpen(sess domain.Session, now time.Time) error {
	switch window.StateAt(sess, now) {
	case window.NotStarted:
		return ErrSessionNotStarted
	case window.Closed:
		return ErrSessionClosed
	default:
		return nil
	}
}
