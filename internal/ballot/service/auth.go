package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/slogx"
)

// ErrInvalidCredentials is deliberately vague: login failures never reveal
// whether the account exists or the secret was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates both principal kinds: organizations by
// email/password, voters by code/PIN. Token minting lives at the transport
// layer; the service only proves identity.
type AuthService struct {
	Store store.Store
}

// OrganizationLogin verifies an organization's email and password.
func (s *AuthService) OrganizationLogin(ctx context.Context, email, password string) (domain.Organization, error) {
	log := slogx.FromContext(ctx)

	org, err := s.Store.Organizations().GetOrganizationByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("organization login with unknown email")
			return domain.Organization{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch organization", slog.Any("error", err))
		return domain.Organization{}, err
	}

	if err := cryptox.VerifyPassword(password, org.PasswordHash); err != nil {
		log.Warn("organization login with wrong password",
			slog.String("organization_id", org.ID),
		)
		return domain.Organization{}, ErrInvalidCredentials
	}

	log.Info("organization logged in", slog.String("organization_id", org.ID))
	return org, nil
}

// VoterLogin verifies a voter's code and access PIN. The initial PIN equals
// the code itself, as delivered in the roster invite email.
func (s *AuthService) VoterLogin(ctx context.Context, code, pin string) (domain.Voter, error) {
	log := slogx.FromContext(ctx)

	voter, err := s.Store.Voters().GetVoterByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("voter login with unknown code")
			return domain.Voter{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch voter", slog.Any("error", err))
		return domain.Voter{}, err
	}

	if err := cryptox.VerifyPassword(pin, voter.PinHash); err != nil {
		log.Warn("voter login with wrong pin",
			slog.String("voter_id", voter.ID),
		)
		return domain.Voter{}, ErrInvalidCredentials
	}

	log.Info("voter logged in",
		slog.String("voter_id", voter.ID),
		slog.String("session_id", voter.SessionID),
	)
	return voter, nil
}
