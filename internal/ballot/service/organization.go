package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/idx"
	"github.com/openballot/ballotd/pkg/jwtx"
	"github.com/openballot/ballotd/pkg/slogx"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrOrganizationExists   = errors.New("organization name or email already in use")
	ErrInvalidOrganization  = errors.New("invalid organization details")
	ErrInvalidEmail         = errors.New("invalid email address")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// OrganizationService manages organization accounts.
type OrganizationService struct {
	Store store.Store
	Clock clock
}

// Register creates a new organization account.
func (s *OrganizationService) Register(ctx context.Context, name, email, contactPerson, password string) (domain.Organization, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	contactPerson = strings.TrimSpace(contactPerson)
	if name == "" || contactPerson == "" || password == "" {
		return domain.Organization{}, ErrInvalidOrganization
	}
	if !emailPattern.MatchString(email) {
		return domain.Organization{}, ErrInvalidEmail
	}

	// 2. Reject duplicate name or email up front for a clean error; the
	// unique indexes below still hold under races.
	taken, err := s.Store.Organizations().ExistsOrganizationConflict(ctx, "", name, email)
	if err != nil {
		log.Error("failed to check organization uniqueness", slog.Any("error", err))
		return domain.Organization{}, err
	}
	if taken {
		return domain.Organization{}, ErrOrganizationExists
	}

	// 3. Hash the password.
	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.Organization{}, err
	}

	now := s.Clock.now()
	org := domain.Organization{
		ID:            idx.New().String(),
		Name:          name,
		Email:         email,
		ContactPerson: contactPerson,
		PasswordHash:  passwordHash,
		Role:          jwtx.RoleOrganization,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Store.Organizations().CreateOrganization(ctx, org); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Organization{}, ErrOrganizationExists
		}
		log.Error("failed to create organization", slog.Any("error", err))
		return domain.Organization{}, err
	}

	log.Info("organization registered",
		slog.String("organization_id", org.ID),
		slog.String("name", org.Name),
	)
	return org, nil
}

// Get returns an organization by id.
func (s *OrganizationService) Get(ctx context.Context, id string) (domain.Organization, error) {
	org, err := s.Store.Organizations().GetOrganizationByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Organization{}, ErrOrganizationNotFound
		}
		return domain.Organization{}, err
	}
	return org, nil
}

// List returns all organizations, newest first.
func (s *OrganizationService) List(ctx context.Context) ([]domain.Organization, error) {
	return s.Store.Organizations().ListOrganizations(ctx)
}

// UpdateProfile mutates an organization's name, email and contact person.
func (s *OrganizationService) UpdateProfile(ctx context.Context, id, name, email, contactPerson string) (domain.Organization, error) {
	log := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	contactPerson = strings.TrimSpace(contactPerson)
	if name == "" || contactPerson == "" {
		return domain.Organization{}, ErrInvalidOrganization
	}
	if !emailPattern.MatchString(email) {
		return domain.Organization{}, ErrInvalidEmail
	}

	if _, err := s.Get(ctx, id); err != nil {
		return domain.Organization{}, err
	}

	// Name/email must stay unique across the other organizations.
	taken, err := s.Store.Organizations().ExistsOrganizationConflict(ctx, id, name, email)
	if err != nil {
		log.Error("failed to check organization uniqueness", slog.Any("error", err))
		return domain.Organization{}, err
	}
	if taken {
		return domain.Organization{}, ErrOrganizationExists
	}

	if err := s.Store.Organizations().UpdateOrganizationProfile(ctx, id, name, email, contactPerson); err != nil {
		log.Error("failed to update organization", slog.Any("error", err))
		return domain.Organization{}, err
	}

	log.Info("organization profile updated", slog.String("organization_id", id))
	return s.Get(ctx, id)
}
