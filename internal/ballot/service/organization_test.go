package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/jwtx"
)

func TestOrganizationRegister(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	svc := &OrganizationService{Store: s, Clock: openClock}

	t.Run("creates account with hashed password", func(t *testing.T) {
		org, err := svc.Register(ctx, "Rowing Club", "Rowing@Club.Test", "Jo Chen", "secret-pw")
		require.NoError(t, err)
		require.NotEmpty(t, org.ID)
		require.Equal(t, "rowing@club.test", org.Email)
		require.Equal(t, jwtx.RoleOrganization, org.Role)
		require.NotEqual(t, "secret-pw", org.PasswordHash)
		require.NoError(t, cryptox.VerifyPassword("secret-pw", org.PasswordHash))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, "Another Club", "rowing@club.test", "Jo Chen", "pw")
		require.ErrorIs(t, err, ErrOrganizationExists)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := svc.Register(ctx, "Rowing Club", "other@club.test", "Jo Chen", "pw")
		require.ErrorIs(t, err, ErrOrganizationExists)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.Register(ctx, "Chess Club", "not-an-email", "Jo Chen", "pw")
		require.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Register(ctx, "", "chess@club.test", "Jo Chen", "pw")
		require.ErrorIs(t, err, ErrInvalidOrganization)

		_, err = svc.Register(ctx, "Chess Club", "chess@club.test", "", "pw")
		require.ErrorIs(t, err, ErrInvalidOrganization)
	})
}

func TestOrganizationUpdateProfile(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	svc := &OrganizationService{Store: s, Clock: openClock}

	first, err := svc.Register(ctx, "First Club", "first@club.test", "Ana", "pw")
	require.NoError(t, err)
	second, err := svc.Register(ctx, "Second Club", "second@club.test", "Ben", "pw")
	require.NoError(t, err)

	t.Run("updates own details", func(t *testing.T) {
		got, err := svc.UpdateProfile(ctx, first.ID, "First Club Renamed", "renamed@club.test", "Ana")
		require.NoError(t, err)
		require.Equal(t, "First Club Renamed", got.Name)
		require.Equal(t, "renamed@club.test", got.Email)
	})

	t.Run("keeping own email is not a conflict", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, first.ID, "First Club Renamed", "renamed@club.test", "Ana")
		require.NoError(t, err)
	})

	t.Run("rejects another organization's email", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, first.ID, "First Club Renamed", second.Email, "Ana")
		require.ErrorIs(t, err, ErrOrganizationExists)
	})

	t.Run("unknown organization", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, "missing", "Name", "some@club.test", "Ana")
		require.ErrorIs(t, err, ErrOrganizationNotFound)
	})
}
