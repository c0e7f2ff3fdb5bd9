package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrganizationLogin(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	org := seedOrganization(t, s)
	svc := &AuthService{Store: s}

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.OrganizationLogin(ctx, org.Email, "org-password")
		require.NoError(t, err)
		require.Equal(t, org.ID, got.ID)
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		got, err := svc.OrganizationLogin(ctx, strings.ToUpper(org.Email), "org-password")
		require.NoError(t, err)
		require.Equal(t, org.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.OrganizationLogin(ctx, org.Email, "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.OrganizationLogin(ctx, "nobody@club.test", "org-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestVoterLogin(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	org := seedOrganization(t, s)
	sess := seedSession(t, s, org.ID)
	voter := seedVoter(t, s, sess.ID, "login@club.test")
	svc := &AuthService{Store: s}

	t.Run("code doubles as initial pin", func(t *testing.T) {
		got, err := svc.VoterLogin(ctx, voter.Code, voter.Code)
		require.NoError(t, err)
		require.Equal(t, voter.ID, got.ID)
	})

	t.Run("code lookup is case-insensitive", func(t *testing.T) {
		got, err := svc.VoterLogin(ctx, strings.ToLower(voter.Code), voter.Code)
		require.NoError(t, err)
		require.Equal(t, voter.ID, got.ID)
	})

	t.Run("wrong pin", func(t *testing.T) {
		_, err := svc.VoterLogin(ctx, voter.Code, "VTR-WRONG")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.VoterLogin(ctx, "VTR-ZZZZZ", "VTR-ZZZZZ")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
