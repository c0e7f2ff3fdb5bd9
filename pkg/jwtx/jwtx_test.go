package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMintAndVerify(t *testing.T) {
	s := &Signer{Secret: []byte("test-secret"), Issuer: "ballotd", TTL: time.Minute}

	raw, err := s.Mint("VTR-AB12C", "01HZX", RoleVoter)
	require.NoError(t, err)

	claims, err := s.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "VTR-AB12C", claims.Subject)
	require.Equal(t, "01HZX", claims.ActorID)
	require.Equal(t, RoleVoter, claims.Role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	s := &Signer{Secret: []byte("test-secret"), Issuer: "ballotd"}
	raw, err := s.Mint("org@example.com", "01ABC", RoleOrganization)
	require.NoError(t, err)

	other := &Signer{Secret: []byte("different"), Issuer: "ballotd"}
	_, err = other.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	s := &Signer{Secret: []byte("test-secret"), Issuer: "ballotd", TTL: -time.Minute}
	raw, err := s.Mint("org@example.com", "01ABC", RoleOrganization)
	require.NoError(t, err)

	_, err = s.Verify(raw)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	s := &Signer{Secret: []byte("test-secret"), Issuer: "someone-else"}
	raw, err := s.Mint("org@example.com", "01ABC", RoleOrganization)
	require.NoError(t, err)

	verifier := &Signer{Secret: []byte("test-secret"), Issuer: "ballotd"}
	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
