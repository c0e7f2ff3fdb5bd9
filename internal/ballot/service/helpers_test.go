package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/internal/ballot/store/drivers/sqlite"
	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/idx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "ballotd-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

// votingDay is the fixed session date used across the tests; the window is
// 09:00 to 17:00 UTC and openClock sits safely inside it.
var votingDay = time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

func openClock() time.Time {
	return time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
}

func beforeClock() time.Time {
	return time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC)
}

func afterClock() time.Time {
	return time.Date(2025, time.June, 10, 17, 0, 1, 0, time.UTC)
}

func dayBeforeClock() time.Time {
	return time.Date(2025, time.June, 9, 12, 0, 0, 0, time.UTC)
}

func seedOrganization(t *testing.T, s store.Store) domain.Organization {
	t.Helper()
	ctx := context.Background()

	hash, err := cryptox.HashPassword("org-password")
	require.NoError(t, err)

	// The leading ULID characters encode the timestamp, so take the random
	// tail to keep name and email unique within a single test.
	suffix := idx.New().String()
	suffix = suffix[len(suffix)-10:]

	org := domain.Organization{
		ID:            idx.New().String(),
		Name:          "Workers Club " + suffix[:8],
		Email:         suffix + "@club.test",
		ContactPerson: "Dana Reeve",
		PasswordHash:  hash,
		Role:          "organization",
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.Organizations().CreateOrganization(ctx, org))
	return org
}

func seedSession(t *testing.T, s store.Store, orgID string) domain.Session {
	t.Helper()
	ctx := context.Background()

	sess := domain.Session{
		ID:             idx.New().String(),
		OrganizationID: orgID,
		Title:          "Committee Election",
		Description:    "Annual committee election",
		VotingDate:     votingDay,
		StartTime:      domain.MustTimeOfDay("09:00"),
		EndTime:        domain.MustTimeOfDay("17:00"),
		Active:         true,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))
	return sess
}

func seedCandidate(t *testing.T, s store.Store, sessionID, name string) domain.Candidate {
	t.Helper()
	ctx := context.Background()

	c := domain.Candidate{
		ID:        idx.New().String(),
		SessionID: sessionID,
		FullName:  name,
		Position:  "Treasurer",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Candidates().CreateCandidate(ctx, c))
	return c
}

func seedVoter(t *testing.T, s store.Store, sessionID, email string) domain.Voter {
	t.Helper()
	ctx := context.Background()

	code := newVoterCode()
	pinHash, err := cryptox.HashPassword(code)
	require.NoError(t, err)

	v := domain.Voter{
		ID:        idx.New().String(),
		Code:      code,
		Email:     email,
		SessionID: sessionID,
		PinHash:   pinHash,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Voters().CreateVoter(ctx, v))
	return v
}
