package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openballot/ballotd/internal/ballot/domain"
)

func TestSessionCreate(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	org := seedOrganization(t, s)
	svc := &SessionService{Store: s, Clock: dayBeforeClock}

	candidates := []CandidateInput{
		{FullName: "Priya Shah", Position: "President"},
		{FullName: "Sam Doyle", Position: "Treasurer"},
	}

	t.Run("creates session with candidates", func(t *testing.T) {
		sess, err := svc.Create(ctx, org.ID, "AGM Election", "Annual vote", votingDay,
			domain.MustTimeOfDay("09:00"), domain.MustTimeOfDay("17:00"), candidates)
		require.NoError(t, err)
		require.True(t, sess.Active)

		got, err := svc.Candidates(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
	})

	t.Run("start must be before end", func(t *testing.T) {
		_, err := svc.Create(ctx, org.ID, "Bad Window", "", votingDay,
			domain.MustTimeOfDay("17:00"), domain.MustTimeOfDay("09:00"), candidates)
		require.ErrorIs(t, err, ErrInvalidSessionWindow)

		_, err = svc.Create(ctx, org.ID, "Zero Window", "", votingDay,
			domain.MustTimeOfDay("09:00"), domain.MustTimeOfDay("09:00"), candidates)
		require.ErrorIs(t, err, ErrInvalidSessionWindow)
	})

	t.Run("voting date cannot be in the past", func(t *testing.T) {
		past := votingDay.AddDate(0, 0, -7)
		_, err := svc.Create(ctx, org.ID, "Too Late", "", past,
			domain.MustTimeOfDay("09:00"), domain.MustTimeOfDay("17:00"), candidates)
		require.ErrorIs(t, err, ErrVotingDatePast)
	})

	t.Run("duplicate candidate names", func(t *testing.T) {
		_, err := svc.Create(ctx, org.ID, "Dup Names", "", votingDay,
			domain.MustTimeOfDay("09:00"), domain.MustTimeOfDay("17:00"),
			[]CandidateInput{{FullName: "Priya Shah"}, {FullName: " priya shah "}})
		require.ErrorIs(t, err, ErrDuplicateCandidateName)
	})

	t.Run("needs at least one candidate", func(t *testing.T) {
		_, err := svc.Create(ctx, org.ID, "Empty", "", votingDay,
			domain.MustTimeOfDay("09:00"), domain.MustTimeOfDay("17:00"), nil)
		require.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("unknown organization", func(t *testing.T) {
		_, err := svc.Create(ctx, "missing", "Orphan", "", votingDay,
			domain.MustTimeOfDay("09:00"), domain.MustTimeOfDay("17:00"), candidates)
		require.ErrorIs(t, err, ErrOrganizationNotFound)
	})
}

func TestSessionGetAndOwnership(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	org := seedOrganization(t, s)
	other := seedOrganization(t, s)
	sess := seedSession(t, s, org.ID)
	candidate := seedCandidate(t, s, sess.ID, "Priya Shah")
	seedVoter(t, s, sess.ID, "one@club.test")

	svc := &SessionService{Store: s, Clock: openClock}

	t.Run("owner sees tallies and roster", func(t *testing.T) {
		detail, err := svc.Get(ctx, org.ID, sess.ID)
		require.NoError(t, err)
		require.Equal(t, sess.ID, detail.Session.ID)
		require.Len(t, detail.Candidates, 1)
		require.Equal(t, candidate.ID, detail.Candidates[0].Candidate.ID)
		require.Equal(t, 0, detail.Candidates[0].Votes)
		require.Len(t, detail.Voters, 1)
	})

	t.Run("other organizations are rejected", func(t *testing.T) {
		_, err := svc.Get(ctx, other.ID, sess.ID)
		require.ErrorIs(t, err, ErrNotSessionOwner)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.Get(ctx, org.ID, "missing")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionListActive(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	org := seedOrganization(t, s)
	sess := seedSession(t, s, org.ID)

	svc := &SessionService{Store: s, Clock: dayBeforeClock}
	active, err := svc.ListActive(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, active, 1, "upcoming session is active")

	svc.Clock = openClock
	active, err = svc.ListActive(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, active, 1, "session inside its window is active")

	svc.Clock = func() time.Time { return votingDay.AddDate(0, 0, 1) }
	active, err = svc.ListActive(ctx, org.ID)
	require.NoError(t, err)
	require.Empty(t, active, "past session is not active")

	all, err := svc.List(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, sess.ID, all[0].ID)
}

func TestSessionUpdate(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	org := seedOrganization(t, s)
	sess := seedSession(t, s, org.ID)

	t.Run("before the voting day", func(t *testing.T) {
		svc := &SessionService{Store: s, Clock: dayBeforeClock}
		got, err := svc.Update(ctx, org.ID, sess.ID, "Renamed Election", "new text",
			votingDay, domain.MustTimeOfDay("10:00"), domain.MustTimeOfDay("16:00"))
		require.NoError(t, err)
		require.Equal(t, "Renamed Election", got.Title)
		require.Equal(t, domain.MustTimeOfDay("10:00"), got.StartTime)
	})

	t.Run("frozen from the voting day onwards", func(t *testing.T) {
		svc := &SessionService{Store: s, Clock: beforeClock}
		_, err := svc.Update(ctx, org.ID, sess.ID, "Too Late", "",
			votingDay, domain.MustTimeOfDay("10:00"), domain.MustTimeOfDay("16:00"))
		require.ErrorIs(t, err, ErrSessionStarted)
	})
}

func TestUpdateCandidate(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	org := seedOrganization(t, s)
	other := seedOrganization(t, s)
	sess := seedSession(t, s, org.ID)
	priya := seedCandidate(t, s, sess.ID, "Priya Shah")
	seedCandidate(t, s, sess.ID, "Sam Doyle")

	svc := &SessionService{Store: s, Clock: dayBeforeClock}

	t.Run("renames within own session", func(t *testing.T) {
		got, err := svc.UpdateCandidate(ctx, org.ID, priya.ID, "Priya Shah-Lane", "President")
		require.NoError(t, err)
		require.Equal(t, "Priya Shah-Lane", got.FullName)
		require.Equal(t, "President", got.Position)
		require.Equal(t, sess.ID, got.SessionID)
	})

	t.Run("rejects sibling name collision", func(t *testing.T) {
		_, err := svc.UpdateCandidate(ctx, org.ID, priya.ID, "sam doyle", "President")
		require.ErrorIs(t, err, ErrDuplicateCandidateName)
	})

	t.Run("other organizations are rejected", func(t *testing.T) {
		_, err := svc.UpdateCandidate(ctx, other.ID, priya.ID, "Hijack", "")
		require.ErrorIs(t, err, ErrNotSessionOwner)
	})

	t.Run("frozen once the voting day begins", func(t *testing.T) {
		frozen := &SessionService{Store: s, Clock: openClock}
		_, err := frozen.UpdateCandidate(ctx, org.ID, priya.ID, "Late Change", "")
		require.ErrorIs(t, err, ErrSessionStarted)
	})
}
