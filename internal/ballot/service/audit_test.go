package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/idx"
)

func TestAuditScan(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	org := seedOrganization(t, s)
	other := seedOrganization(t, s)
	sess := seedSession(t, s, org.ID)
	candidate := seedCandidate(t, s, sess.ID, "Priya Shah")

	issuance := &IssuanceService{Store: s, Clock: openClock}
	casting := &CastingService{Store: s, Clock: openClock}
	audit := &AuditService{Store: s}

	t.Run("clean session", func(t *testing.T) {
		for _, email := range []string{"a@club.test", "b@club.test", "c@club.test"} {
			voter := seedVoter(t, s, sess.ID, email)
			token, err := issuance.IssueToken(ctx, voter.ID)
			require.NoError(t, err)
			_, err = casting.CastVote(ctx, voter.ID, candidate.ID, token)
			require.NoError(t, err)
		}

		report, err := audit.Scan(ctx, org.ID, sess.ID)
		require.NoError(t, err)
		require.True(t, report.Clean())
		require.Equal(t, 3, report.TotalVotes)
		require.Empty(t, report.Duplicates)
	})

	t.Run("duplicate fingerprints are reported", func(t *testing.T) {
		// Write two extra records with the same fingerprint straight into
		// storage, simulating the kind of fault the auditor exists for.
		fingerprint := cryptox.FingerprintToken("tampered-token")
		var forged []string
		for i := 0; i < 2; i++ {
			v := domain.Vote{
				ID:               idx.New().String(),
				CandidateID:      candidate.ID,
				SessionID:        sess.ID,
				TokenFingerprint: fingerprint,
				CreatedAt:        time.Now().UTC(),
			}
			require.NoError(t, s.Votes().CreateVote(ctx, v))
			forged = append(forged, v.ID)
		}

		report, err := audit.Scan(ctx, org.ID, sess.ID)
		require.NoError(t, err)
		require.False(t, report.Clean())
		require.Equal(t, 5, report.TotalVotes)
		require.Len(t, report.Duplicates, 1)

		group := report.Duplicates[0]
		require.Equal(t, fingerprint, group.TokenFingerprint)
		require.Equal(t, 2, group.Count)
		require.ElementsMatch(t, forged, group.VoteIDs)
	})

	t.Run("ownership enforced", func(t *testing.T) {
		_, err := audit.Scan(ctx, other.ID, sess.ID)
		require.ErrorIs(t, err, ErrNotSessionOwner)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := audit.Scan(ctx, org.ID, "missing")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})
}
