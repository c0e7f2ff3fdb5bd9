package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/pkg/slogx"
)

// AuditReport is the outcome of one integrity scan over a session's votes.
type AuditReport struct {
	SessionID  string
	TotalVotes int
	Duplicates []domain.DuplicateTokenGroup
}

// Clean reports whether the scan found no anomalies.
func (r AuditReport) Clean() bool { return len(r.Duplicates) == 0 }

// AuditService scans a session's vote records for token fingerprints that
// appear more than once. With the casting path enforcing at-most-one vote per
// token, any hit here indicates tampering or a storage-level fault.
type AuditService struct {
	Store store.Store
}

// Scan runs the duplicate check for a session. The grouped query does the
// heavy lifting; a linear pass over the raw records cross-checks the result
// so the two disagreeing is itself detectable.
func (s *AuditService) Scan(ctx context.Context, organizationID, sessionID string) (AuditReport, error) {
	log := slogx.FromContext(ctx)

	sess, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuditReport{}, ErrSessionNotFound
		}
		return AuditReport{}, err
	}
	if sess.OrganizationID != organizationID {
		return AuditReport{}, ErrNotSessionOwner
	}

	groups, err := s.Store.Votes().FindDuplicateTokenFingerprints(ctx, sess.ID)
	if err != nil {
		log.Error("failed to group vote fingerprints", slog.Any("error", err))
		return AuditReport{}, err
	}

	votes, err := s.Store.Votes().ListVotesBySession(ctx, sess.ID)
	if err != nil {
		log.Error("failed to list session votes", slog.Any("error", err))
		return AuditReport{}, err
	}

	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		counts[v.TokenFingerprint]++
	}
	recheck := 0
	for _, n := range counts {
		if n > 1 {
			recheck++
		}
	}
	if recheck != len(groups) {
		log.Error("audit cross-check mismatch",
			slog.String("session_id", sess.ID),
			slog.Int("grouped", len(groups)),
			slog.Int("rechecked", recheck),
		)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].TokenFingerprint < groups[j].TokenFingerprint
	})

	report := AuditReport{
		SessionID:  sess.ID,
		TotalVotes: len(votes),
		Duplicates: groups,
	}
	if !report.Clean() {
		log.Warn("duplicate token fingerprints found",
			slog.String("session_id", sess.ID),
			slog.Int("groups", len(groups)),
		)
	}
	return report, nil
}
