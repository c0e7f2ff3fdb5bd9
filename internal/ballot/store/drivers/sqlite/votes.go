package sqlite

import (
	"context"
	"strings"

	"github.com/openballot/ballotd/internal/ballot/domain"
)

type votesRepo struct {
	q querier
}

const voteColumns = `id, candidate_id, session_id, token_fingerprint, created_at`

func (r *votesRepo) CreateVote(ctx context.Context, v domain.Vote) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO votes (`+voteColumns+`)
		VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.CandidateID, v.SessionID, v.TokenFingerprint, fmtTime(v.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *votesRepo) CountVotesByCandidate(ctx context.Context, candidateID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM votes WHERE candidate_id = ?`, candidateID,
	).Scan(&count)
	return count, err
}

func (r *votesRepo) ListVotesBySession(ctx context.Context, sessionID string) ([]domain.Vote, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+voteColumns+` FROM votes
		WHERE session_id = ?
		ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Vote
	for rows.Next() {
		var (
			v         domain.Vote
			createdAt string
		)
		if err := rows.Scan(&v.ID, &v.CandidateID, &v.SessionID, &v.TokenFingerprint, &createdAt); err != nil {
			return nil, err
		}
		v.CreatedAt = parseTime(createdAt)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *votesRepo) FindDuplicateTokenFingerprints(ctx context.Context, sessionID string) ([]domain.DuplicateTokenGroup, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT token_fingerprint, COUNT(*) AS n, GROUP_CONCAT(id)
		FROM votes
		WHERE session_id = ?
		GROUP BY token_fingerprint
		HAVING n > 1
		ORDER BY n DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DuplicateTokenGroup
	for rows.Next() {
		var (
			g   domain.DuplicateTokenGroup
			ids string
		)
		if err := rows.Scan(&g.TokenFingerprint, &g.Count, &ids); err != nil {
			return nil, err
		}
		g.VoteIDs = strings.Split(ids, ",")
		out = append(out, g)
	}
	return out, rows.Err()
}
