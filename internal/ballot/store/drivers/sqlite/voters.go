package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/store"
)

type votersRepo struct {
	q querier
}

const voterColumns = `id, code, email, session_id, pin_hash, token_hash, token_generated, token_generated_at, has_voted, created_at, updated_at`

func (r *votersRepo) CreateVoter(ctx context.Context, v domain.Voter) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO voters (`+voterColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Code, strings.ToLower(v.Email), v.SessionID, v.PinHash,
		mapStringNull(v.TokenHash), v.TokenGenerated, mapOptionalTime(v.TokenGeneratedAt),
		v.HasVoted, fmtTime(v.CreatedAt), fmtTime(v.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *votersRepo) GetVoterByID(ctx context.Context, id string) (domain.Voter, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+voterColumns+` FROM voters WHERE id = ?`, id)
	return scanVoter(row)
}

func (r *votersRepo) GetVoterByCode(ctx context.Context, code string) (domain.Voter, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+voterColumns+` FROM voters WHERE code = ?`, code)
	return scanVoter(row)
}

func (r *votersRepo) ExistsVoterEmailInSession(ctx context.Context, email, sessionID string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM voters WHERE session_id = ? AND email = ?`,
		sessionID, strings.ToLower(email),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *votersRepo) ListVotersBySession(ctx context.Context, sessionID string) ([]domain.Voter, error) {
	return r.listVoters(ctx, `
		SELECT `+voterColumns+` FROM voters
		WHERE session_id = ?
		ORDER BY created_at ASC`, sessionID)
}

func (r *votersRepo) ListPendingVotersBySession(ctx context.Context, sessionID string) ([]domain.Voter, error) {
	return r.listVoters(ctx, `
		SELECT `+voterColumns+` FROM voters
		WHERE session_id = ? AND has_voted = 0
		ORDER BY created_at ASC`, sessionID)
}

// SetVoterTokenHash is the issuance-side conditional update: it only takes
// effect while token_generated is still 0, closing the check-then-act race.
func (r *votersRepo) SetVoterTokenHash(ctx context.Context, voterID, tokenHash string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE voters
		SET token_hash = ?, token_generated = 1, token_generated_at = ?, updated_at = ?
		WHERE id = ? AND token_generated = 0`,
		tokenHash, fmtTime(at), fmtTime(at), voterID,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// MarkVoterVoted is the casting-side conditional update, guarded by
// has_voted = 0.
func (r *votersRepo) MarkVoterVoted(ctx context.Context, voterID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE voters
		SET has_voted = 1, updated_at = ?
		WHERE id = ? AND has_voted = 0`,
		fmtTime(time.Now()), voterID,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func (r *votersRepo) listVoters(ctx context.Context, query string, args ...any) ([]domain.Voter, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Voter
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVoter(s scanner) (domain.Voter, error) {
	var (
		v                    domain.Voter
		tokenHash            sql.NullString
		tokenGeneratedAt     sql.NullString
		createdAt, updatedAt string
	)
	err := s.Scan(&v.ID, &v.Code, &v.Email, &v.SessionID, &v.PinHash,
		&tokenHash, &v.TokenGenerated, &tokenGeneratedAt,
		&v.HasVoted, &createdAt, &updatedAt)
	if err != nil {
		return domain.Voter{}, mapNotFound(err)
	}
	v.TokenHash = mapNullString(tokenHash)
	v.TokenGeneratedAt = mapNullTimePtr(tokenGeneratedAt)
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	return v, nil
}
