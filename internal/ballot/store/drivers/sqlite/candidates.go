package sqlite

import (
	"context"
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
)

type candidatesRepo struct {
	q querier
}

const candidateColumns = `id, session_id, full_name, position, created_at, updated_at`

func (r *candidatesRepo) CreateCandidate(ctx context.Context, c domain.Candidate) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO candidates (`+candidateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.SessionID, c.FullName, c.Position,
		fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *candidatesRepo) GetCandidateByID(ctx context.Context, id string) (domain.Candidate, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id)
	return scanCandidate(row)
}

func (r *candidatesRepo) ListCandidatesBySession(ctx context.Context, sessionID string) ([]domain.Candidate, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+candidateColumns+` FROM candidates
		WHERE session_id = ?
		ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *candidatesRepo) UpdateCandidateDetails(ctx context.Context, id, fullName, position string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE candidates
		SET full_name = ?, position = ?, updated_at = ?
		WHERE id = ?`,
		fullName, position, fmtTime(time.Now()), id,
	)
	return err
}

func scanCandidate(s scanner) (domain.Candidate, error) {
	var (
		c                    domain.Candidate
		createdAt, updatedAt string
	)
	err := s.Scan(&c.ID, &c.SessionID, &c.FullName, &c.Position, &createdAt, &updatedAt)
	if err != nil {
		return domain.Candidate{}, mapNotFound(err)
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}
