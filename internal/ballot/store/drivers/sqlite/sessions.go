package sqlite

import (
	"context"
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
)

type sessionsRepo struct {
	q querier
}

const sessionColumns = `id, organization_id, title, description, voting_date, start_time, end_time, active, created_at, updated_at`

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OrganizationID, s.Title, s.Description,
		fmtDate(s.VotingDate), s.StartTime.String(), s.EndTime.String(),
		s.Active, fmtTime(s.CreatedAt), fmtTime(s.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (r *sessionsRepo) ListSessionsByOrganization(ctx context.Context, organizationID string) ([]domain.Session, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE organization_id = ?
		ORDER BY created_at DESC`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionsRepo) UpdateSessionDetails(ctx context.Context, id, title, description string,
	votingDate time.Time, startTime, endTime domain.TimeOfDay,
) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE sessions
		SET title = ?, description = ?, voting_date = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?`,
		title, description, fmtDate(votingDate),
		startTime.String(), endTime.String(), fmtTime(time.Now()), id,
	)
	return err
}

func scanSession(s scanner) (domain.Session, error) {
	var (
		sess                           domain.Session
		votingDate, startTime, endTime string
		createdAt, updatedAt           string
	)
	err := s.Scan(&sess.ID, &sess.OrganizationID, &sess.Title, &sess.Description,
		&votingDate, &startTime, &endTime, &sess.Active, &createdAt, &updatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	sess.VotingDate = parseDate(votingDate)
	if sess.StartTime, err = domain.ParseTimeOfDay(startTime); err != nil {
		return domain.Session{}, err
	}
	if sess.EndTime, err = domain.ParseTimeOfDay(endTime); err != nil {
		return domain.Session{}, err
	}
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)
	return sess, nil
}
