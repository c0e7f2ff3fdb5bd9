package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
)

type organizationsRepo struct {
	q querier
}

const organizationColumns = `id, name, email, contact_person, password_hash, role, created_at, updated_at`

func (r *organizationsRepo) CreateOrganization(ctx context.Context, o domain.Organization) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO organizations (`+organizationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Name, strings.ToLower(o.Email), o.ContactPerson,
		o.PasswordHash, o.Role, fmtTime(o.CreatedAt), fmtTime(o.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+organizationColumns+` FROM organizations WHERE id = ?`, id)
	return scanOrganization(row)
}

func (r *organizationsRepo) GetOrganizationByEmail(ctx context.Context, email string) (domain.Organization, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+organizationColumns+` FROM organizations WHERE email = ?`,
		strings.ToLower(email))
	return scanOrganization(row)
}

func (r *organizationsRepo) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+organizationColumns+` FROM organizations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *organizationsRepo) ExistsOrganizationConflict(ctx context.Context, excludeID, name, email string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM organizations
		WHERE id != ? AND (name = ? OR email = ?)`,
		excludeID, name, strings.ToLower(email),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *organizationsRepo) UpdateOrganizationProfile(ctx context.Context, id, name, email, contactPerson string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE organizations
		SET name = ?, email = ?, contact_person = ?, updated_at = ?
		WHERE id = ?`,
		name, strings.ToLower(email), contactPerson, fmtTime(time.Now()), id,
	)
	return mapConstraint(err)
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrganization(s scanner) (domain.Organization, error) {
	var (
		o                    domain.Organization
		createdAt, updatedAt string
	)
	err := s.Scan(&o.ID, &o.Name, &o.Email, &o.ContactPerson,
		&o.PasswordHash, &o.Role, &createdAt, &updatedAt)
	if err != nil {
		return domain.Organization{}, mapNotFound(err)
	}
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	return o, nil
}
