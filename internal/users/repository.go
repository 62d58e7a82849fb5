package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteerhub/backend/internal/middleware"
	"github.com/volunteerhub/backend/internal/models"
)

// Repository handles shared user profile lookups and role resolution.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns the shared profile row for a subject id, or pgx.ErrNoRows.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	const q = `SELECT user_id, first_name, last_name, email, phone, image_url, role, created_at, updated_at
		FROM user_profiles WHERE user_id = $1`
	var p models.UserProfile
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.ImageURL, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// rowQuerier is the single-row query surface resolveRole needs; satisfied by
// *pgxpool.Pool.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ResolveRole determines the caller's role. Returns
// middleware.ErrRoleNotFound when neither table matches.
func (r *Repository) ResolveRole(ctx context.Context, authID uuid.UUID) (string, error) {
	return resolveRole(ctx, r.pool, authID)
}

// resolveRole checks volunteers before organizations, so a subject present
// in both tables resolves to volunteer.
func resolveRole(ctx context.Context, q rowQuerier, authID uuid.UUID) (string, error) {
	var exists int
	err := q.QueryRow(ctx, `SELECT 1 FROM volunteers WHERE v_id = $1`, authID).Scan(&exists)
	if err == nil {
		return models.RoleVolunteer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = q.QueryRow(ctx, `SELECT 1 FROM organizations WHERE auth_id = $1`, authID).Scan(&exists)
	if err == nil {
		return models.RoleOrganization, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	return "", middleware.ErrRoleNotFound
}
