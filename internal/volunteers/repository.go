package volunteers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteerhub/backend/internal/models"
)

const profileColumns = `v.v_id, v.age, v.skills, v.interests, v.availability, v.experience, v.created_at, v.updated_at,
	u.first_name, u.last_name, u.email, u.phone, u.image_url`

// Repository handles volunteer persistence. Volunteer records span two
// tables: the shared user_profiles row and the volunteers row, written
// together in one transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a volunteers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanProfile(row pgx.Row) (*models.VolunteerProfile, error) {
	var p models.VolunteerProfile
	err := row.Scan(&p.VID, &p.Age, &p.Skills, &p.Interests, &p.Availability, &p.Experience,
		&p.CreatedAt, &p.UpdatedAt, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.ImageURL)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all volunteers joined with their shared profiles.
func (r *Repository) List(ctx context.Context) ([]models.VolunteerProfile, error) {
	const q = `SELECT ` + profileColumns + `
		FROM volunteers v
		INNER JOIN user_profiles u ON u.user_id = v.v_id
		ORDER BY u.last_name, u.first_name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.VolunteerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// GetProfile returns the joined volunteer + shared profile record, or
// pgx.ErrNoRows when absent.
func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*models.VolunteerProfile, error) {
	const q = `SELECT ` + profileColumns + `
		FROM volunteers v
		INNER JOIN user_profiles u ON u.user_id = v.v_id
		WHERE v.v_id = $1`
	return scanProfile(r.pool.QueryRow(ctx, q, id))
}

// CreateWithProfile creates a volunteer in one transaction: upsert the
// shared profile row (marking the role when the profile already exists from
// another signup path), then insert the volunteer row.
func (r *Repository) CreateWithProfile(ctx context.Context, p *models.UserProfile, v *models.Volunteer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const profileQ = `INSERT INTO user_profiles (user_id, first_name, last_name, email, phone, image_url, role)
		VALUES ($1, $2, $3, $4, $5, $6, 'volunteer')
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			image_url = COALESCE(EXCLUDED.image_url, user_profiles.image_url),
			role = 'volunteer',
			updated_at = NOW()`
	if _, err := tx.Exec(ctx, profileQ, p.UserID, p.FirstName, p.LastName, p.Email, p.Phone, p.ImageURL); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	const volunteerQ = `INSERT INTO volunteers (v_id, age)
		VALUES ($1, $2)
		RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, volunteerQ, v.VID, v.Age).Scan(&v.CreatedAt, &v.UpdatedAt); err != nil {
		return fmt.Errorf("insert volunteer: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateWithProfile updates profile fields and volunteer fields in one
// transaction; a failure in either write rolls back both.
func (r *Repository) UpdateWithProfile(ctx context.Context, p *models.UserProfile, v *models.Volunteer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const profileQ = `UPDATE user_profiles SET
			first_name = $1, last_name = $2, email = $3, phone = $4, image_url = $5, updated_at = NOW()
		WHERE user_id = $6`
	if _, err := tx.Exec(ctx, profileQ, p.FirstName, p.LastName, p.Email, p.Phone, p.ImageURL, p.UserID); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	const volunteerQ = `UPDATE volunteers SET
			age = $1, skills = $2, interests = $3, availability = $4, experience = $5, updated_at = NOW()
		WHERE v_id = $6`
	if _, err := tx.Exec(ctx, volunteerQ, v.Age, v.Skills, v.Interests, v.Availability, v.Experience, v.VID); err != nil {
		return fmt.Errorf("update volunteer: %w", err)
	}

	return tx.Commit(ctx)
}

// Delete removes the volunteer row only; the shared profile row is kept.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM volunteers WHERE v_id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
