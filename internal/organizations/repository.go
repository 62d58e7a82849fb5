package organizations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteerhub/backend/internal/models"
)

const orgColumns = `o_id, auth_id, name, description, email, website, image_url, created_at, updated_at`

// Repository handles organization persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	err := row.Scan(&o.OID, &o.AuthID, &o.Name, &o.Description, &o.Email, &o.Website, &o.ImageURL, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns all organizations.
func (r *Repository) List(ctx context.Context) ([]models.Organization, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *o)
	}
	return list, rows.Err()
}

// GetByID returns an organization by id, or pgx.ErrNoRows when absent.
func (r *Repository) GetByID(ctx context.Context, id int) (*models.Organization, error) {
	return scanOrganization(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE o_id = $1`, id))
}

// GetByAuthID returns the organization owned by an identity subject.
func (r *Repository) GetByAuthID(ctx context.Context, authID uuid.UUID) (*models.Organization, error) {
	return scanOrganization(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE auth_id = $1`, authID))
}

// Create inserts a new organization. The id is store-generated.
func (r *Repository) Create(ctx context.Context, o *models.Organization) error {
	const q = `INSERT INTO organizations (auth_id, name, description, email, website, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING o_id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, o.AuthID, o.Name, o.Description, o.Email, o.Website, o.ImageURL).
		Scan(&o.OID, &o.CreatedAt, &o.UpdatedAt)
}

// Update writes all updatable columns of an organization.
func (r *Repository) Update(ctx context.Context, o *models.Organization) error {
	const q = `UPDATE organizations SET
			name = $1, description = $2, email = $3, website = $4, image_url = $5, updated_at = NOW()
		WHERE o_id = $6
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, o.Name, o.Description, o.Email, o.Website, o.ImageURL, o.OID).
		Scan(&o.UpdatedAt)
}

// Delete removes an organization and reports how many rows were removed.
func (r *Repository) Delete(ctx context.Context, id int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE o_id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
