package registrations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteerhub/backend/internal/models"
)

// Repository handles volunteer_event persistence. Rows are identified by the
// (v_id, event_id) pair.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.VID, &reg.EventID, &reg.Approved, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

// List returns all registrations.
func (r *Repository) List(ctx context.Context) ([]models.Registration, error) {
	return r.list(ctx, `SELECT v_id, event_id, approved, created_at FROM volunteer_event ORDER BY created_at DESC`)
}

// ListByVolunteer returns a volunteer's registrations.
func (r *Repository) ListByVolunteer(ctx context.Context, vid uuid.UUID) ([]models.Registration, error) {
	return r.list(ctx, `SELECT v_id, event_id, approved, created_at FROM volunteer_event WHERE v_id = $1 ORDER BY created_at DESC`, vid)
}

// ListByEvent returns an event's registrations.
func (r *Repository) ListByEvent(ctx context.Context, eventID int) ([]models.Registration, error) {
	return r.list(ctx, `SELECT v_id, event_id, approved, created_at FROM volunteer_event WHERE event_id = $1 ORDER BY created_at DESC`, eventID)
}

// Create inserts a registration. Re-registering is idempotent: an existing
// row (and its approval state) is kept untouched.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO volunteer_event (v_id, event_id)
		VALUES ($1, $2)
		ON CONFLICT (v_id, event_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, reg.VID, reg.EventID); err != nil {
		return err
	}
	const sel = `SELECT v_id, event_id, approved, created_at FROM volunteer_event WHERE v_id = $1 AND event_id = $2`
	got, err := scanRegistration(r.pool.QueryRow(ctx, sel, reg.VID, reg.EventID))
	if err != nil {
		return err
	}
	*reg = *got
	return nil
}

// Approve sets the approved flag and reports how many rows matched.
func (r *Repository) Approve(ctx context.Context, vid uuid.UUID, eventID int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE volunteer_event SET approved = TRUE WHERE v_id = $1 AND event_id = $2`, vid, eventID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes a registration by composite key and reports how many rows
// were removed.
func (r *Repository) Delete(ctx context.Context, vid uuid.UUID, eventID int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM volunteer_event WHERE v_id = $1 AND event_id = $2`, vid, eventID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
