package events

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteerhub/backend/internal/models"
)

const eventColumns = `event_id, o_id, name, description, date, time, location, people_needed, tags, image_url, link, restricted, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.EventID, &e.OID, &e.Name, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.PeopleNeeded, &e.Tags, &e.ImageURL, &e.Link, &e.Restricted, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]models.Event, error) {
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// List returns all events.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date, time`)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// GetByID returns an event by id, or pgx.ErrNoRows when absent.
func (r *Repository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = $1`, id))
}

// ListByOrganization returns the events owned by an organization.
func (r *Repository) ListByOrganization(ctx context.Context, oid int) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events WHERE o_id = $1 ORDER BY date, time`, oid)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// Create inserts a new event. The id is store-generated.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (o_id, name, description, date, time, location, people_needed, tags, image_url, link, restricted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING event_id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.OID, e.Name, e.Description, e.Date, e.Time, e.Location,
		e.PeopleNeeded, e.Tags, e.ImageURL, e.Link, e.Restricted).
		Scan(&e.EventID, &e.CreatedAt, &e.UpdatedAt)
}

// Update writes all updatable columns of an event.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET
			o_id = $1, name = $2, description = $3, date = $4, time = $5, location = $6,
			people_needed = $7, tags = $8, image_url = $9, link = $10, restricted = $11,
			updated_at = NOW()
		WHERE event_id = $12
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, e.OID, e.Name, e.Description, e.Date, e.Time, e.Location,
		e.PeopleNeeded, e.Tags, e.ImageURL, e.Link, e.Restricted, e.EventID).
		Scan(&e.UpdatedAt)
}

// Delete removes an event and reports how many rows were removed.
func (r *Repository) Delete(ctx context.Context, id int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE event_id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Search delegates to the search_events database function. Rows come back
// unfiltered and unranked.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM search_events($1)`, query)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// UpsertExternal inserts or refreshes an ingested event, keyed on
// (name, o_id, date) so repeated ingestion runs do not duplicate rows.
func (r *Repository) UpsertExternal(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (o_id, name, description, date, time, location, people_needed, tags, image_url, link, restricted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (name, o_id, date) DO UPDATE SET
			description = EXCLUDED.description,
			time = EXCLUDED.time,
			location = EXCLUDED.location,
			people_needed = EXCLUDED.people_needed,
			tags = EXCLUDED.tags,
			image_url = EXCLUDED.image_url,
			link = EXCLUDED.link,
			updated_at = NOW()
		RETURNING event_id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.OID, e.Name, e.Description, e.Date, e.Time, e.Location,
		e.PeopleNeeded, e.Tags, e.ImageURL, e.Link, e.Restricted).
		Scan(&e.EventID, &e.CreatedAt, &e.UpdatedAt)
}
