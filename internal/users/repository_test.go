package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/volunteerhub/backend/internal/middleware"
	"github.com/volunteerhub/backend/internal/models"
)

type fakeRow struct {
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 1 {
		if p, ok := dest[0].(*int); ok {
			*p = 1
		}
	}
	return nil
}

// fakeQuerier answers the volunteers and organizations existence queries
// from two membership sets and records the order queries arrive in.
type fakeQuerier struct {
	volunteers    map[uuid.UUID]bool
	organizations map[uuid.UUID]bool
	failWith      error
	queried       []string
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	id := args[0].(uuid.UUID)
	switch {
	case strings.Contains(sql, "FROM volunteers"):
		q.queried = append(q.queried, "volunteers")
		if q.failWith != nil {
			return fakeRow{err: q.failWith}
		}
		if q.volunteers[id] {
			return fakeRow{}
		}
	case strings.Contains(sql, "FROM organizations"):
		q.queried = append(q.queried, "organizations")
		if q.organizations[id] {
			return fakeRow{}
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func TestResolveRoleVolunteerWinsWhenInBothTables(t *testing.T) {
	id := uuid.New()
	q := &fakeQuerier{
		volunteers:    map[uuid.UUID]bool{id: true},
		organizations: map[uuid.UUID]bool{id: true},
	}

	role, err := resolveRole(context.Background(), q, id)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if role != models.RoleVolunteer {
		t.Errorf("role = %q, want volunteer", role)
	}
	if len(q.queried) != 1 || q.queried[0] != "volunteers" {
		t.Errorf("queries = %v, want volunteers checked first and organizations skipped", q.queried)
	}
}

func TestResolveRoleOrganization(t *testing.T) {
	id := uuid.New()
	q := &fakeQuerier{organizations: map[uuid.UUID]bool{id: true}}

	role, err := resolveRole(context.Background(), q, id)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if role != models.RoleOrganization {
		t.Errorf("role = %q, want organization", role)
	}
	if len(q.queried) != 2 || q.queried[0] != "volunteers" || q.queried[1] != "organizations" {
		t.Errorf("queries = %v, want volunteers then organizations", q.queried)
	}
}

func TestResolveRoleUnknownSubject(t *testing.T) {
	q := &fakeQuerier{}
	_, err := resolveRole(context.Background(), q, uuid.New())
	if !errors.Is(err, middleware.ErrRoleNotFound) {
		t.Fatalf("err = %v, want ErrRoleNotFound", err)
	}
}

func TestResolveRolePropagatesQueryFailure(t *testing.T) {
	q := &fakeQuerier{failWith: errors.New("connection refused")}
	_, err := resolveRole(context.Background(), q, uuid.New())
	if err == nil || errors.Is(err, middleware.ErrRoleNotFound) {
		t.Fatalf("err = %v, want the query failure", err)
	}
}
