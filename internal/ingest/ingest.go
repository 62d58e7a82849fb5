// Package ingest pulls volunteer events from third-party listing APIs into
// the events table. Sources run ad-hoc (cmd/ingest); repeated runs upsert on
// (name, o_id, date) so rows are refreshed rather than duplicated.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/volunteerhub/backend/internal/models"
)

// EventUpserter writes ingested events to the store.
type EventUpserter interface {
	UpsertExternal(ctx context.Context, e *models.Event) error
}

// DedupeEvents drops events sharing a (name, date) pair with an earlier
// entry, keeping the first occurrence.
func DedupeEvents(events []models.Event) []models.Event {
	seen := make(map[string]struct{}, len(events))
	var out []models.Event
	for _, e := range events {
		key := e.Name + "-" + e.Date
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// upsertAll writes events one at a time; failures are logged and skipped so
// one bad row does not abort the run. Returns the number of rows written.
func upsertAll(ctx context.Context, store EventUpserter, events []models.Event, logger *zap.Logger) int {
	written := 0
	for i := range events {
		if err := store.UpsertExternal(ctx, &events[i]); err != nil {
			logger.Error("upsert event failed", zap.Error(err),
				zap.String("name", events[i].Name), zap.String("date", events[i].Date))
			continue
		}
		written++
	}
	return written
}

// intFromJSON parses an integer that third-party APIs send either as a
// number or a quoted string. Unparseable values yield 0.
func intFromJSON(raw json.RawMessage) int {
	s := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	if s == "" || s == "null" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
