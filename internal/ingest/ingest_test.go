package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/volunteerhub/backend/internal/models"
)

type fakeUpserter struct {
	written []models.Event
	failOn  string
}

func (f *fakeUpserter) UpsertExternal(ctx context.Context, e *models.Event) error {
	if f.failOn != "" && e.Name == f.failOn {
		return errors.New("constraint violation")
	}
	f.written = append(f.written, *e)
	return nil
}

func TestDedupeEvents(t *testing.T) {
	events := []models.Event{
		{Name: "Garden Workday", Date: "2026-09-01", Location: "First"},
		{Name: "Garden Workday", Date: "2026-09-01", Location: "Second"},
		{Name: "Garden Workday", Date: "2026-09-02"},
		{Name: "Meal Prep", Date: "2026-09-01"},
	}
	got := DedupeEvents(events)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Location != "First" {
		t.Error("dedupe must keep the first occurrence")
	}
}

func TestUpsertAllSkipsFailures(t *testing.T) {
	store := &fakeUpserter{failOn: "Bad Row"}
	events := []models.Event{
		{Name: "Good Row", Date: "2026-09-01"},
		{Name: "Bad Row", Date: "2026-09-01"},
		{Name: "Another Good Row", Date: "2026-09-02"},
	}
	written := upsertAll(context.Background(), store, events, zap.NewNop())
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}
	if len(store.written) != 2 {
		t.Errorf("stored = %d, want 2", len(store.written))
	}
}

func TestIntFromJSON(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{`12`, 12},
		{`"7"`, 7},
		{`null`, 0},
		{`""`, 0},
		{`"abc"`, 0},
		{``, 0},
	}
	for _, tc := range cases {
		if got := intFromJSON(json.RawMessage(tc.in)); got != tc.want {
			t.Errorf("intFromJSON(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCleanHandsOnEvents(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	opportunities := []handsOnOpportunity{
		{
			SID:                   json.RawMessage(`"12345"`),
			Title:                 "River Cleanup",
			Description:           "Clear debris along the Cumberland",
			Location:              "East Bank Landing",
			StartDateTimeValue:    "2026-09-15T09:30:00",
			VolunteersStillNeeded: json.RawMessage(`"8"`),
		},
		{
			Title:                 "Already Happened",
			StartDateTimeValue:    "2026-07-01T09:00:00",
			VolunteersStillNeeded: json.RawMessage(`5`),
		},
		{
			Title:                 "Fully Staffed",
			StartDateTimeValue:    "2026-09-20T09:00:00",
			VolunteersStillNeeded: json.RawMessage(`0`),
		},
		{
			SID:                   json.RawMessage(`"99"`),
			Title:                 "",
			Location:              "",
			StartDateTimeValue:    "2026-10-01T14:00:00",
			VolunteersStillNeeded: json.RawMessage(`3`),
		},
	}
	got := cleanHandsOnEvents(opportunities, 7, now)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (past and staffed rows dropped)", len(got))
	}

	first := got[0]
	if first.OID != 7 {
		t.Errorf("o_id = %d, want 7", first.OID)
	}
	if first.Date != "2026-09-15" || first.Time != "09:30:00" {
		t.Errorf("date/time = %s %s", first.Date, first.Time)
	}
	if first.PeopleNeeded != 8 {
		t.Errorf("people_needed = %d, want 8", first.PeopleNeeded)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "External" || first.Tags[1] != "Hands On" {
		t.Errorf("tags = %v", first.Tags)
	}
	if first.ImageURL == nil || *first.ImageURL != handsOnImageURL {
		t.Error("expected the fixed listing image")
	}

	second := got[1]
	if second.Name != "Untitled Event" {
		t.Errorf("name = %q, want Untitled Event", second.Name)
	}
	if second.Location != "Location TBD" {
		t.Errorf("location = %q, want Location TBD", second.Location)
	}
	if second.Link == nil || *second.Link != "https://handson.unitedwaygreaternashville.org/opportunity/99" {
		t.Errorf("link = %v, want the opportunity fallback", second.Link)
	}
}

func TestCleanPointEvents(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 9, 10, 17, 0, 0, 0, time.UTC).UnixMilli()
	past := time.Date(2026, 7, 10, 17, 0, 0, 0, time.UTC).UnixMilli()
	raw := []pointEvent{
		{ID: 41, Title: "Meal Prep Night", StartTime: future, Spots: 6, Address: "123 Main St", Image: "https://cdn.test/41.jpg"},
		{ID: 42, Title: "Past Shift", StartTime: past, Spots: 6},
		{ID: 43, Title: "Full Shift", StartTime: future, Spots: 0},
	}
	got := cleanPointEvents(raw, 9, now)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	e := got[0]
	if e.OID != 9 || e.PeopleNeeded != 6 {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Description != pointDescription {
		t.Error("expected the fixed organization description")
	}
	if e.Link == nil || *e.Link != "https://dash.pointapp.org/events/41" {
		t.Errorf("link = %v", e.Link)
	}
	if e.ImageURL == nil || *e.ImageURL != "https://cdn.test/41.jpg" {
		t.Errorf("image = %v", e.ImageURL)
	}
}

func TestPointRunDecodesItemsPages(t *testing.T) {
	start := time.Now().Add(48 * time.Hour).UnixMilli()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprintf(w, `{"items":[{"id":41,"title":"Meal Prep Night","startTime":%d,"spots":6,"address":"123 Main St"}],"total":2}`, start)
		case "2":
			fmt.Fprintf(w, `{"items":[{"id":42,"title":"Garden Workday","startTime":%d,"spots":3,"address":"2 Farm Ln"}],"total":2}`, start)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewPointSource(9, "tok", 1, 2, 12, zap.NewNop())
	src.baseURL = srv.URL
	store := &fakeUpserter{}

	written, err := src.Run(context.Background(), store)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if written != 2 {
		t.Fatalf("written = %d, want 2", written)
	}
	if len(store.written) != 2 || store.written[0].Name != "Meal Prep Night" || store.written[1].Name != "Garden Workday" {
		t.Errorf("stored = %+v, want both page events in order", store.written)
	}
	if store.written[0].Link == nil || *store.written[0].Link != "https://dash.pointapp.org/events/41" {
		t.Errorf("link = %v", store.written[0].Link)
	}
}

func TestExtractPointTags(t *testing.T) {
	cases := []struct {
		name string
		pe   pointEvent
		want []string
	}{
		{
			name: "meal prep in person with cause",
			pe: pointEvent{Title: "Community Meal Prep", PrimaryCause: struct {
				Title string `json:"title"`
			}{Title: "Hunger"}},
			want: []string{"External", "Hunger", "Nashville Food Project", "Meal Prep", "In-Person"},
		},
		{
			name: "garden virtual",
			pe:   pointEvent{Title: "Garden Planning Call", IsVirtual: true},
			want: []string{"External", "Nashville Food Project", "Garden", "Virtual"},
		},
		{
			name: "no keyword",
			pe:   pointEvent{Title: "Volunteer Orientation"},
			want: []string{"External", "Nashville Food Project", "In-Person"},
		},
	}
	for _, tc := range cases {
		got := extractPointTags(tc.pe)
		if len(got) != len(tc.want) {
			t.Errorf("%s: tags = %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: tags = %v, want %v", tc.name, got, tc.want)
				break
			}
		}
	}
}
