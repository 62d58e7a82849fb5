package events

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/volunteerhub/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	events  map[int]*models.Event
	nextID  int
	updates int
	deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: make(map[int]*models.Event), nextID: 1}
}

func (s *fakeStore) List(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int) (*models.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) ListByOrganization(ctx context.Context, oid int) ([]models.Event, error) {
	var out []models.Event
	for _, e := range s.events {
		if e.OID == oid {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeStore) Create(ctx context.Context, e *models.Event) error {
	e.EventID = s.nextID
	s.nextID++
	cp := *e
	s.events[e.EventID] = &cp
	return nil
}

func (s *fakeStore) Update(ctx context.Context, e *models.Event) error {
	s.updates++
	cp := *e
	s.events[e.EventID] = &cp
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id int) (int64, error) {
	if _, ok := s.events[id]; !ok {
		return 0, nil
	}
	s.deletes++
	delete(s.events, id)
	return 1, nil
}

func (s *fakeStore) Search(ctx context.Context, query string) ([]models.Event, error) {
	var out []models.Event
	for _, e := range s.events {
		if strings.Contains(strings.ToLower(e.Name), strings.ToLower(query)) {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeImages struct {
	uploads []string
}

func (f *fakeImages) UploadImage(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error) {
	f.uploads = append(f.uploads, key)
	return "https://images.test/" + key, nil
}

func (f *fakeImages) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, "https://images.test/")
}

type fakeCleanup struct {
	keys []string
}

func (f *fakeCleanup) EnqueueImageDelete(ctx context.Context, key string) error {
	f.keys = append(f.keys, key)
	return nil
}

func newTestRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.GET("/event/get-events", h.List)
	r.GET("/event/get-event/:event_id", h.GetByID)
	r.GET("/event/get-org-events/:o_id", h.ListByOrganization)
	r.GET("/event/search-events", h.Search)
	r.POST("/event/create-event", h.Create)
	r.PUT("/event/update-event/:event_id", h.Update)
	r.DELETE("/event/delete-event/:event_id", h.Delete)
	return r
}

func TestCreateEvent(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, &fakeImages{}, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	body := `{"o_id":1,"name":"Park Cleanup","description":"Pick up litter","date":"2026-09-01","time":"09:00:00","location":"Shelby Park","people_needed":10,"tags":"Outdoors, Cleanup"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/event/create-event", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var got models.Event
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.EventID == 0 {
		t.Error("expected generated event id")
	}
	if got.Name != "Park Cleanup" || got.OID != 1 {
		t.Errorf("unexpected event: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "Outdoors" || got.Tags[1] != "Cleanup" {
		t.Errorf("tags = %v, want [Outdoors Cleanup]", got.Tags)
	}
	if got.ImageURL != nil {
		t.Error("new events must start without an image")
	}
}

func TestCreateEventMissingFields(t *testing.T) {
	h := NewHandler(newFakeStore(), &fakeImages{}, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/event/create-event", strings.NewReader(`{"description":"no name"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetEventNotFound(t *testing.T) {
	h := NewHandler(newFakeStore(), &fakeImages{}, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/event/get-event/99", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestUpdateEventMergesFields(t *testing.T) {
	store := newFakeStore()
	store.events[1] = &models.Event{
		EventID: 1, OID: 1, Name: "Old Name", Description: "Old description",
		Date: "2026-09-01", Time: "09:00:00", Location: "Old Place",
		PeopleNeeded: 5, Tags: []string{"Old"},
	}
	store.nextID = 2
	h := NewHandler(store, &fakeImages{}, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/event/update-event/1", strings.NewReader(`{"name":"New Name"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	saved := store.events[1]
	if saved.Name != "New Name" {
		t.Errorf("name = %q, want New Name", saved.Name)
	}
	if saved.Description != "Old description" || saved.Location != "Old Place" {
		t.Error("absent fields must keep stored values")
	}
	if len(saved.Tags) != 1 || saved.Tags[0] != "Old" {
		t.Errorf("tags = %v, want [Old]", saved.Tags)
	}
}

func TestUpdateEventNotFound(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, &fakeImages{}, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/event/update-event/42", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if store.updates != 0 {
		t.Error("update must not run for a missing event")
	}
}

func TestUpdateEventReplacesImage(t *testing.T) {
	oldURL := "https://images.test/events/1/old.jpg"
	store := newFakeStore()
	store.events[1] = &models.Event{
		EventID: 1, OID: 1, Name: "Event", Date: "2026-09-01", Time: "09:00:00",
		Location: "Place", ImageURL: &oldURL,
	}
	store.nextID = 2
	images := &fakeImages{}
	cleanup := &fakeCleanup{}
	h := NewHandler(store, images, cleanup, nil)
	r := newTestRouter(h)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Updated Event")
	fw, _ := mw.CreateFormFile("image", "new.png")
	_, _ = fw.Write([]byte("png bytes"))
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/event/update-event/1", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(images.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(images.uploads))
	}
	if len(cleanup.keys) != 1 || cleanup.keys[0] != "events/1/old.jpg" {
		t.Errorf("cleanup keys = %v, want the replaced key", cleanup.keys)
	}
	saved := store.events[1]
	if saved.ImageURL == nil || !strings.Contains(*saved.ImageURL, "events/1/") {
		t.Errorf("image url not replaced: %v", saved.ImageURL)
	}
	if saved.Name != "Updated Event" {
		t.Errorf("name = %q, want Updated Event", saved.Name)
	}
}

func TestUpdateEventMultipartWithoutImage(t *testing.T) {
	store := newFakeStore()
	store.events[1] = &models.Event{EventID: 1, OID: 1, Name: "Old Name", Date: "2026-09-01", Time: "09:00:00"}
	store.nextID = 2
	images := &fakeImages{}
	h := NewHandler(store, images, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Renamed")
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/event/update-event/1", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(images.uploads) != 0 {
		t.Error("no upload expected without an image part")
	}
	if store.events[1].Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", store.events[1].Name)
	}
}

func TestUpdateEventMalformedImagePart(t *testing.T) {
	store := newFakeStore()
	store.events[1] = &models.Event{EventID: 1, OID: 1, Name: "Old Name", Date: "2026-09-01", Time: "09:00:00"}
	store.nextID = 2
	h := NewHandler(store, &fakeImages{}, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/event/update-event/1", strings.NewReader("not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=deadbeef")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
	if store.updates != 0 {
		t.Error("malformed form must not update the event")
	}
}

func TestDeleteEventSchedulesImageCleanup(t *testing.T) {
	url := "https://images.test/events/7/pic.jpg"
	store := newFakeStore()
	store.events[7] = &models.Event{EventID: 7, OID: 1, Name: "Doomed", ImageURL: &url}
	cleanup := &fakeCleanup{}
	h := NewHandler(store, &fakeImages{}, cleanup, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/event/delete-event/7", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if _, ok := store.events[7]; ok {
		t.Error("event not deleted")
	}
	if len(cleanup.keys) != 1 || cleanup.keys[0] != "events/7/pic.jpg" {
		t.Errorf("cleanup keys = %v, want the stored image key", cleanup.keys)
	}
}

func TestDeleteEventNotFound(t *testing.T) {
	store := newFakeStore()
	cleanup := &fakeCleanup{}
	h := NewHandler(store, &fakeImages{}, cleanup, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/event/delete-event/123", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if len(cleanup.keys) != 0 {
		t.Error("no cleanup expected for a missing event")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	h := NewHandler(newFakeStore(), &fakeImages{}, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/event/search-events", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSearchEvents(t *testing.T) {
	store := newFakeStore()
	store.events[1] = &models.Event{EventID: 1, OID: 1, Name: "Garden Workday"}
	store.events[2] = &models.Event{EventID: 2, OID: 1, Name: "Meal Prep"}
	h := NewHandler(store, &fakeImages{}, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/event/search-events?query=garden", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got []models.Event
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].EventID != 1 {
		t.Errorf("results = %v, want the garden event only", got)
	}
}

func TestListOrgEvents(t *testing.T) {
	store := newFakeStore()
	store.events[1] = &models.Event{EventID: 1, OID: 3, Name: "A"}
	store.events[2] = &models.Event{EventID: 2, OID: 4, Name: "B"}
	h := NewHandler(store, &fakeImages{}, &fakeCleanup{}, nil)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/event/get-org-events/"+strconv.Itoa(3), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got []models.Event
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].OID != 3 {
		t.Errorf("results = %v, want only org 3 events", got)
	}
}
