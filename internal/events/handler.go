package events

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/pkg/response"
	"github.com/volunteerhub/backend/pkg/storage"
)

// Store is the event persistence surface the handler depends on.
type Store interface {
	List(ctx context.Context) ([]models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
	ListByOrganization(ctx context.Context, oid int) ([]models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id int) (int64, error)
	Search(ctx context.Context, query string) ([]models.Event, error)
}

// ImageStore uploads image bytes and resolves stored keys from public URLs.
type ImageStore interface {
	UploadImage(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	KeyFromURL(url string) string
}

// Cleanup schedules deferred deletion of replaced or orphaned image keys.
// Scheduling failures are logged and never fail the caller's mutation.
type Cleanup interface {
	EnqueueImageDelete(ctx context.Context, key string) error
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo    Store
	images  ImageStore
	cleanup Cleanup
	logger  *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo Store, images ImageStore, cleanup Cleanup, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, images: images, cleanup: cleanup, logger: logger}
}

// CreateEventRequest is the body for POST /event/create-event. Tags arrive as
// a comma-separated string from the creation form.
type CreateEventRequest struct {
	OID          int     `json:"o_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Location     string  `json:"location"`
	PeopleNeeded int     `json:"people_needed"`
	Tags         string  `json:"tags"`
	Link         *string `json:"link"`
	Restricted   bool    `json:"restricted"`
}

// UpdateEventRequest carries the updatable event fields. Absent fields keep
// their stored values.
type UpdateEventRequest struct {
	OID          *int     `json:"o_id"`
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Date         *string  `json:"date"`
	Time         *string  `json:"time"`
	Location     *string  `json:"location"`
	PeopleNeeded *int     `json:"people_needed"`
	Tags         []string `json:"tags"`
	Link         *string  `json:"link"`
	Restricted   *bool    `json:"restricted"`
}

// List handles GET /event/get-events.
func (h *Handler) List(c *gin.Context) {
	events, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "Failed to fetch events")
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	response.OK(c, events)
}

// GetByID handles GET /event/get-event/:event_id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "Invalid event id")
		return
	}
	event, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Event not found")
			return
		}
		response.Internal(c, "Failed to fetch event")
		return
	}
	response.OK(c, event)
}

// ListByOrganization handles GET /event/get-org-events/:o_id.
func (h *Handler) ListByOrganization(c *gin.Context) {
	oid, err := strconv.Atoi(c.Param("o_id"))
	if err != nil {
		response.BadRequest(c, "Invalid organization id")
		return
	}
	events, err := h.repo.ListByOrganization(c.Request.Context(), oid)
	if err != nil {
		response.Internal(c, "Failed to fetch events")
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	response.OK(c, events)
}

// Search handles GET /event/search-events?query=...
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		response.BadRequest(c, "Query parameter required")
		return
	}
	events, err := h.repo.Search(c.Request.Context(), query)
	if err != nil {
		response.Internal(c, "Failed to search events")
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	response.OK(c, events)
}

// Create handles POST /event/create-event. New events start without an image;
// the edit flow attaches one.
func (h *Handler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "o_id and name required")
		return
	}
	event := &models.Event{
		OID:          req.OID,
		Name:         req.Name,
		Description:  req.Description,
		Date:         req.Date,
		Time:         req.Time,
		Location:     req.Location,
		PeopleNeeded: req.PeopleNeeded,
		Tags:         ParseTags(req.Tags),
		Link:         req.Link,
		Restricted:   req.Restricted,
	}
	if err := h.repo.Create(c.Request.Context(), event); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "Failed to create event")
		return
	}
	response.Created(c, event)
}

// Update handles PUT /event/update-event/:event_id. Accepts JSON or a
// multipart form with an optional image file; a replaced image's previous
// key is scheduled for deferred deletion.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "Invalid event id")
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Event not found")
			return
		}
		response.Internal(c, "Failed to fetch event")
		return
	}

	req, file, err := h.bindUpdate(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated := *existing
	if req.OID != nil {
		updated.OID = *req.OID
	}
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Date != nil {
		updated.Date = *req.Date
	}
	if req.Time != nil {
		updated.Time = *req.Time
	}
	if req.Location != nil {
		updated.Location = *req.Location
	}
	if req.PeopleNeeded != nil {
		updated.PeopleNeeded = *req.PeopleNeeded
	}
	if req.Link != nil {
		updated.Link = req.Link
	}
	if req.Restricted != nil {
		updated.Restricted = *req.Restricted
	}
	if req.Tags != nil {
		updated.Tags = req.Tags
	}

	if file != nil {
		url, err := h.uploadImage(c.Request.Context(), id, file)
		if err != nil {
			h.logger.Error("event image upload failed", zap.Error(err), zap.Int("event_id", id))
			response.Internal(c, "Failed to upload image")
			return
		}
		h.scheduleImageCleanup(c.Request.Context(), existing.ImageURL)
		updated.ImageURL = &url
	}

	if err := h.repo.Update(c.Request.Context(), &updated); err != nil {
		h.logger.Error("update event failed", zap.Error(err), zap.Int("event_id", id))
		response.Internal(c, "Failed to update event")
		return
	}
	response.OK(c, &updated)
}

// Delete handles DELETE /event/delete-event/:event_id. The stored image, if
// any, is scheduled for deferred deletion.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "Invalid event id")
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Event not found")
			return
		}
		response.Internal(c, "Failed to fetch event")
		return
	}

	h.scheduleImageCleanup(c.Request.Context(), existing.ImageURL)

	n, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "Failed to delete event")
		return
	}
	if n == 0 {
		response.NotFound(c, "Event not found")
		return
	}
	response.Message(c, "Event deleted successfully")
}

// bindUpdate reads an update request from JSON or multipart form. Multipart
// tags arrive as a comma-separated string; JSON tags as a pre-split array.
func (h *Handler) bindUpdate(c *gin.Context) (*UpdateEventRequest, *multipart.FileHeader, error) {
	var req UpdateEventRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, nil, errors.New("invalid request body")
		}
		return &req, nil, nil
	}

	if v, ok := c.GetPostForm("o_id"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, nil, errors.New("invalid o_id")
		}
		req.OID = &n
	}
	if v, ok := c.GetPostForm("name"); ok {
		req.Name = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		req.Description = &v
	}
	if v, ok := c.GetPostForm("date"); ok {
		req.Date = &v
	}
	if v, ok := c.GetPostForm("time"); ok {
		req.Time = &v
	}
	if v, ok := c.GetPostForm("location"); ok {
		req.Location = &v
	}
	if v, ok := c.GetPostForm("people_needed"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, nil, errors.New("invalid people_needed")
		}
		req.PeopleNeeded = &n
	}
	if v, ok := c.GetPostForm("link"); ok {
		req.Link = &v
	}
	if v, ok := c.GetPostForm("restricted"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, nil, errors.New("invalid restricted flag")
		}
		req.Restricted = &b
	}
	if v, ok := c.GetPostForm("tags"); ok {
		req.Tags = ParseTags(v)
	}

	file, err := imageFromForm(c)
	if err != nil {
		return nil, nil, err
	}
	return &req, file, nil
}

func (h *Handler) uploadImage(ctx context.Context, eventID int, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	key := storage.ImageKey(storage.FolderEvents, strconv.Itoa(eventID), fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fh.Filename)
	}
	return h.images.UploadImage(ctx, key, contentType, f, fh.Size)
}

// scheduleImageCleanup enqueues deferred deletion of the image behind url.
// Failures are logged only; cleanup never blocks the record mutation.
func (h *Handler) scheduleImageCleanup(ctx context.Context, url *string) {
	if url == nil || *url == "" {
		return
	}
	key := h.images.KeyFromURL(*url)
	if key == "" {
		return
	}
	if err := h.cleanup.EnqueueImageDelete(ctx, key); err != nil {
		h.logger.Warn("image cleanup enqueue failed", zap.Error(err), zap.String("key", key))
	}
}

// imageFromForm returns the optional "image" multipart file, validating size
// and type when present.
func imageFromForm(c *gin.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("invalid image upload")
	}
	if fh.Size > storage.MaxImageSize {
		return nil, errors.New("image exceeds 5MB limit")
	}
	if !storage.ValidateImageType(fh.Header.Get("Content-Type"), fh.Filename) {
		return nil, errors.New("invalid image type: only jpg, png, webp, gif allowed")
	}
	return fh, nil
}
