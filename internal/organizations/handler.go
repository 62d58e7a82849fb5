package organizations

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/pkg/response"
	"github.com/volunteerhub/backend/pkg/storage"
)

// Store is the organization persistence surface the handler depends on.
type Store interface {
	List(ctx context.Context) ([]models.Organization, error)
	GetByID(ctx context.Context, id int) (*models.Organization, error)
	GetByAuthID(ctx context.Context, authID uuid.UUID) (*models.Organization, error)
	Create(ctx context.Context, o *models.Organization) error
	Update(ctx context.Context, o *models.Organization) error
	Delete(ctx context.Context, id int) (int64, error)
}

// ImageStore uploads image bytes and resolves stored keys from public URLs.
type ImageStore interface {
	UploadImage(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	KeyFromURL(url string) string
}

// Cleanup schedules deferred deletion of replaced or orphaned image keys.
type Cleanup interface {
	EnqueueImageDelete(ctx context.Context, key string) error
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo    Store
	images  ImageStore
	cleanup Cleanup
	logger  *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(repo Store, images ImageStore, cleanup Cleanup, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, images: images, cleanup: cleanup, logger: logger}
}

// CreateOrganizationRequest is the body for POST /organization/create-organization.
type CreateOrganizationRequest struct {
	AuthID      *uuid.UUID `json:"auth_id"`
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Email       string     `json:"email"`
	Website     *string    `json:"website"`
}

// UpdateOrganizationRequest carries the updatable organization fields.
type UpdateOrganizationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Email       *string `json:"email"`
	Website     *string `json:"website"`
}

// List handles GET /organization/get-organizations.
func (h *Handler) List(c *gin.Context) {
	orgs, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "Failed to fetch organizations")
		return
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}
	response.OK(c, orgs)
}

// GetByID handles GET /organization/get-organization/:o_id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("o_id"))
	if err != nil {
		response.BadRequest(c, "Invalid organization id")
		return
	}
	org, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Organization not found")
			return
		}
		response.Internal(c, "Failed to fetch organization")
		return
	}
	response.OK(c, org)
}

// GetByAuthID handles GET /organization/get-organization-by-auth/:auth_id.
func (h *Handler) GetByAuthID(c *gin.Context) {
	authID, err := uuid.Parse(c.Param("auth_id"))
	if err != nil {
		response.BadRequest(c, "Invalid auth id")
		return
	}
	org, err := h.repo.GetByAuthID(c.Request.Context(), authID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Organization not found")
			return
		}
		response.Internal(c, "Failed to fetch organization")
		return
	}
	response.OK(c, org)
}

// Create handles POST /organization/create-organization.
func (h *Handler) Create(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	org := &models.Organization{
		AuthID:      req.AuthID,
		Name:        req.Name,
		Description: req.Description,
		Email:       req.Email,
		Website:     req.Website,
	}
	if err := h.repo.Create(c.Request.Context(), org); err != nil {
		h.logger.Error("create organization failed", zap.Error(err))
		response.Internal(c, "Failed to create organization")
		return
	}
	response.Created(c, org)
}

// Update handles PUT /organization/update-organization/:o_id. Accepts JSON or
// a multipart form with an optional image file.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("o_id"))
	if err != nil {
		response.BadRequest(c, "Invalid organization id")
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Organization not found")
			return
		}
		response.Internal(c, "Failed to fetch organization")
		return
	}

	req, file, err := bindUpdate(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Email != nil {
		updated.Email = *req.Email
	}
	if req.Website != nil {
		updated.Website = req.Website
	}

	if file != nil {
		url, err := h.uploadImage(c.Request.Context(), id, file)
		if err != nil {
			h.logger.Error("organization image upload failed", zap.Error(err), zap.Int("o_id", id))
			response.Internal(c, "Failed to upload image")
			return
		}
		h.scheduleImageCleanup(c.Request.Context(), existing.ImageURL)
		updated.ImageURL = &url
	}

	if err := h.repo.Update(c.Request.Context(), &updated); err != nil {
		h.logger.Error("update organization failed", zap.Error(err), zap.Int("o_id", id))
		response.Internal(c, "Failed to update organization")
		return
	}
	response.OK(c, &updated)
}

// Delete handles DELETE /organization/delete-organization/:o_id. The stored
// image, if any, is scheduled for deferred deletion.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("o_id"))
	if err != nil {
		response.BadRequest(c, "Invalid organization id")
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Organization not found")
			return
		}
		response.Internal(c, "Failed to fetch organization")
		return
	}

	h.scheduleImageCleanup(c.Request.Context(), existing.ImageURL)

	n, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "Failed to delete organization")
		return
	}
	if n == 0 {
		response.NotFound(c, "Organization not found")
		return
	}
	response.Message(c, "Organization deleted successfully")
}

func bindUpdate(c *gin.Context) (*UpdateOrganizationRequest, *multipart.FileHeader, error) {
	var req UpdateOrganizationRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, nil, errors.New("invalid request body")
		}
		return &req, nil, nil
	}
	if v, ok := c.GetPostForm("name"); ok {
		req.Name = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		req.Description = &v
	}
	if v, ok := c.GetPostForm("email"); ok {
		req.Email = &v
	}
	if v, ok := c.GetPostForm("website"); ok {
		req.Website = &v
	}
	file, err := imageFromForm(c)
	if err != nil {
		return nil, nil, err
	}
	return &req, file, nil
}

func (h *Handler) uploadImage(ctx context.Context, orgID int, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	key := storage.ImageKey(storage.FolderOrganizations, strconv.Itoa(orgID), fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fh.Filename)
	}
	return h.images.UploadImage(ctx, key, contentType, f, fh.Size)
}

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
