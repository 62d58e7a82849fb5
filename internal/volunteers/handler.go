package volunteers

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

// Store is the volunteer persistence surface the handler depends on.
type Store interface {
	List(ctx context.Context) ([]models.VolunteerProfile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.VolunteerProfile, error)
	CreateWithProfile(ctx context.Context, p *models.UserProfile, v *models.Volunteer) error
	UpdateWithProfile(ctx context.Context, p *models.UserProfile, v *models.Volunteer) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
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

// Handler handles volunteer HTTP endpoints.
type Handler struct {
	repo    Store
	images  ImageStore
	cleanup Cleanup
	logger  *zap.Logger
}

// NewHandler creates a volunteers handler.
func NewHandler(repo Store, images ImageStore, cleanup Cleanup, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, images: images, cleanup: cleanup, logger: logger}
}

// volunteerForm carries the volunteer fields from a JSON body or multipart
// form. Skills, interests, availability and experience are JSON blobs
// serialized by the frontend.
type volunteerForm struct {
	AuthID       string  `json:"auth_id"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Age          *int    `json:"age"`
	Skills       *string `json:"skills"`
	Interests    *string `json:"interests"`
	Availability *string `json:"availability"`
	Experience   *string `json:"experience"`
}

// List handles GET /volunteer/get-volunteers.
func (h *Handler) List(c *gin.Context) {
	volunteers, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "Failed to fetch volunteers")
		return
	}
	if volunteers == nil {
		volunteers = []models.VolunteerProfile{}
	}
	response.OK(c, volunteers)
}

// GetByID handles GET /volunteer/get-volunteer/:v_id. The volunteer id is
// the identity subject id, so get-volunteer-by-auth shares this handler.
func (h *Handler) GetByID(c *gin.Context) {
	h.getByParam(c, "v_id")
}

// GetByAuthID handles GET /volunteer/get-volunteer-by-auth/:auth_id.
func (h *Handler) GetByAuthID(c *gin.Context) {
	h.getByParam(c, "auth_id")
}

func (h *Handler) getByParam(c *gin.Context, param string) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "Invalid volunteer id")
		return
	}
	volunteer, err := h.repo.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Volunteer not found")
			return
		}
		response.Internal(c, "Failed to fetch volunteer")
		return
	}
	response.OK(c, volunteer)
}

// Create handles POST /volunteer/create-volunteer. The image upload is
// best-effort: on failure the record is created without an image.
func (h *Handler) Create(c *gin.Context) {
	form, file, err := bindForm(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	authID, err := uuid.Parse(form.AuthID)
	if err != nil {
		response.BadRequest(c, "auth_id required")
		return
	}

	var imageURL *string
	if file != nil {
		url, err := h.uploadImage(c.Request.Context(), authID, file)
		if err != nil {
			h.logger.Warn("volunteer image upload failed, creating without image",
				zap.Error(err), zap.String("v_id", authID.String()))
		} else {
			imageURL = &url
		}
	}

	profile := &models.UserProfile{
		UserID:    authID,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		ImageURL:  imageURL,
	}
	volunteer := &models.Volunteer{VID: authID, Age: form.Age}
	if err := h.repo.CreateWithProfile(c.Request.Context(), profile, volunteer); err != nil {
		h.logger.Error("create volunteer failed", zap.Error(err), zap.String("v_id", authID.String()))
		response.Internal(c, "Failed to create volunteer")
		return
	}
	response.Created(c, volunteer)
}

// Update handles PUT /volunteer/update-volunteer/:v_id. Name, phone, email
// and age must all be present; profile and volunteer fields are written in
// one transaction and the joined record is re-read and returned.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("v_id"))
	if err != nil {
		response.BadRequest(c, "Invalid volunteer id")
		return
	}
	form, file, err := bindForm(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if form.FirstName == "" || form.LastName == "" || form.Phone == "" || form.Email == "" || form.Age == nil {
		response.BadRequest(c, "Missing required fields")
		return
	}

	existing, err := h.repo.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Volunteer not found")
			return
		}
		response.Internal(c, "Failed to fetch volunteer")
		return
	}

	imageURL := existing.ImageURL
	if file != nil {
		url, err := h.uploadImage(c.Request.Context(), id, file)
		if err != nil {
			h.logger.Error("volunteer image upload failed", zap.Error(err), zap.String("v_id", id.String()))
			response.Internal(c, "Failed to upload image")
			return
		}
		h.scheduleImageCleanup(c.Request.Context(), existing.ImageURL)
		imageURL = &url
	}

	profile := &models.UserProfile{
		UserID:    id,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		ImageURL:  imageURL,
	}
	volunteer := &models.Volunteer{
		VID:          id,
		Age:          form.Age,
		Skills:       stringOr(form.Skills, existing.Skills),
		Interests:    stringOr(form.Interests, existing.Interests),
		Availability: stringOr(form.Availability, existing.Availability),
		Experience:   stringOr(form.Experience, existing.Experience),
	}
	if err := h.repo.UpdateWithProfile(c.Request.Context(), profile, volunteer); err != nil {
		h.logger.Error("update volunteer failed", zap.Error(err), zap.String("v_id", id.String()))
		response.Internal(c, "Failed to update volunteer")
		return
	}

	updated, err := h.repo.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "Failed to fetch volunteer")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /volunteer/delete-volunteer/:v_id. Removes the
// volunteer row only; the shared profile row is kept. The stored image is
// scheduled for deferred deletion.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("v_id"))
	if err != nil {
		response.BadRequest(c, "Invalid volunteer id")
		return
	}
	existing, err := h.repo.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "Volunteer not found")
			return
		}
		response.Internal(c, "Failed to fetch volunteer")
		return
	}

	h.scheduleImageCleanup(c.Request.Context(), existing.ImageURL)

	n, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "Failed to delete volunteer")
		return
	}
	if n == 0 {
		response.NotFound(c, "Volunteer not found")
		return
	}
	response.Message(c, "Volunteer deleted successfully")
}

func bindForm(c *gin.Context) (*volunteerForm, *multipart.FileHeader, error) {
	var form volunteerForm
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&form); err != nil {
			return nil, nil, errors.New("invalid request body")
		}
		return &form, nil, nil
	}

	form.AuthID = c.PostForm("auth_id")
	form.FirstName = c.PostForm("first_name")
	form.LastName = c.PostForm("last_name")
	form.Email = c.PostForm("email")
	form.Phone = c.PostForm("phone")
	if v, ok := c.GetPostForm("age"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, nil, errors.New("invalid age")
		}
		form.Age = &n
	}
	if v, ok := c.GetPostForm("skills"); ok {
		form.Skills = &v
	}
	if v, ok := c.GetPostForm("interests"); ok {
		form.Interests = &v
	}
	if v, ok := c.GetPostForm("availability"); ok {
		form.Availability = &v
	}
	if v, ok := c.GetPostForm("experience"); ok {
		form.Experience = &v
	}

	file, err := imageFromForm(c)
	if err != nil {
		return nil, nil, err
	}
	return &form, file, nil
}

func (h *Handler) uploadImage(ctx context.Context, id uuid.UUID, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	key := storage.ImageKey(storage.FolderVolunteers, id.String(), fh.Filename)
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

func stringOr(v *string, fallback string) string {
	if v != nil {
		return *v
	}
	return fallback
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
