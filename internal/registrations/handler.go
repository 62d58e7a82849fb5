package registrations

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/pkg/response"
)

// Store is the registration persistence surface the handler depends on.
type Store interface {
	List(ctx context.Context) ([]models.Registration, error)
	ListByVolunteer(ctx context.Context, vid uuid.UUID) ([]models.Registration, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.Registration, error)
	Create(ctx context.Context, reg *models.Registration) error
	Approve(ctx context.Context, vid uuid.UUID, eventID int) (int64, error)
	Delete(ctx context.Context, vid uuid.UUID, eventID int) (int64, error)
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(repo Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreateRegistrationRequest is the body for POST /registration/create-registration.
type CreateRegistrationRequest struct {
	VID     uuid.UUID `json:"v_id" binding:"required"`
	EventID int       `json:"event_id" binding:"required"`
}

// List handles GET /registration/get-registrations.
func (h *Handler) List(c *gin.Context) {
	regs, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "Failed to fetch registrations")
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	response.OK(c, regs)
}

// ListByVolunteer handles GET /registration/get-user-registrations/:v_id.
func (h *Handler) ListByVolunteer(c *gin.Context) {
	vid, err := uuid.Parse(c.Param("v_id"))
	if err != nil {
		response.BadRequest(c, "Invalid volunteer id")
		return
	}
	regs, err := h.repo.ListByVolunteer(c.Request.Context(), vid)
	if err != nil {
		response.Internal(c, "Failed to fetch registrations")
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	response.OK(c, regs)
}

// ListByEvent handles GET /registration/get-event-registrations/:event_id.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "Invalid event id")
		return
	}
	regs, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "Failed to fetch registrations")
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	response.OK(c, regs)
}

// Create handles POST /registration/create-registration.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "v_id and event_id required")
		return
	}
	reg := &models.Registration{VID: req.VID, EventID: req.EventID}
	if err := h.repo.Create(c.Request.Context(), reg); err != nil {
		h.logger.Error("create registration failed", zap.Error(err),
			zap.String("v_id", req.VID.String()), zap.Int("event_id", req.EventID))
		response.Internal(c, "Failed to create registration")
		return
	}
	response.Created(c, reg)
}

// Approve handles PUT /registration/approve-registration/:v_id/:event_id.
func (h *Handler) Approve(c *gin.Context) {
	vid, eventID, ok := compositeKey(c)
	if !ok {
		return
	}
	n, err := h.repo.Approve(c.Request.Context(), vid, eventID)
	if err != nil {
		response.Internal(c, "Failed to approve registration")
		return
	}
	if n == 0 {
		response.NotFound(c, "Registration not found")
		return
	}
	response.Message(c, "Registration approved")
}

// Delete handles DELETE /registration/delete-registration/:v_id/:event_id.
func (h *Handler) Delete(c *gin.Context) {
	vid, eventID, ok := compositeKey(c)
	if !ok {
		return
	}
	n, err := h.repo.Delete(c.Request.Context(), vid, eventID)
	if err != nil {
		response.Internal(c, "Failed to delete registration")
		return
	}
	if n == 0 {
		response.NotFound(c, "Registration not found")
		return
	}
	response.Message(c, "Registration deleted successfully")
}

func compositeKey(c *gin.Context) (uuid.UUID, int, bool) {
	vid, err := uuid.Parse(c.Param("v_id"))
	if err != nil {
		response.BadRequest(c, "Invalid volunteer id")
		return uuid.Nil, 0, false
	}
	eventID, err := strconv.Atoi(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "Invalid event id")
		return uuid.Nil, 0, false
	}
	return vid, eventID, true
}
