package users

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/pkg/response"
)

// Store is the user profile lookup surface the handler depends on.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
}

// Handler handles user profile HTTP endpoints.
type Handler struct {
	repo Store
}

// NewHandler creates a users handler.
func NewHandler(repo Store) *Handler {
	return &Handler{repo: repo}
}

// GetByID handles GET /user/get-user/:u_id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("u_id"))
	if err != nil {
		response.BadRequest(c, "Invalid user id")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "User not found")
			return
		}
		response.Internal(c, "Failed to fetch user")
		return
	}
	response.OK(c, user)
}
