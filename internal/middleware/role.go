package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/volunteerhub/backend/pkg/response"
)

// ErrRoleNotFound is returned when a subject matches neither the volunteer
// nor the organization table.
var ErrRoleNotFound = errors.New("user not found")

// RoleStore resolves the caller's role from persistence. The lookup checks
// volunteers before organizations; a subject present in both resolves to
// volunteer.
type RoleStore interface {
	ResolveRole(ctx context.Context, authID uuid.UUID) (string, error)
}

// RequireRole returns a middleware that resolves the caller's role and
// allows only the given roles. Runs after Identity.
func RequireRole(store RoleStore, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		idVal, ok := c.Get(ContextAuthID)
		if !ok {
			response.Unauthorized(c, "Unauthorized")
			c.Abort()
			return
		}
		authID := idVal.(uuid.UUID)
		role, err := store.ResolveRole(c.Request.Context(), authID)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				response.NotFound(c, "User not found")
			} else {
				response.Internal(c, "Error checking authorization")
			}
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "Forbidden")
			c.Abort()
			return
		}
		c.Set(ContextUserRole, role)
		c.Next()
	}
}
