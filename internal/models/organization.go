package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is an entity that posts volunteer events.
type Organization struct {
	OID         int        `json:"o_id"`
	AuthID      *uuid.UUID `json:"auth_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Email       string     `json:"email"`
	Website     *string    `json:"website"`
	ImageURL    *string    `json:"image_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
