package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds identity fields shared across account types, keyed by
// the externally issued subject id.
type UserProfile struct {
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	ImageURL  *string   `json:"image_url"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Volunteer holds volunteer-specific fields. Skills, interests, availability
// and experience are JSON blobs serialized by the frontend; the backend
// stores them as opaque text.
type Volunteer struct {
	VID          uuid.UUID `json:"v_id"`
	Age          *int      `json:"age"`
	Skills       string    `json:"skills"`
	Interests    string    `json:"interests"`
	Availability string    `json:"availability"`
	Experience   string    `json:"experience"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VolunteerProfile is the joined volunteer + shared profile record returned
// by the volunteer endpoints.
type VolunteerProfile struct {
	Volunteer
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	ImageURL  *string `json:"image_url"`
}
