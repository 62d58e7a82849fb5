package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration links a volunteer to an event, with an approval flag set by
// the organization. Identity is the (v_id, event_id) pair.
type Registration struct {
	VID       uuid.UUID `json:"v_id"`
	EventID   int       `json:"event_id"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}
