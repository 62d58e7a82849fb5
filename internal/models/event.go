package models

import "time"

// Event is a volunteer opportunity posted by an organization (or pulled in
// by an ingestion source). Date and time are exchanged as "YYYY-MM-DD" and
// "HH:MM:SS" strings.
type Event struct {
	EventID      int       `json:"event_id"`
	OID          int       `json:"o_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Location     string    `json:"location"`
	PeopleNeeded int       `json:"people_needed"`
	Tags         []string  `json:"tags"`
	ImageURL     *string   `json:"image_url"`
	Link         *string   `json:"link,omitempty"`
	Restricted   bool      `json:"restricted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
