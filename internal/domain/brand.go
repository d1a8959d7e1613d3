package domain

import "time"

// Brand maps a brand name found in campaign names to its industry.
type Brand struct {
	Brand     string    `json:"brand"`
	Industry  string    `json:"industry"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
