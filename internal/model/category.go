package model

import "time"

// Category is an entry in the category catalog. The classification engine
// treats category names as opaque strings; the catalog exists for display
// and validation in the surrounding application.
type Category struct {
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	ID        int       `json:"id"`
	IsActive  bool      `json:"is_active"`
}
