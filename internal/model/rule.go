// Package model defines the core data structures for the serene application.
package model

import (
	"strings"
	"time"
)

// Rule maps a label pattern to a spending category with a priority.
// Pattern is the natural key: re-adding an existing pattern updates the
// category and priority for that pattern (subject to the store's collision
// policy).
type Rule struct {
	CreatedAt time.Time `json:"created_at"`
	Pattern   string    `json:"pattern"`
	Category  string    `json:"category"`
	Priority  int       `json:"priority"`
	ID        int       `json:"id"`
}

// NormalizedPattern returns the pattern trimmed and lowercased, the form the
// auditor groups and compares on.
func (r Rule) NormalizedPattern() string {
	return strings.ToLower(strings.TrimSpace(r.Pattern))
}
