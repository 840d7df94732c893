package model

import (
	"sort"
	"strings"
	"time"
)

// Transaction represents a single statement row, from CSV or OFX, as it
// flows through classification and import.
type Transaction struct {
	Date             time.Time `json:"date"`
	Label            string    `json:"label"`
	OriginalCategory string    `json:"original_category,omitempty"`
	AccountID        string    `json:"account_id,omitempty"`
	AccountLabel     string    `json:"account_label,omitempty"`
	Member           string    `json:"member,omitempty"`
	CardSuffix       string    `json:"card_suffix,omitempty"`
	Category         string    `json:"category,omitempty"`
	Source           string    `json:"source,omitempty"`
	Status           string    `json:"status,omitempty"`
	Tags             Tags      `json:"tags,omitempty"`
	Amount           float64   `json:"amount"`
	Confidence       float64   `json:"confidence,omitempty"`
	ID               int64     `json:"id,omitempty"`
}

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusValidated = "validated"
)

// Signature identifies "the same transaction" for deduplication. It is
// intentionally not a uniqueness key: two identical same-day purchases
// legitimately share a signature.
type Signature struct {
	Date   string
	Label  string
	Amount float64
}

// Signature returns the transaction's deduplication signature.
func (t Transaction) Signature() Signature {
	return Signature{
		Date:   t.Date.Format("2006-01-02"),
		Label:  t.Label,
		Amount: t.Amount,
	}
}

// Tags is an ordered, deduplicated tag collection. Tags are normalized to
// lowercase on insertion; insertion order is preserved.
type Tags []string

// ParseTags splits a comma-separated tag string into a normalized Tags
// collection.
func ParseTags(s string) Tags {
	var tags Tags
	for _, part := range strings.Split(s, ",") {
		tags = tags.Add(part)
	}
	return tags
}

// Add returns the collection with the tag appended, unless it is empty or
// already present.
func (t Tags) Add(tag string) Tags {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return t
	}
	for _, existing := range t {
		if existing == tag {
			return t
		}
	}
	return append(t, tag)
}

// Merge adds every tag from other, preserving existing order.
func (t Tags) Merge(other Tags) Tags {
	for _, tag := range other {
		t = t.Add(tag)
	}
	return t
}

// Sorted returns a sorted copy, the canonical form used for persistence.
func (t Tags) Sorted() Tags {
	out := make(Tags, len(t))
	copy(out, t)
	sort.Strings(out)
	return out
}

// String renders the collection as a comma-separated list.
func (t Tags) String() string {
	return strings.Join(t, ", ")
}
