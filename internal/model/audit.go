package model

import "time"

// Conflict reports two or more rules sharing a normalized pattern but
// mapping to different categories.
type Conflict struct {
	Pattern    string   `json:"pattern"`
	Categories []string `json:"categories"`
	RuleIDs    []int    `json:"rule_ids"`
}

// Duplicate reports the same pattern+category pair defined more than once.
type Duplicate struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
	RuleIDs  []int  `json:"rule_ids"`
}

// Overlap reports one rule's pattern contained in another's with a
// different category.
type Overlap struct {
	ShorterPattern  string `json:"shorter_pattern"`
	ShorterCategory string `json:"shorter_category"`
	LongerPattern   string `json:"longer_pattern"`
	LongerCategory  string `json:"longer_category"`
}

// Vague reports a pattern too short and generic to be safe.
type Vague struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
	RuleID   int    `json:"rule_id"`
}

// Stale reports a rule old enough to deserve review.
type Stale struct {
	CreatedAt time.Time `json:"created_at"`
	Pattern   string    `json:"pattern"`
	Category  string    `json:"category"`
	RuleID    int       `json:"rule_id"`
}

// AuditReport is the transient result of a rule-set integrity analysis.
// It is recomputed on demand and never persisted.
type AuditReport struct {
	Conflicts  []Conflict  `json:"conflicts"`
	Duplicates []Duplicate `json:"duplicates"`
	Overlaps   []Overlap   `json:"overlaps"`
	Vague      []Vague     `json:"vague"`
	Stale      []Stale     `json:"stale"`
	Score      int         `json:"score"`
}

// IssueCount returns the total number of issues across all variants.
func (r AuditReport) IssueCount() int {
	return len(r.Conflicts) + len(r.Duplicates) + len(r.Overlaps) + len(r.Vague) + len(r.Stale)
}
