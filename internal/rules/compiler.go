// Package rules turns persisted categorization rules into immutable,
// priority-ordered compiled snapshots and evaluates labels against them.
package rules

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/serene-finance/serene/internal/model"
)

// CompiledRule is a rule resolved once into its matcher variant: a
// case-insensitive regular expression, or case-insensitive substring
// containment when the pattern is not valid regex syntax. The variant is
// fixed at compile time so the hot path never branches on compilation
// failures.
type CompiledRule struct {
	CreatedAt time.Time
	re        *regexp.Regexp // nil when the substring fallback is in effect
	substring string         // uppercased original pattern
	Pattern   string
	Category  string
	Priority  int
	ID        int
}

// IsRegex reports whether the pattern compiled as a regular expression.
func (r CompiledRule) IsRegex() bool {
	return r.re != nil
}

// matches evaluates the rule against an already-uppercased label.
func (r CompiledRule) matches(labelUpper string) bool {
	if r.re != nil {
		return r.re.MatchString(labelUpper)
	}
	return strings.Contains(labelUpper, r.substring)
}

// Snapshot is an immutable compiled view of the rule set, tied to the
// rule-set version it was built from. Safe for concurrent readers.
type Snapshot struct {
	rules   []CompiledRule
	version int64
}

// Compile builds a snapshot from raw rules. Rules are ordered by priority
// descending, then creation time descending, so equal-priority ties favor
// the more recently created rule. Patterns that fail to compile as regex
// degrade to substring matching over the same pattern string; compilation
// never fails.
func Compile(raw []model.Rule, version int64) *Snapshot {
	compiled := make([]CompiledRule, 0, len(raw))
	for _, rule := range raw {
		cr := CompiledRule{
			ID:        rule.ID,
			Pattern:   rule.Pattern,
			Category:  rule.Category,
			Priority:  rule.Priority,
			CreatedAt: rule.CreatedAt,
		}

		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			slog.Debug("rule pattern is not valid regex, using substring matching",
				"rule_id", rule.ID,
				"pattern", rule.Pattern)
			cr.substring = strings.ToUpper(rule.Pattern)
		} else {
			cr.re = re
		}

		compiled = append(compiled, cr)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].Priority != compiled[j].Priority {
			return compiled[i].Priority > compiled[j].Priority
		}
		return compiled[i].CreatedAt.After(compiled[j].CreatedAt)
	})

	return &Snapshot{rules: compiled, version: version}
}

// Version returns the rule-set version the snapshot was compiled from.
func (s *Snapshot) Version() int64 {
	return s.version
}

// Len returns the number of compiled rules.
func (s *Snapshot) Len() int {
	return len(s.rules)
}

// Rules returns the compiled rules in evaluation order.
func (s *Snapshot) Rules() []CompiledRule {
	return s.rules
}
