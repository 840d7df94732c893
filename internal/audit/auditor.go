// Package audit analyzes a rule set for logical defects and summarizes its
// quality as a 0-100 health score. The analysis is advisory: it never
// blocks classification and never mutates the rule store.
package audit

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/serene-finance/serene/internal/model"
)

// Health score penalties per issue.
const (
	conflictPenalty  = 15
	duplicatePenalty = 5
	overlapPenalty   = 8
	vaguePenalty     = 10
	stalePenalty     = 2
)

// StaleAfter is the age past which a rule is flagged for review.
const StaleAfter = 180 * 24 * time.Hour

// vagueMaxLen is the length below which a purely alphabetic pattern is
// considered too generic to be safe.
const vagueMaxLen = 3

// Analyze inspects the rule set for conflicts, duplicates, overlaps, vague
// patterns and stale rules, and computes the health score. Pure and
// deterministic for a fixed evaluation time.
//
// The overlap scan is O(n²) over the rule set, acceptable for rule counts
// in the low thousands; callers with tens of thousands of rules should
// consider length-bucketed pruning before this becomes the bottleneck.
func Analyze(rules []model.Rule, now time.Time) model.AuditReport {
	report := model.AuditReport{Score: 100}
	if len(rules) == 0 {
		return report
	}

	report.Conflicts, report.Duplicates = findPatternGroups(rules)
	report.Overlaps = findOverlaps(rules)

	staleBefore := now.Add(-StaleAfter)
	for _, rule := range rules {
		if isVague(rule.Pattern) {
			report.Vague = append(report.Vague, model.Vague{
				Pattern:  rule.Pattern,
				Category: rule.Category,
				RuleID:   rule.ID,
			})
		}
		if !rule.CreatedAt.IsZero() && rule.CreatedAt.Before(staleBefore) {
			report.Stale = append(report.Stale, model.Stale{
				Pattern:   rule.Pattern,
				Category:  rule.Category,
				RuleID:    rule.ID,
				CreatedAt: rule.CreatedAt,
			})
		}
	}

	report.Score = score(report)

	return report
}

// findPatternGroups groups rules by normalized pattern and classifies each
// multi-member group: distinct categories make a Conflict, identical ones a
// Duplicate.
func findPatternGroups(rules []model.Rule) ([]model.Conflict, []model.Duplicate) {
	groups := make(map[string][]model.Rule)
	order := make([]string, 0, len(rules))
	for _, rule := range rules {
		key := rule.NormalizedPattern()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rule)
	}

	var conflicts []model.Conflict
	var duplicates []model.Duplicate

	for _, pattern := range order {
		group := groups[pattern]
		if len(group) < 2 {
			continue
		}

		ids := make([]int, 0, len(group))
		var categories []string
		seen := make(map[string]bool)
		for _, rule := range group {
			ids = append(ids, rule.ID)
			if !seen[rule.Category] {
				seen[rule.Category] = true
				categories = append(categories, rule.Category)
			}
		}

		if len(categories) > 1 {
			conflicts = append(conflicts, model.Conflict{
				Pattern:    pattern,
				Categories: categories,
				RuleIDs:    ids,
			})
		} else {
			duplicates = append(duplicates, model.Duplicate{
				Pattern:  pattern,
				Category: categories[0],
				RuleIDs:  ids,
			})
		}
	}

	return conflicts, duplicates
}

// findOverlaps flags every pair where a shorter pattern is contained in a
// longer one and the categories differ. Rules are scanned in
// normalized-length ascending order so the containment test only runs one
// way per pair.
func findOverlaps(rules []model.Rule) []model.Overlap {
	sorted := make([]model.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].NormalizedPattern()) < len(sorted[j].NormalizedPattern())
	})

	var overlaps []model.Overlap
	for i, shorter := range sorted {
		shorterNorm := shorter.NormalizedPattern()
		for _, longer := range sorted[i+1:] {
			if shorter.Category == longer.Category {
				continue
			}
			if shorterNorm != "" && strings.Contains(longer.NormalizedPattern(), shorterNorm) {
				overlaps = append(overlaps, model.Overlap{
					ShorterPattern:  shorter.Pattern,
					ShorterCategory: shorter.Category,
					LongerPattern:   longer.Pattern,
					LongerCategory:  longer.Category,
				})
			}
		}
	}

	return overlaps
}

// isVague reports whether the pattern is purely alphabetic and shorter than
// three characters.
func isVague(pattern string) bool {
	runes := []rune(pattern)
	if len(runes) == 0 || len(runes) >= vagueMaxLen {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// score applies the weighted penalties and clamps to [0, 100].
func score(report model.AuditReport) int {
	s := 100
	s -= len(report.Conflicts) * conflictPenalty
	s -= len(report.Duplicates) * duplicatePenalty
	s -= len(report.Overlaps) * overlapPenalty
	s -= len(report.Vague) * vaguePenalty
	s -= len(report.Stale) * stalePenalty

	if s < 0 {
		return 0
	}
	return s
}
