package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/serene-finance/serene/internal/common"
	"github.com/serene-finance/serene/internal/model"
)

// UpsertRule adds a categorization rule. When the pattern already exists the
// collision policy decides: overwrite replaces the category and priority in
// place, reject returns common.ErrDuplicatePattern. The rules version is
// bumped on every successful mutation so compiled snapshots know to refresh.
func (s *SQLiteStorage) UpsertRule(ctx context.Context, pattern, category string, priority int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRuleInput(pattern, category); err != nil {
		return err
	}

	var err error
	switch s.collisionPolicy {
	case RuleCollisionReject:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO rules (pattern, category, priority)
			VALUES (?, ?, ?)`,
			pattern, category, priority)
		if err != nil && isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", common.ErrDuplicatePattern, pattern)
		}
	default:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO rules (pattern, category, priority)
			VALUES (?, ?, ?)
			ON CONFLICT(pattern) DO UPDATE SET
				category = excluded.category,
				priority = excluded.priority`,
			pattern, category, priority)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert rule: %w", err)
	}

	s.rulesVersion.Add(1)
	return nil
}

// ListRules returns all rules in matcher evaluation order: priority DESC,
// then created_at DESC. The id tiebreak keeps the order stable when two
// rules share a creation timestamp.
func (s *SQLiteStorage) ListRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pattern, category, priority, created_at
		FROM rules
		ORDER BY priority DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		var rule model.Rule
		if err := rows.Scan(&rule.ID, &rule.Pattern, &rule.Category, &rule.Priority, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

// GetRule retrieves a single rule by pattern.
func (s *SQLiteStorage) GetRule(ctx context.Context, pattern string) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(pattern, "pattern"); err != nil {
		return nil, err
	}

	var rule model.Rule
	err := s.db.QueryRowContext(ctx, `
		SELECT id, pattern, category, priority, created_at
		FROM rules
		WHERE pattern = ?`,
		pattern).Scan(&rule.ID, &rule.Pattern, &rule.Category, &rule.Priority, &rule.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: rule %q", common.ErrNotFound, pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return &rule, nil
}

// DeleteRule removes a rule by id, reporting whether it existed.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	s.rulesVersion.Add(1)
	return true, nil
}

// RulesVersion returns a counter that moves on every rule mutation.
func (s *SQLiteStorage) RulesVersion() int64 {
	return s.rulesVersion.Load()
}

// isUniqueViolation reports whether the error is a SQLite UNIQUE constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
