package storage

import (
	"context"
	"fmt"

	"github.com/serene-finance/serene/internal/common"
	"github.com/serene-finance/serene/internal/model"
)

// GetCategories returns all active categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_active, created_at
		FROM categories
		WHERE is_active = 1
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.IsActive, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// AddCategory creates a new active category. Re-adding an existing name
// reactivates it.
func (s *SQLiteStorage) AddCategory(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, is_active)
		VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET is_active = 1`,
		name)
	if err != nil {
		return fmt.Errorf("failed to add category: %w", err)
	}
	return nil
}

// DeactivateCategory hides a category from the catalog without touching
// transactions already classified under it.
func (s *SQLiteStorage) DeactivateCategory(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories SET is_active = 0 WHERE name = ?`,
		name)
	if err != nil {
		return fmt.Errorf("failed to deactivate category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: category %q", common.ErrNotFound, name)
	}
	return nil
}
