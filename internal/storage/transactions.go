package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/serene-finance/serene/internal/model"
)

// dateLayout is the canonical stored form of a transaction date. Signatures
// compare on this string so deduplication is stable across time zones.
const dateLayout = "2006-01-02"

// dbExecutor abstracts *sql.DB and *sql.Tx so query helpers work in and out
// of transactions.
type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// CountBySignature counts persisted transactions matching the signature.
func (s *SQLiteStorage) CountBySignature(ctx context.Context, sig model.Signature) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return countBySignature(ctx, s.db, sig)
}

func countBySignature(ctx context.Context, db dbExecutor, sig model.Signature) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM transactions
		WHERE date = ? AND label = ? AND amount = ?`,
		sig.Date, sig.Label, sig.Amount).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count by signature: %w", err)
	}
	return count, nil
}

// BulkInsert inserts the given transactions.
func (s *SQLiteStorage) BulkInsert(ctx context.Context, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(txns); err != nil {
		return err
	}
	return bulkInsert(ctx, s.db, txns)
}

func bulkInsert(ctx context.Context, db dbExecutor, txns []model.Transaction) error {
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO transactions (
			date, label, amount, original_category, account_id, account_label,
			member, card_suffix, category, source, confidence, status, tags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, txn := range txns {
		status := txn.Status
		if status == "" {
			status = model.StatusPending
		}

		_, err := stmt.ExecContext(ctx,
			txn.Date.Format(dateLayout),
			txn.Label,
			txn.Amount,
			txn.OriginalCategory,
			txn.AccountID,
			txn.AccountLabel,
			txn.Member,
			txn.CardSuffix,
			txn.Category,
			txn.Source,
			txn.Confidence,
			status,
			txn.Tags.Sorted().String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction at index %d: %w", i, err)
		}
	}

	return nil
}

// ListTransactions returns transactions in an optional date range, newest
// first. Zero bounds are open-ended.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, date, label, amount, original_category, account_id, account_label,
			member, card_suffix, category, source, confidence, status, tags
		FROM transactions`
	var args []any
	switch {
	case !start.IsZero() && !end.IsZero():
		query += ` WHERE date >= ? AND date <= ?`
		args = append(args, start.Format(dateLayout), end.Format(dateLayout))
	case !start.IsZero():
		query += ` WHERE date >= ?`
		args = append(args, start.Format(dateLayout))
	case !end.IsZero():
		query += ` WHERE date <= ?`
		args = append(args, end.Format(dateLayout))
	}
	query += ` ORDER BY date DESC, id DESC`

	return s.queryTransactions(ctx, query, args...)
}

// ListUnclassified returns transactions whose category is empty or Unknown,
// oldest first so re-classification replays statement order.
func (s *SQLiteStorage) ListUnclassified(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx, `
		SELECT id, date, label, amount, original_category, account_id, account_label,
			member, card_suffix, category, source, confidence, status, tags
		FROM transactions
		WHERE category IS NULL OR category = '' OR category = ?
		ORDER BY date ASC, id ASC`,
		model.CategoryUnknown)
}

// UpdateClassification persists a classification result for a stored
// transaction.
func (s *SQLiteStorage) UpdateClassification(ctx context.Context, id int64, c model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(c.Category, "category"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, source = ?, confidence = ?
		WHERE id = ?`,
		c.Category, c.Source, c.Confidence, id)
	if err != nil {
		return fmt.Errorf("failed to update classification: %w", err)
	}
	return nil
}

// GetTransactionCount returns the total number of stored transactions.
func (s *SQLiteStorage) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var (
		txn              model.Transaction
		date             string
		originalCategory sql.NullString
		accountID        sql.NullString
		accountLabel     sql.NullString
		member           sql.NullString
		cardSuffix       sql.NullString
		category         sql.NullString
		source           sql.NullString
		status           sql.NullString
		tags             sql.NullString
	)

	err := rows.Scan(&txn.ID, &date, &txn.Label, &txn.Amount, &originalCategory,
		&accountID, &accountLabel, &member, &cardSuffix, &category, &source,
		&txn.Confidence, &status, &tags)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Date, err = time.Parse(dateLayout, date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to parse transaction date %q: %w", date, err)
	}

	txn.OriginalCategory = originalCategory.String
	txn.AccountID = accountID.String
	txn.AccountLabel = accountLabel.String
	txn.Member = member.String
	txn.CardSuffix = cardSuffix.String
	txn.Category = category.String
	txn.Source = source.String
	txn.Status = status.String
	if tags.String != "" {
		txn.Tags = model.ParseTags(tags.String)
	}

	return txn, nil
}
