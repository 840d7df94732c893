package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/serene-finance/serene/internal/model"
	"github.com/serene-finance/serene/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// RuleCollisionPolicy controls what happens when a rule is added for a
// pattern that already exists.
type RuleCollisionPolicy string

// Rule collision policies.
const (
	// RuleCollisionOverwrite silently replaces the existing rule's category
	// and priority. This is the default.
	RuleCollisionOverwrite RuleCollisionPolicy = "overwrite"
	// RuleCollisionReject returns common.ErrDuplicatePattern instead.
	RuleCollisionReject RuleCollisionPolicy = "reject"
)

// ParseRuleCollisionPolicy parses a policy name from configuration. An empty
// string means the default overwrite policy.
func ParseRuleCollisionPolicy(s string) (RuleCollisionPolicy, error) {
	switch RuleCollisionPolicy(s) {
	case "", RuleCollisionOverwrite:
		return RuleCollisionOverwrite, nil
	case RuleCollisionReject:
		return RuleCollisionReject, nil
	default:
		return "", fmt.Errorf("unknown rule collision policy %q", s)
	}
}

// SQLiteStorage implements the persistence interfaces using SQLite.
type SQLiteStorage struct {
	db              *sql.DB
	dbPath          string
	collisionPolicy RuleCollisionPolicy
	rulesVersion    atomic.Int64
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{
		db:              db,
		dbPath:          dbPath,
		collisionPolicy: RuleCollisionOverwrite,
	}
	s.rulesVersion.Store(1)

	return s, nil
}

// SetRuleCollisionPolicy changes how pattern collisions are handled on rule
// upserts.
func (s *SQLiteStorage) SetRuleCollisionPolicy(policy RuleCollisionPolicy) {
	s.collisionPolicy = policy
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction scoping transaction-store
// operations.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTransaction) CountBySignature(ctx context.Context, sig model.Signature) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return countBySignature(ctx, t.tx, sig)
}

func (t *sqliteTransaction) BulkInsert(ctx context.Context, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(txns); err != nil {
		return err
	}
	return bulkInsert(ctx, t.tx, txns)
}
