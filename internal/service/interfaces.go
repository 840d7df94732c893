// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/serene-finance/serene/internal/model"
)

// RulePersistence is the contract consumed by the classification engine for
// rule storage. Listing order is the matcher's evaluation order.
type RulePersistence interface {
	// UpsertRule adds a rule or, per the store's collision policy, replaces
	// the category/priority of an existing pattern.
	UpsertRule(ctx context.Context, pattern, category string, priority int) error
	// ListRules returns all rules ordered by priority DESC, created_at DESC.
	ListRules(ctx context.Context) ([]model.Rule, error)
	// DeleteRule removes a rule by id, reporting whether it existed.
	DeleteRule(ctx context.Context, id int) (bool, error)
	// RulesVersion returns a counter that moves on every rule mutation.
	// Compiled snapshots are valid exactly as long as it stands still.
	RulesVersion() int64
}

// TransactionStore is the contract consumed by the deduplicating importer.
type TransactionStore interface {
	// CountBySignature counts persisted transactions matching the signature.
	CountBySignature(ctx context.Context, sig model.Signature) (int, error)
	// BulkInsert inserts the given rows.
	BulkInsert(ctx context.Context, txns []model.Transaction) error
	// BeginTx starts a transaction scoping both operations above.
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction over the transaction store.
type Transaction interface {
	CountBySignature(ctx context.Context, sig model.Signature) (int, error)
	BulkInsert(ctx context.Context, txns []model.Transaction) error
	Commit() error
	Rollback() error
}

// AIClassifier is the external AI collaborator contract. Implementations
// may fail; callers must bound every call with a timeout and must not let
// the failure escape the classification pipeline.
type AIClassifier interface {
	Classify(ctx context.Context, label string, amount float64, date time.Time) (Suggestion, error)
}

// Suggestion is the AI collaborator's answer for a single transaction.
type Suggestion struct {
	Category   string
	Confidence float64
}

// CategoryCatalog exposes the set of valid category names. The engine uses
// it only to build AI prompts; category membership is never enforced.
type CategoryCatalog interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// ImportResult reports the outcome of a deduplicating batch import.
type ImportResult struct {
	Inserted int
	Skipped  int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
