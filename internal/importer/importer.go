// Package importer persists parsed bank statements with count-based
// deduplication.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/serene-finance/serene/internal/model"
	"github.com/serene-finance/serene/internal/service"
)

// DeduplicatingImporter inserts transaction batches idempotently. Identical
// rows within one statement are legitimate (two coffees, same day, same
// price); dedup is therefore count-based per signature, not key-based.
type DeduplicatingImporter struct {
	store  service.TransactionStore
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a deduplicating importer over the given store.
func New(store service.TransactionStore, logger *slog.Logger) *DeduplicatingImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeduplicatingImporter{
		store:  store,
		logger: logger,
	}
}

// Import persists a batch of transactions. For each distinct signature
// (date, label, amount) only the surplus over what is already stored is
// inserted, so re-importing the same file inserts nothing. The whole batch
// runs in one database transaction; on any error nothing is persisted.
// Concurrent calls are serialized.
func (i *DeduplicatingImporter) Import(ctx context.Context, txns []model.Transaction) (service.ImportResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(txns) == 0 {
		return service.ImportResult{}, nil
	}

	dbTx, err := i.store.BeginTx(ctx)
	if err != nil {
		return service.ImportResult{}, fmt.Errorf("failed to begin import transaction: %w", err)
	}

	result, err := i.importTx(ctx, dbTx, txns)
	if err != nil {
		_ = dbTx.Rollback()
		return service.ImportResult{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return service.ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}

	i.logger.Info("import complete",
		"incoming", len(txns),
		"inserted", result.Inserted,
		"skipped", result.Skipped)

	return result, nil
}

func (i *DeduplicatingImporter) importTx(ctx context.Context, dbTx service.Transaction, txns []model.Transaction) (service.ImportResult, error) {
	// Group by signature in first-seen order
	groups := make(map[model.Signature][]model.Transaction)
	var order []model.Signature
	for _, txn := range txns {
		sig := txn.Signature()
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], txn)
	}

	var result service.ImportResult
	var toInsert []model.Transaction

	for _, sig := range order {
		group := groups[sig]

		existing, err := dbTx.CountBySignature(ctx, sig)
		if err != nil {
			return service.ImportResult{}, fmt.Errorf("failed to count existing transactions: %w", err)
		}

		surplus := len(group) - existing
		if surplus < 0 {
			surplus = 0
		}
		if surplus > len(group) {
			surplus = len(group)
		}

		// Insert the tail of the group: the first len-surplus rows are
		// considered already stored.
		toInsert = append(toInsert, group[len(group)-surplus:]...)
		result.Inserted += surplus
		result.Skipped += len(group) - surplus
	}

	if len(toInsert) > 0 {
		if err := dbTx.BulkInsert(ctx, toInsert); err != nil {
			return service.ImportResult{}, fmt.Errorf("failed to insert transactions: %w", err)
		}
	}

	return result, nil
}
