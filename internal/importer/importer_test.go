package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serene-finance/serene/internal/model"
	"github.com/serene-finance/serene/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory TransactionStore with snapshot-based rollback.
type memStore struct {
	rows      []model.Transaction
	countErr  error
	insertErr error
	commits   int
	rollbacks int
}

type memTx struct {
	store    *memStore
	snapshot []model.Transaction
	done     bool
}

func (s *memStore) CountBySignature(ctx context.Context, sig model.Signature) (int, error) {
	return countRows(s.rows, sig, s.countErr)
}

func (s *memStore) BulkInsert(_ context.Context, txns []model.Transaction) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.rows = append(s.rows, txns...)
	return nil
}

func (s *memStore) BeginTx(context.Context) (service.Transaction, error) {
	snapshot := make([]model.Transaction, len(s.rows))
	copy(snapshot, s.rows)
	return &memTx{store: s, snapshot: snapshot}, nil
}

func (t *memTx) CountBySignature(ctx context.Context, sig model.Signature) (int, error) {
	return countRows(t.store.rows, sig, t.store.countErr)
}

func (t *memTx) BulkInsert(ctx context.Context, txns []model.Transaction) error {
	return t.store.BulkInsert(ctx, txns)
}

func (t *memTx) Commit() error {
	t.done = true
	t.store.commits++
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.rows = t.snapshot
	t.store.rollbacks++
	return nil
}

func countRows(rows []model.Transaction, sig model.Signature, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range rows {
		if row.Signature() == sig {
			count++
		}
	}
	return count, nil
}

func makeTxn(date string, label string, amount float64) model.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return model.Transaction{Date: d, Label: label, Amount: amount}
}

func TestImportEmptyBatch(t *testing.T) {
	store := &memStore{}
	result, err := New(store, nil).Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, service.ImportResult{}, result)
	assert.Equal(t, 0, store.commits)
}

func TestImportFreshBatch(t *testing.T) {
	store := &memStore{}
	batch := []model.Transaction{
		makeTxn("2026-03-01", "CARREFOUR", -42.10),
		makeTxn("2026-03-02", "UBER", -15.00),
	}

	result, err := New(store, nil).Import(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
	assert.Len(t, store.rows, 2)
	assert.Equal(t, 1, store.commits)
}

func TestImportIsIdempotent(t *testing.T) {
	store := &memStore{}
	batch := []model.Transaction{
		makeTxn("2026-03-01", "CARREFOUR", -42.10),
		makeTxn("2026-03-02", "UBER", -15.00),
		makeTxn("2026-03-02", "UBER", -15.00),
	}

	imp := New(store, nil)

	first, err := imp.Import(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)

	second, err := imp.Import(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Skipped)
	assert.Len(t, store.rows, 3)
}

func TestImportSurplusOnly(t *testing.T) {
	store := &memStore{}

	// Three identical rows already stored.
	existing := []model.Transaction{
		makeTxn("2026-03-01", "COFFEE", -2.50),
		makeTxn("2026-03-01", "COFFEE", -2.50),
		makeTxn("2026-03-01", "COFFEE", -2.50),
	}
	_, err := New(store, nil).Import(context.Background(), existing)
	require.NoError(t, err)

	// Incoming batch has five: only the surplus two are inserted.
	incoming := make([]model.Transaction, 5)
	for i := range incoming {
		incoming[i] = makeTxn("2026-03-01", "COFFEE", -2.50)
	}

	result, err := New(store, nil).Import(context.Background(), incoming)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 3, result.Skipped)
	assert.Len(t, store.rows, 5)
}

func TestImportMoreStoredThanIncoming(t *testing.T) {
	store := &memStore{}

	existing := []model.Transaction{
		makeTxn("2026-03-01", "COFFEE", -2.50),
		makeTxn("2026-03-01", "COFFEE", -2.50),
	}
	_, err := New(store, nil).Import(context.Background(), existing)
	require.NoError(t, err)

	result, err := New(store, nil).Import(context.Background(), existing[:1])
	require.NoError(t, err)

	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, store.rows, 2)
}

func TestImportInsertsSurplusTail(t *testing.T) {
	store := &memStore{}

	_, err := New(store, nil).Import(context.Background(), []model.Transaction{
		makeTxn("2026-03-01", "COFFEE", -2.50),
	})
	require.NoError(t, err)

	// Distinguish group members by a field outside the signature.
	a := makeTxn("2026-03-01", "COFFEE", -2.50)
	a.Member = "first"
	b := makeTxn("2026-03-01", "COFFEE", -2.50)
	b.Member = "second"

	result, err := New(store, nil).Import(context.Background(), []model.Transaction{a, b})
	require.NoError(t, err)

	require.Equal(t, 1, result.Inserted)
	inserted := store.rows[len(store.rows)-1]
	assert.Equal(t, "second", inserted.Member)
}

func TestImportCountErrorRollsBack(t *testing.T) {
	store := &memStore{countErr: errors.New("disk on fire")}

	_, err := New(store, nil).Import(context.Background(), []model.Transaction{
		makeTxn("2026-03-01", "CARREFOUR", -42.10),
	})

	require.Error(t, err)
	assert.Empty(t, store.rows)
	assert.Equal(t, 1, store.rollbacks)
	assert.Equal(t, 0, store.commits)
}

func TestImportInsertErrorRollsBack(t *testing.T) {
	store := &memStore{insertErr: errors.New("constraint violated")}

	_, err := New(store, nil).Import(context.Background(), []model.Transaction{
		makeTxn("2026-03-01", "CARREFOUR", -42.10),
	})

	require.Error(t, err)
	assert.Equal(t, 1, store.rollbacks)
	assert.Equal(t, 0, store.commits)
}
