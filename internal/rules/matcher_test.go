package rules

import (
	"context"
	"sync"
	"testing"

	"github.com/serene-finance/serene/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRuleStore is an in-memory RulePersistence for provider tests.
type fakeRuleStore struct {
	rules   []model.Rule
	version int64
	lists   int
	mu      sync.Mutex
}

func (f *fakeRuleStore) UpsertRule(_ context.Context, pattern, category string, priority int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, model.Rule{
		ID:       len(f.rules) + 1,
		Pattern:  pattern,
		Category: category,
		Priority: priority,
	})
	f.version++
	return nil
}

func (f *fakeRuleStore) ListRules(_ context.Context) ([]model.Rule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]model.Rule, len(f.rules))
	copy(out, f.rules)
	return out, nil
}

func (f *fakeRuleStore) DeleteRule(_ context.Context, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rule := range f.rules {
		if rule.ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			f.version++
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRuleStore) RulesVersion() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

func TestProviderRecompilesOnMutation(t *testing.T) {
	ctx := context.Background()
	store := &fakeRuleStore{version: 1}
	provider := NewProvider(store)

	snap1, err := provider.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap1.Len())

	// No mutation: same snapshot, no extra list call.
	snap2, err := provider.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, snap1, snap2)
	assert.Equal(t, 1, store.lists)

	// A mutation moves the version; the next snapshot sees the new rule.
	require.NoError(t, store.UpsertRule(ctx, "CARREFOUR", "Groceries", 0))

	snap3, err := provider.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, snap1, snap3)
	assert.Equal(t, 1, snap3.Len())

	match, ok := snap3.Match("CARREFOUR CB*6759")
	require.True(t, ok)
	assert.Equal(t, "Groceries", match.Category)
}

func TestProviderSnapshotIsStableForInFlightCallers(t *testing.T) {
	ctx := context.Background()
	store := &fakeRuleStore{version: 1}
	require.NoError(t, store.UpsertRule(ctx, "UBER", "Transport", 0))

	provider := NewProvider(store)

	held, err := provider.Snapshot(ctx)
	require.NoError(t, err)

	// Mutate and recompile behind the held snapshot.
	require.NoError(t, store.UpsertRule(ctx, "UBER", "Restaurants", 10))
	_, err = provider.Snapshot(ctx)
	require.NoError(t, err)

	// The held snapshot still evaluates against its original rule set.
	match, ok := held.Match("UBER TRIP")
	require.True(t, ok)
	assert.Equal(t, "Transport", match.Category)
	assert.Equal(t, 1, held.Len())
}
