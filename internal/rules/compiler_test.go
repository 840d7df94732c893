package rules

import (
	"testing"
	"time"

	"github.com/serene-finance/serene/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileOrdering(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	raw := []model.Rule{
		{ID: 1, Pattern: "OLD", Category: "A", Priority: 5, CreatedAt: base},
		{ID: 2, Pattern: "NEW", Category: "B", Priority: 5, CreatedAt: base.Add(time.Hour)},
		{ID: 3, Pattern: "LOW", Category: "C", Priority: 1, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, Pattern: "TOP", Category: "D", Priority: 10, CreatedAt: base},
	}

	snapshot := Compile(raw, 1)
	require.Equal(t, 4, snapshot.Len())

	var ids []int
	for _, rule := range snapshot.Rules() {
		ids = append(ids, rule.ID)
	}

	// Priority descending; equal priorities favor the newer rule.
	assert.Equal(t, []int{4, 2, 1, 3}, ids)
}

func TestCompileInvalidRegexFallsBackToSubstring(t *testing.T) {
	raw := []model.Rule{
		{ID: 1, Pattern: "[INVALID(", Category: "Shopping"},
	}

	snapshot := Compile(raw, 1)
	require.Equal(t, 1, snapshot.Len())

	rule := snapshot.Rules()[0]
	assert.False(t, rule.IsRegex())

	match, ok := snapshot.Match("store [INVALID( purchase")
	require.True(t, ok)
	assert.Equal(t, "Shopping", match.Category)

	_, ok = snapshot.Match("regular purchase")
	assert.False(t, ok)
}

func TestCompileRegexIsCaseInsensitive(t *testing.T) {
	raw := []model.Rule{
		{ID: 1, Pattern: "carrefour", Category: "Groceries"},
	}

	snapshot := Compile(raw, 1)

	tests := []struct {
		name  string
		label string
		want  bool
	}{
		{name: "exact", label: "carrefour", want: true},
		{name: "uppercase", label: "CARREFOUR CB*6759", want: true},
		{name: "mixed case", label: "CarreFour Market", want: true},
		{name: "no match", label: "AUCHAN", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := snapshot.Match(tt.label)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatchFirstWins(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	raw := []model.Rule{
		{ID: 1, Pattern: "UBER", Category: "Transport", Priority: 1, CreatedAt: base},
		{ID: 2, Pattern: "UBER EATS", Category: "Restaurants", Priority: 10, CreatedAt: base},
	}

	snapshot := Compile(raw, 1)

	// Both rules match, but the higher priority one is evaluated first.
	match, ok := snapshot.Match("UBER EATS PARIS")
	require.True(t, ok)
	assert.Equal(t, "Restaurants", match.Category)
	assert.Equal(t, 2, match.RuleID)

	match, ok = snapshot.Match("UBER TRIP")
	require.True(t, ok)
	assert.Equal(t, "Transport", match.Category)
}

func TestMatchEmptySnapshot(t *testing.T) {
	snapshot := Compile(nil, 1)
	_, ok := snapshot.Match("anything")
	assert.False(t, ok)
}
