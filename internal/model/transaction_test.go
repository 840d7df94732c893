package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignature(t *testing.T) {
	date := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)

	txn := Transaction{Date: date, Label: "CARREFOUR", Amount: -42.10}
	sig := txn.Signature()

	assert.Equal(t, "2026-03-01", sig.Date)
	assert.Equal(t, "CARREFOUR", sig.Label)
	assert.Equal(t, -42.10, sig.Amount)

	// Same day, different hour: same signature.
	other := Transaction{Date: date.Add(5 * time.Hour), Label: "CARREFOUR", Amount: -42.10}
	assert.Equal(t, sig, other.Signature())

	// Different amount: different signature.
	third := Transaction{Date: date, Label: "CARREFOUR", Amount: -42.11}
	assert.NotEqual(t, sig, third.Signature())
}

func TestTagsAdd(t *testing.T) {
	var tags Tags

	tags = tags.Add("Work")
	tags = tags.Add("  travel  ")
	tags = tags.Add("WORK") // duplicate after normalization
	tags = tags.Add("")

	assert.Equal(t, Tags{"work", "travel"}, tags)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, Tags{"work", "travel"}, ParseTags("Work, travel, WORK"))
	assert.Empty(t, ParseTags(""))
	assert.Empty(t, ParseTags(" , , "))
}

func TestTagsMergeAndSorted(t *testing.T) {
	a := ParseTags("zeta, alpha")
	b := ParseTags("alpha, mid")

	merged := a.Merge(b)
	assert.Equal(t, Tags{"zeta", "alpha", "mid"}, merged, "insertion order preserved")
	assert.Equal(t, Tags{"alpha", "mid", "zeta"}, merged.Sorted())
	assert.Equal(t, "zeta, alpha, mid", merged.String())
}

func TestNormalizedPattern(t *testing.T) {
	rule := Rule{Pattern: "  CarreFour  "}
	assert.Equal(t, "carrefour", rule.NormalizedPattern())
}
