package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoursoPreset(t *testing.T) {
	data := "dateOp;label;amount;category;accountNum;accountLabel\n" +
		"2026-03-01;CARREFOUR CB*6759;-42,10;Alimentation;00012345;Compte Courant\n" +
		"2026-03-02;VIR SEPA EMPLOYER;2 500,00;Virements;00012345;Compte Courant\n"

	txns, err := NewCSVParser(CSVConfig{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	first := txns[0]
	assert.Equal(t, "CARREFOUR CB*6759", first.Label)
	assert.Equal(t, -42.10, first.Amount)
	assert.Equal(t, "2026-03-01", first.Date.Format("2006-01-02"))
	assert.Equal(t, "Alimentation", first.OriginalCategory)
	assert.Equal(t, "00012345", first.AccountID)
	assert.Equal(t, "Compte Courant", first.AccountLabel)
	assert.Equal(t, "6759", first.CardSuffix)
	assert.Equal(t, "Carte 6759", first.Member)
	assert.Equal(t, "pending", first.Status)

	second := txns[1]
	assert.Equal(t, 2500.00, second.Amount)
	assert.Empty(t, second.CardSuffix)
}

func TestParseBoursoPresetWithBOM(t *testing.T) {
	data := "\uFEFFdateOp;label;amount\n2026-03-01;CARREFOUR;-10,00\n"

	txns, err := NewCSVParser(CSVConfig{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, -10.0, txns[0].Amount)
}

func TestParseGenericMapping(t *testing.T) {
	data := "ignore me\nDate;Libellé;Montant\n15/03/2026;UBER EATS;-28,50\nbad-date;NOISE;-1,00\n"

	config := CSVConfig{
		Separator: ';',
		SkipRows:  1,
		DayFirst:  true,
		Mapping: map[string]string{
			"date":   "Date",
			"label":  "Libellé",
			"amount": "Montant",
		},
	}

	txns, err := NewCSVParser(config).Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 1)

	assert.Equal(t, "UBER EATS", txns[0].Label)
	assert.Equal(t, "2026-03-15", txns[0].Date.Format("2006-01-02"))
	assert.Equal(t, "Import Manuel", txns[0].AccountLabel)
}

func TestParseMissingRequiredColumn(t *testing.T) {
	data := "Date;Libellé\n15/03/2026;UBER\n"

	config := CSVConfig{
		Separator: ';',
		Mapping: map[string]string{
			"date":   "Date",
			"label":  "Libellé",
			"amount": "Montant",
		},
	}

	_, err := NewCSVParser(config).Parse(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{name: "decimal comma", in: "-42,10", want: -42.10},
		{name: "thousands space", in: "1 234,56", want: 1234.56},
		{name: "currency symbol", in: "12,00 €", want: 12.0},
		{name: "plain", in: "99.95", want: 99.95},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractCardSuffix(t *testing.T) {
	assert.Equal(t, "6759", ExtractCardSuffix("CARREFOUR CB*6759"))
	assert.Equal(t, "1234", ExtractCardSuffix("cb*1234 store"))
	assert.Empty(t, ExtractCardSuffix("CARREFOUR"))
	assert.Empty(t, ExtractCardSuffix("CB*123"))
}
