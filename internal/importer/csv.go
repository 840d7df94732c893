package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/serene-finance/serene/internal/model"
)

// cardSuffixRe extracts the trailing card digits from labels like
// "CARREFOUR CB*6759".
var cardSuffixRe = regexp.MustCompile(`(?i)CB\*(\d{4})`)

// CSVConfig describes how to read an arbitrary bank CSV export. Mapping goes
// from internal field name (date, label, amount, member...) to the CSV
// column header.
type CSVConfig struct {
	Mapping      map[string]string
	Separator    rune
	SkipRows     int
	DayFirst     bool
	AccountLabel string
}

// BoursoBankConfig is the preset for BoursoBank exports: semicolon
// separated, decimal comma, ISO dates.
func BoursoBankConfig() CSVConfig {
	return CSVConfig{
		Separator: ';',
		Mapping: map[string]string{
			"date":              "dateOp",
			"label":             "label",
			"amount":            "amount",
			"original_category": "category",
			"account_id":        "accountNum",
			"account_label":     "accountLabel",
		},
		AccountLabel: "Compte Principal",
	}
}

// CSVParser reads bank statement CSVs into transactions.
type CSVParser struct {
	config CSVConfig
}

// NewCSVParser creates a parser for the given configuration. A zero Mapping
// means the BoursoBank preset.
func NewCSVParser(config CSVConfig) *CSVParser {
	if len(config.Mapping) == 0 {
		config = BoursoBankConfig()
	}
	if config.Separator == 0 {
		config.Separator = ';'
	}
	return &CSVParser{config: config}
}

// Parse reads the CSV and returns transactions in file order. Rows with
// unparseable dates or amounts are skipped rather than failing the whole
// file.
func (p *CSVParser) Parse(reader io.Reader) ([]model.Transaction, error) {
	r := csv.NewReader(reader)
	r.Comma = p.config.Separator
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if p.config.SkipRows > 0 {
		if p.config.SkipRows >= len(records) {
			return nil, fmt.Errorf("skip_rows %d leaves no rows", p.config.SkipRows)
		}
		records = records[p.config.SkipRows:]
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	header := records[0]
	// Excel and some banks prepend a UTF-8 BOM to the first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	columns := make(map[string]int)
	for field, csvName := range p.config.Mapping {
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), csvName) {
				columns[field] = i
				break
			}
		}
	}

	for _, required := range []string{"date", "label", "amount"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing column after mapping: %s", required)
		}
	}

	cell := func(row []string, field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var transactions []model.Transaction
	for _, row := range records[1:] {
		date, err := parseDate(cell(row, "date"), p.config.DayFirst)
		if err != nil {
			continue
		}
		amount, err := ParseAmount(cell(row, "amount"))
		if err != nil {
			continue
		}
		label := cell(row, "label")
		if label == "" {
			continue
		}

		txn := model.Transaction{
			Date:             date,
			Label:            label,
			Amount:           amount,
			OriginalCategory: cell(row, "original_category"),
			AccountID:        cell(row, "account_id"),
			AccountLabel:     cell(row, "account_label"),
			Member:           cell(row, "member"),
			Status:           model.StatusPending,
		}

		if txn.AccountLabel == "" {
			txn.AccountLabel = p.config.AccountLabel
		}
		if txn.AccountLabel == "" {
			txn.AccountLabel = "Import Manuel"
		}

		if txn.Member == "" {
			if suffix := ExtractCardSuffix(txn.Label); suffix != "" {
				txn.CardSuffix = suffix
				txn.Member = "Carte " + suffix
			}
		}

		transactions = append(transactions, txn)
	}

	return transactions, nil
}

// ExtractCardSuffix returns the four card digits embedded in a label, or "".
func ExtractCardSuffix(label string) string {
	if m := cardSuffixRe.FindStringSubmatch(label); m != nil {
		return m[1]
	}
	return ""
}

// ParseAmount parses a bank-formatted amount: thousands spaces, decimal
// comma, optional currency symbol ("1 234,56 €" -> 1234.56).
func ParseAmount(s string) (float64, error) {
	s = strings.NewReplacer(" ", "", " ", "", "€", "", ",", ".").Replace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return amount, nil
}

// parseDate tries the common bank export date layouts. With dayFirst set the
// ambiguous slash layouts read as day/month/year.
func parseDate(s string, dayFirst bool) (time.Time, error) {
	layouts := []string{"2006-01-02", "2006/01/02"}
	if dayFirst {
		layouts = append([]string{"02/01/2006", "02-01-2006", "02/01/06"}, layouts...)
	} else {
		layouts = append(layouts, "01/02/2006", "01/02/06")
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
