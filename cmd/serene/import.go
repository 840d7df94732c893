package main

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/serene-finance/serene/internal/cli"
	"github.com/serene-finance/serene/internal/engine"
	"github.com/serene-finance/serene/internal/importer"
	"github.com/serene-finance/serene/internal/model"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var (
		separator string
		skipRows  int
		dayFirst  bool
		mapping   map[string]string
		noAI      bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV bank statement",
		Long: `Import a CSV bank statement, classify every row, and persist the batch
with count-based deduplication. Without --map the BoursoBank preset is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := importer.CSVConfig{
				SkipRows: skipRows,
				DayFirst: dayFirst,
			}
			if len(separator) > 0 {
				config.Separator = rune(separator[0])
			}
			if len(mapping) > 0 {
				config.Mapping = mapping
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = file.Close() }()

			txns, err := importer.NewCSVParser(config).Parse(file)
			if err != nil {
				return err
			}

			return runImport(cmd.Context(), txns, noAI)
		},
	}

	cmd.Flags().StringVar(&separator, "sep", "", "field separator (default ';')")
	cmd.Flags().IntVar(&skipRows, "skip-rows", 0, "rows to skip before the header")
	cmd.Flags().BoolVar(&dayFirst, "day-first", false, "parse ambiguous dates as day/month/year")
	cmd.Flags().StringToStringVar(&mapping, "map", nil, "column mapping, e.g. --map date=Date,label=Libellé,amount=Montant")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "classify with rules only")

	return cmd
}

// runImport classifies the parsed transactions and persists them through the
// deduplicating importer. Shared by the CSV and OFX commands.
func runImport(ctx context.Context, txns []model.Transaction, noAI bool) error {
	if len(txns) == 0 {
		fmt.Println(cli.FormatWarning("no transactions found in file"))
		return nil
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	var classifier *engine.Classifier
	if noAI {
		classifier, _, err = buildRuleOnlyEngine(store)
	} else {
		var cleanup func()
		classifier, cleanup, err = buildEngine(store)
		if err == nil {
			defer cleanup()
		}
	}
	if err != nil {
		return err
	}

	txns = classifyBatch(ctx, classifier, txns)

	result, err := importer.New(store, nil).Import(ctx, txns)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("imported %d transactions (%d duplicates skipped)",
		result.Inserted, result.Skipped)))
	return nil
}

// classifyBatch classifies transactions in place with a progress bar.
func classifyBatch(ctx context.Context, classifier *engine.Classifier, txns []model.Transaction) []model.Transaction {
	bar := progressbar.Default(int64(len(txns)), "Classifying")
	for i := range txns {
		c := classifier.Classify(ctx, txns[i].Label, txns[i].Amount, txns[i].Date)
		txns[i].Category = c.Category
		txns[i].Source = c.Source
		txns[i].Confidence = c.Confidence
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return txns
}
