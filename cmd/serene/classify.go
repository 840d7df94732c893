package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/serene-finance/serene/internal/cli"
	"github.com/serene-finance/serene/internal/model"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	var noAI bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Re-classify stored transactions that are unclassified or Unknown",
		Long: `Run the classification pipeline over every stored transaction whose
category is empty or Unknown. Useful after adding rules or enabling an AI
provider.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return err
			}

			txns, err := store.ListUnclassified(ctx)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				fmt.Println(cli.FormatSuccess("nothing to classify"))
				return nil
			}

			builder := buildEngine
			if noAI {
				builder = buildRuleOnlyEngine
			}
			classifier, cleanup, err := builder(store)
			if err != nil {
				return err
			}
			defer cleanup()

			var resolved, unknown int
			bar := progressbar.Default(int64(len(txns)), "Classifying")
			for _, txn := range txns {
				c := classifier.Classify(ctx, txn.Label, txn.Amount, txn.Date)
				if err := store.UpdateClassification(ctx, txn.ID, c); err != nil {
					return err
				}
				if c.Category == model.CategoryUnknown {
					unknown++
				} else {
					resolved++
				}
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("classified %d transactions (%d still Unknown)",
				resolved, unknown)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noAI, "no-ai", false, "classify with rules only")

	return cmd
}
