package main

import (
	"fmt"

	"github.com/serene-finance/serene/internal/cli"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	var fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List stored transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			from, err := parseDateFlag(fromFlag)
			if err != nil {
				return err
			}
			to, err := parseDateFlag(toFlag)
			if err != nil {
				return err
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return err
			}

			txns, err := store.ListTransactions(ctx, from, to)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no transactions"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-12s %-40s %10s  %-20s %-6s %s",
				"DATE", "LABEL", "AMOUNT", "CATEGORY", "SRC", "CONF")))
			for _, txn := range txns {
				label := txn.Label
				if len(label) > 40 {
					label = label[:37] + "..."
				}
				fmt.Printf("%-12s %-40s %10.2f  %-20s %-6s %.2f\n",
					txn.Date.Format("2006-01-02"), label, txn.Amount,
					txn.Category, txn.Source, txn.Confidence)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "end date (YYYY-MM-DD)")

	return cmd
}
