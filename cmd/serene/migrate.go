package main

import (
	"fmt"

	"github.com/serene-finance/serene/internal/cli"
	"github.com/serene-finance/serene/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("database at schema version %d",
				storage.ExpectedSchemaVersion)))
			return nil
		},
	}
}
