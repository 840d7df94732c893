package main

import (
	"fmt"
	"os"

	"github.com/serene-finance/serene/internal/importer"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	var noAI bool

	cmd := &cobra.Command{
		Use:   "import-ofx <file.ofx>",
		Short: "Import an OFX/QFX bank statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = file.Close() }()

			txns, err := importer.NewOFXParser().Parse(file)
			if err != nil {
				return err
			}

			return runImport(cmd.Context(), txns, noAI)
		},
	}

	cmd.Flags().BoolVar(&noAI, "no-ai", false, "classify with rules only")

	return cmd
}
