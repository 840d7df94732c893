package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/serene-finance/serene/internal/cli"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
	}

	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesAddCmd() *cobra.Command {
	var priority int

	cmd := &cobra.Command{
		Use:   "add <pattern> <category>",
		Short: "Add a categorization rule",
		Long: `Add a rule mapping a label pattern to a category. The pattern is tried
as a case-insensitive regular expression; if it does not compile it matches
as a plain substring. Higher priority rules are evaluated first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len([]rune(strings.TrimSpace(args[0]))) < 3 {
				return fmt.Errorf("pattern %q is too short: 3 characters minimum", args[0])
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return err
			}

			if err := store.UpsertRule(ctx, args[0], args[1], priority); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("rule %q -> %s (priority %d)",
				args[0], args[1], priority)))
			return nil
		},
	}

	cmd.Flags().IntVar(&priority, "priority", 1, "evaluation priority (higher first)")

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
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

			rules, err := store.ListRules(ctx)
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no rules defined"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-5s %-8s %-30s %-20s %s",
				"ID", "PRIO", "PATTERN", "CATEGORY", "CREATED")))
			for _, rule := range rules {
				fmt.Printf("%-5d %-8d %-30s %-20s %s\n",
					rule.ID, rule.Priority, rule.Pattern, rule.Category,
					rule.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return err
			}

			deleted, err := store.DeleteRule(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("rule %d not found", id)))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("rule %d deleted", id)))
			return nil
		},
	}
}
