package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/serene-finance/serene/internal/audit"
	"github.com/serene-finance/serene/internal/cli"
	"github.com/serene-finance/serene/internal/model"
	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Analyze the rule set for conflicts, duplicates, overlaps and staleness",
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

			report := audit.Analyze(rules, time.Now())

			if asJSON {
				out, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode report: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Println(renderAuditReport(report, len(rules)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")

	return cmd
}

// renderAuditReport formats the report for the terminal.
func renderAuditReport(report model.AuditReport, ruleCount int) string {
	var b strings.Builder

	scoreStyle := cli.SuccessStyle
	switch {
	case report.Score < 50:
		scoreStyle = cli.ErrorStyle
	case report.Score < 80:
		scoreStyle = cli.WarningStyle
	}

	summary := fmt.Sprintf("Health score: %s   Rules: %d   Issues: %d",
		scoreStyle.Render(fmt.Sprintf("%d/100", report.Score)),
		ruleCount,
		report.IssueCount())
	b.WriteString(cli.RenderBox("Rule audit", summary))
	b.WriteString("\n")

	if report.IssueCount() == 0 {
		b.WriteString(cli.FormatSuccess("no issues found"))
		return b.String()
	}

	for _, c := range report.Conflicts {
		b.WriteString(cli.FormatError(fmt.Sprintf("conflict: %q maps to %s (rules %v)",
			c.Pattern, strings.Join(c.Categories, " and "), c.RuleIDs)))
		b.WriteString("\n")
	}
	for _, d := range report.Duplicates {
		b.WriteString(cli.FormatWarning(fmt.Sprintf("duplicate: %q -> %s defined %d times (rules %v)",
			d.Pattern, d.Category, len(d.RuleIDs), d.RuleIDs)))
		b.WriteString("\n")
	}
	for _, o := range report.Overlaps {
		b.WriteString(cli.FormatWarning(fmt.Sprintf("overlap: %q (%s) is contained in %q (%s)",
			o.ShorterPattern, o.ShorterCategory, o.LongerPattern, o.LongerCategory)))
		b.WriteString("\n")
	}
	for _, v := range report.Vague {
		b.WriteString(cli.FormatWarning(fmt.Sprintf("vague: %q -> %s is too short to be safe (rule %d)",
			v.Pattern, v.Category, v.RuleID)))
		b.WriteString("\n")
	}
	for _, s := range report.Stale {
		b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf("stale: %q -> %s unchanged since %s (rule %d)",
			s.Pattern, s.Category, s.CreatedAt.Format("2006-01-02"), s.RuleID)))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
