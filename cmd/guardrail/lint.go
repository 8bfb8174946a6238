package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"retailmedia-hq/guardrail/pkg/cli"
	"retailmedia-hq/guardrail/pkg/rules"
)

var (
	lintStrict bool
	lintFormat string
)

var lintCmd = &cobra.Command{
	Use:   "lint <schema>...",
	Short: "Lint rule schema documents",
	Long: `Lint rule schema documents (JSON or YAML).

Each document is checked against the schema definition and the catalog
invariants. Every problem is reported, not just the first one.

Errors make a document unloadable. Warnings describe rules that load but
probably do not do what their author intended; --strict treats them as
errors.`,
	Example: `  guardrail lint rules.yaml
  guardrail lint --strict --format json rules/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVarP(&lintFormat, "format", "f", "text", "output format (text, json)")
}

// lintReport is the machine-readable lint outcome of one document.
type lintReport struct {
	File     string   `json:"file"`
	OK       bool     `json:"ok"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func runLint(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(lintFormat)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report := cli.NewReport(out)
	reports := make([]lintReport, 0, len(args))
	failed := 0

	for _, name := range args {
		data, err := os.ReadFile(name)
		if err != nil {
			return cli.NewCommandError("lint", fmt.Errorf("failed to read %s: %w", name, err))
		}

		res := rules.Lint(data)
		if lintStrict && len(res.Warnings) > 0 {
			res.Errors = append(res.Errors, res.Warnings...)
			res.Warnings = nil
		}
		if !res.OK() {
			failed++
		}

		if format == cli.FormatText {
			if err := report.Lint(name, res); err != nil {
				return err
			}
			continue
		}
		reports = append(reports, lintReport{
			File:     name,
			OK:       res.OK(),
			Errors:   nonNil(res.Errors),
			Warnings: nonNil(res.Warnings),
		})
	}

	if format != cli.FormatText {
		if err := cli.NewFormatter(format).FormatTo(out, reports); err != nil {
			return err
		}
	}

	if failed > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
