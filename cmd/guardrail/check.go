package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"retailmedia-hq/guardrail/pkg/cli"
	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/engine"
	"retailmedia-hq/guardrail/pkg/verdict"
)

var (
	checkFull   bool
	checkFormat string
	checkRules  string
)

var checkCmd = &cobra.Command{
	Use:   "check <snapshot.json>... | -",
	Short: "Evaluate creative snapshots",
	Long: `Evaluate one or more creative snapshots against the rule catalog.

Snapshots are JSON documents exported by the editor. Use "-" to read a
snapshot from standard input.

By default only quick checks run. --full adds the semantic copy and image
checks; they are skipped when no capability provider is configured.

The command exits with status 1 when any snapshot is blocked, so it can gate
CI pipelines.`,
	Example: `  guardrail check creative.json
  guardrail check --full --format json banners/*.json
  editor-export | guardrail check -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkFull, "full", false, "run semantic and image checks in addition to quick checks")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "output format (text, json, yaml)")
	checkCmd.Flags().StringVar(&checkRules, "rules", "", "rule schema file (overrides the configured rule source)")
}

// fileVerdict pairs a verdict with the snapshot it was computed for.
type fileVerdict struct {
	File    string           `json:"file"`
	Verdict *verdict.Verdict `json:"verdict"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(checkFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, logger, checkFull)
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	defer a.Close(context.Background())

	catalog, _, err := loadCatalog(ctx, cfg, checkRules)
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	eng, err := a.newEngine(catalog)
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	mode := engine.ModeQuick
	if checkFull {
		mode = engine.ModeFull
	}

	progress := cli.NewProgressReporter(os.Stderr)
	if len(args) > 1 {
		progress.Start(int64(len(args)))
	}

	results := make([]fileVerdict, 0, len(args))
	blocked := 0
	for i, name := range args {
		snap, err := readSnapshot(cmd.InOrStdin(), name)
		if err != nil {
			progress.Finish()
			return cli.NewCommandError("check", err)
		}
		v := eng.Evaluate(ctx, snap, mode)
		if !v.CanExport {
			blocked++
		}
		results = append(results, fileVerdict{File: name, Verdict: v})
		if len(args) > 1 {
			progress.Update(int64(i + 1))
		}
	}
	if len(args) > 1 {
		progress.Finish()
	}

	if err := writeVerdicts(cmd.OutOrStdout(), format, results); err != nil {
		return err
	}

	logger.Debug("check complete",
		"snapshots", len(results),
		"blocked", blocked,
		"mode", string(mode),
		"rules_version", catalog.Version(),
	)
	if blocked > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

func readSnapshot(stdin io.Reader, name string) (*creative.Snapshot, error) {
	if name == "-" {
		snap, err := creative.Load(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot from stdin: %w", err)
		}
		return snap, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := creative.Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}
	return snap, nil
}

func writeVerdicts(w io.Writer, format cli.OutputFormat, results []fileVerdict) error {
	if format == cli.FormatText {
		report := cli.NewReport(w)
		for _, r := range results {
			if err := report.Verdict(r.File, r.Verdict); err != nil {
				return err
			}
		}
		return nil
	}

	formatter := cli.NewFormatter(format)
	if len(results) == 1 {
		return formatter.FormatTo(w, results[0].Verdict)
	}
	return formatter.FormatTo(w, results)
}
