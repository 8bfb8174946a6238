package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"retailmedia-hq/guardrail/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "guardrail",
	Short: "Guardrail - compliance checks for retail-media creatives",
	Long: `Guardrail evaluates retail-media creatives against a declarative catalog of
retailer compliance rules and decides whether a creative may be exported.

Quick checks (layout, copy patterns, creative profile) run in milliseconds.
Full checks add semantic copy analysis and image checks backed by optional
AI capability providers.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and GUARDRAIL_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
