package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"retailmedia-hq/guardrail/pkg/cli"
	"retailmedia-hq/guardrail/pkg/rules"
)

var (
	rulesFile    string
	listFormat   string
	exportFormat string
	exportOutput string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the rule catalog",
	Long: `Inspect the rule catalog the engine evaluates against.

The catalog comes from the configured rule source (builtin, file or git)
unless --rules names a schema file.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as a schema document",
	Long: `Export the catalog as a schema document that can be edited and loaded
back with --rules or the file rule source.`,
	Example: `  guardrail rules export --format yaml -o rules.yaml`,
	Args:    cobra.NoArgs,
	RunE:    runRulesExport,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesExportCmd)

	rulesCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "rule schema file (overrides the configured rule source)")
	rulesListCmd.Flags().StringVarP(&listFormat, "format", "f", "text", "output format (text, json, yaml)")
	rulesExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "document format (json, yaml)")
	rulesExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
}

func catalogForCommand(cmd *cobra.Command) (*rules.Catalog, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if _, err := newLogger(cfg); err != nil {
		return nil, err
	}
	catalog, _, err := loadCatalog(cmd.Context(), cfg, rulesFile)
	if err != nil {
		return nil, cli.NewCommandError(cmd.Name(), err)
	}
	return catalog, nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(listFormat)
	if err != nil {
		return err
	}
	catalog, err := catalogForCommand(cmd)
	if err != nil {
		return err
	}

	if format == cli.FormatText {
		return cli.NewReport(cmd.OutOrStdout()).Rules(catalog)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), catalog.Document())
}

func runRulesExport(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	catalog, err := catalogForCommand(cmd)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case cli.FormatJSON:
		data, err = rules.Marshal(catalog)
	case cli.FormatYAML:
		data, err = rules.MarshalYAML(catalog)
	default:
		return cli.NewConfigError("format", fmt.Sprintf("cannot export a schema as %s", format))
	}
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return cli.NewCommandError("export", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rules to %s\n", catalog.Len(), exportOutput)
	return nil
}
