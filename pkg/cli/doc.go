/*
Package cli provides output helpers for the guardrail command.

Verdicts, rule listings and lint results are rendered for people by Report,
which styles output with lipgloss only when writing to a terminal:

	report := cli.NewReport(os.Stdout)
	if err := report.Verdict("feed.json", v); err != nil {
		return err
	}

Machine-readable output goes through a Formatter:

	format, err := cli.ParseFormat(flags.format)
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(os.Stdout, v)
	}

Commands return *ExitError to set a non-zero exit status without printing
an error, as check does for blocked creatives.
*/
package cli
