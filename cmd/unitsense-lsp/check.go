package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"unitsense/internal/analyzer"
	"unitsense/internal/config"
	"unitsense/internal/diag"
	"unitsense/internal/report"
)

var checkCmd = &cobra.Command{
	Use:          "check <dir>",
	Short:        "Run the analyzer once over a directory and print its findings",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	configureLogging(cmd)

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve %q: %w", args[0], err)
	}

	var cfg config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.Discover(dir)
	}
	if err != nil {
		return err
	}

	inv := analyzer.New(cfg.Analyzer.MaxConcurrent)
	out, err := inv.Run(cmd.Context(), dir, cfg.Analyzer)
	if err != nil {
		return err
	}

	ds := report.Parse(out)
	for _, d := range ds {
		fmt.Fprintln(cmd.OutOrStdout(), colorize(d))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d finding(s)\n", len(ds))
	return nil
}

func colorize(d diag.Diagnostic) string {
	c := color.New(color.FgRed)
	switch d.Severity {
	case diag.SeverityWarning:
		c = color.New(color.FgYellow)
	case diag.SeverityInfo, diag.SeverityHint:
		c = color.New(color.FgCyan)
	}
	line := c.Sprint(d.Format())
	if d.Repair != nil {
		line += color.New(color.Faint).Sprintf(" (fix: %s)", d.Repair.Title)
	}
	return line
}
