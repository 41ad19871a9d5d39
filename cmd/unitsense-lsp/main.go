package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

const (
	lsName  = "unitsense-lsp"
	version = "0.1"
)

var log = commonlog.GetLogger(lsName)

var rootCmd = &cobra.Command{
	Use:   "unitsense-lsp",
	Short: "Language server for the unitsense unit-consistency analyzer",
	Long:  "unitsense-lsp runs an external unit-consistency checker on open and save,\npublishes its findings as diagnostics, and offers quick fixes for store findings.",
}

func main() {
	rootCmd.Version = version
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)

	rootCmd.PersistentFlags().String("config", "", "path to unitsense.toml (default: discover from the workspace)")
	rootCmd.PersistentFlags().Int("verbosity", 1, "log verbosity (0-2)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to a file instead of stderr")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Logs must never touch stdout: in serve mode it carries the protocol.
func configureLogging(cmd *cobra.Command) {
	verbosity, _ := cmd.Flags().GetInt("verbosity")
	logFile, _ := cmd.Flags().GetString("log-file")
	var path *string
	if logFile != "" {
		path = &logFile
	}
	commonlog.Configure(verbosity, path)
}
