// Package cmd provides CLI commands for vectordctl.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	serverURL     string
	outputJSON    bool
	verboseOutput bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "vectordctl",
	Short: "vectordctl - manage a vectord server",
	Long: `vectordctl is a command-line tool for interacting with the vectord server.

vectord is a multi-index vector search engine exposing libraries,
documents and chunks over HTTP.

Use vectordctl to:
  - Run a query against an attached index
  - Trigger a full index rebuild
  - View server statistics`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", getEnvOrDefault("VECTORD_URL", "http://localhost:8080"), "vectord server URL")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseOutput, "verbose", "v", false, "Print each request/response line")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(statsCmd)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
