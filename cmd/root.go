// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-clone-tracker",
	Short: "Tracks GitHub repository clone traffic beyond the API's 14-day window.",
	Long: `github-clone-tracker polls the GitHub traffic API for every repository owned
by the authenticated user and accumulates the daily clone counts in a local
JSON file. GitHub only retains fourteen days of traffic data; the accumulated
file preserves the full history across runs and feeds the chart rendering.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags shared by every subcommand.
	rootCmd.PersistentFlags().StringP("data-file", "d", "clone_data.json", "Path of the accumulated clone data file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// newLogger builds the logger handed to every component: silent by default,
// standard error when --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}
