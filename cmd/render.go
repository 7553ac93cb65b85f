package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/karthikredddy7github/github-clone-tracker/internal/storage"
	"github.com/karthikredddy7github/github-clone-tracker/internal/visualizer"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Renders charts and a markdown summary from the accumulated clone data",
	Long: `Reads the accumulated data file and writes the clone-traffic charts as PNG
files plus a markdown statistics summary into the output directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)

		dataFile, _ := cmd.InheritedFlags().GetString("data-file")
		outputDir, _ := cmd.Flags().GetString("output")

		store, err := storage.Load(dataFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load data file: %v\n", err)
			os.Exit(1)
		}
		if store.Empty() {
			fmt.Fprintf(os.Stderr, "No clone data in %s: run `github-clone-tracker collect` first.\n", dataFile)
			os.Exit(1)
		}

		viz := visualizer.New(outputDir, logger)
		if err := viz.Render(store); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render charts: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Charts and summary written to %s\n", outputDir)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("output", "o", "graphs", "Directory to write the charts and summary into")
}
