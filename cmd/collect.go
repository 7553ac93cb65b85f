package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/karthikredddy7github/github-clone-tracker/internal/config"
	"github.com/karthikredddy7github/github-clone-tracker/internal/gateway"
	"github.com/karthikredddy7github/github-clone-tracker/internal/storage"
	"github.com/karthikredddy7github/github-clone-tracker/internal/usecase"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetches clone traffic for every owned repository and updates the data file",
	Long: `Fetches the current clone-traffic window (up to fourteen days) for every
repository owned by the authenticated user and merges it into the accumulated
data file. Days already on record are overwritten with the newest reported
values, so re-running inside the window never double-counts a day.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		dataFile, _ := cmd.InheritedFlags().GetString("data-file")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		githubGateway, err := gateway.NewGitHubGateway(cfg.GitHubToken, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}

		store, err := storage.Load(dataFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load data file: %v\n", err)
			os.Exit(1)
		}

		tracker := usecase.NewTracker(githubGateway, logger, concurrency)
		summary, err := tracker.Run(ctx, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to collect clone traffic: %v\n", err)
			os.Exit(1)
		}

		if err := storage.Save(dataFile, store); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save data file: %v\n", err)
			os.Exit(1)
		}

		if summary.RateLimited {
			fmt.Fprintln(os.Stderr, "Warning: GitHub rate limit reached; the remaining repositories were skipped this run.")
		}
		fmt.Printf("Repositories with clone data: %d/%d\n", summary.ReposWithData, summary.ReposListed)
		fmt.Printf("Days tracked: %d\n", summary.DaysTracked)
		fmt.Printf("Total clones (cumulative): %d\n", summary.TotalClones)
		fmt.Printf("Data saved to %s\n", dataFile)
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().IntP("concurrency", "c", 4, "Maximum number of traffic requests in flight")
}
