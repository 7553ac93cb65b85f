// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/karthikredddy7github/github-clone-tracker/internal/domain"
	"github.com/karthikredddy7github/github-clone-tracker/internal/gateway"
)

// Tracker is the use case for one collection run.
// It orchestrates listing the repositories, fetching their clone traffic,
// and merging the results into the store.
type Tracker struct {
	fetcher     gateway.TrafficFetcher
	logger      *log.Logger
	concurrency int
}

// RunSummary reports what a collection run did, for the CLI to print.
type RunSummary struct {
	ReposListed  int
	ReposFetched int
	ReposSkipped int
	RateLimited  bool

	// Store-wide figures after the merge.
	ReposWithData int
	DaysTracked   int
	TotalClones   int
}

// NewTracker creates a new Tracker instance. concurrency bounds how many
// traffic requests are in flight at once.
func NewTracker(fetcher gateway.TrafficFetcher, logger *log.Logger, concurrency int) *Tracker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Tracker{
		fetcher:     fetcher,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run performs one collection pass: list the owned repositories, fetch each
// one's clone traffic, and merge everything fetched into store.
//
// A failure to list repositories aborts the run, since there is nothing to
// merge. Per-repository fetch failures never do: an inaccessible or
// timed-out repository is logged and skipped, and the rest of the batch
// proceeds. Hitting the API rate limit stops further fetches from being
// launched but keeps every result already in hand, so the partial progress
// still reaches the store and the next run fills the gap.
func (t *Tracker) Run(ctx context.Context, store *domain.Store) (*RunSummary, error) {
	t.logger.Println("Usecase: Starting collection run...")

	repos, err := t.fetcher.ListOwnedRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	var (
		mu          sync.Mutex
		batch       []domain.RepoTraffic
		rateLimited bool
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(t.concurrency)
	for _, repo := range repos {
		mu.Lock()
		stop := rateLimited
		mu.Unlock()
		if stop {
			break
		}

		eg.Go(func() error {
			daily, err := t.fetcher.FetchCloneTraffic(egCtx, repo)
			if err != nil {
				mu.Lock()
				defer mu.Unlock()
				if errors.Is(err, gateway.ErrRateLimited) {
					rateLimited = true
					t.logger.Printf("Rate limited while fetching %s; skipping the remaining repositories this run", repo)
				} else {
					t.logger.Printf("Skipping %s: %v", repo, err)
				}
				return nil
			}

			t.logger.Printf("  %s: %d days of clone data", repo, len(daily))
			mu.Lock()
			batch = append(batch, domain.RepoTraffic{Name: repo.Name, Daily: daily})
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Sort so the merge sees repositories in a stable order regardless of
	// which fetch finished first.
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].Name < batch[j].Name
	})
	store.Merge(batch, time.Now())
	t.logger.Printf("Usecase: Merged clone traffic for %d of %d repositories.", len(batch), len(repos))

	return &RunSummary{
		ReposListed:   len(repos),
		ReposFetched:  len(batch),
		ReposSkipped:  len(repos) - len(batch),
		RateLimited:   rateLimited,
		ReposWithData: store.ReposWithData(),
		DaysTracked:   store.DaysTracked(),
		TotalClones:   store.TotalClones(),
	}, nil
}
