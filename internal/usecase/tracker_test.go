package usecase

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/karthikredddy7github/github-clone-tracker/internal/domain"
	"github.com/karthikredddy7github/github-clone-tracker/internal/gateway"
)

// mockFetcher is a mock implementation of the gateway.TrafficFetcher interface.
// It allows us to simulate the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ListOwnedRepositories(ctx context.Context) ([]gateway.Repository, error) {
	args := m.Called(ctx)
	// Handle the case where the returned slice is nil (e.g., on error).
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Repository), args.Error(1)
}

func (m *mockFetcher) FetchCloneTraffic(ctx context.Context, repo gateway.Repository) (map[string]domain.DailyRecord, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.DailyRecord), args.Error(1)
}

func newTestTracker(fetcher gateway.TrafficFetcher, concurrency int) *Tracker {
	return NewTracker(fetcher, log.New(io.Discard, "", 0), concurrency)
}

func repoOf(name string) gateway.Repository {
	return gateway.Repository{Owner: "me", Name: name}
}

func TestTracker_Run_MergesFetchedTraffic(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("ListOwnedRepositories", mock.Anything).
		Return([]gateway.Repository{repoOf("alpha"), repoOf("beta")}, nil)
	fetcher.On("FetchCloneTraffic", mock.Anything, repoOf("alpha")).
		Return(map[string]domain.DailyRecord{
			"2026-01-01": {Count: 3, Uniques: 2},
			"2026-01-02": {Count: 1, Uniques: 1},
		}, nil)
	fetcher.On("FetchCloneTraffic", mock.Anything, repoOf("beta")).
		Return(map[string]domain.DailyRecord{
			"2026-01-02": {Count: 2, Uniques: 2},
		}, nil)

	store := domain.NewStore()
	summary, err := newTestTracker(fetcher, 4).Run(context.Background(), store)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.ReposListed)
	assert.Equal(t, 2, summary.ReposFetched)
	assert.Zero(t, summary.ReposSkipped)
	assert.False(t, summary.RateLimited)
	assert.Equal(t, 2, summary.ReposWithData)
	assert.Equal(t, 2, summary.DaysTracked)
	assert.Equal(t, 6, summary.TotalClones)

	require.Contains(t, store.Repositories, "alpha")
	require.Contains(t, store.Repositories, "beta")
	assert.Equal(t, domain.DailyRecord{Count: 3, Uniques: 2}, store.Repositories["alpha"].DailyClones["2026-01-01"])
	assert.Equal(t, 6, store.Cumulative["2026-01-02"].TotalClones)
	assert.NotEmpty(t, store.LastUpdated)

	fetcher.AssertExpectations(t)
}

func TestTracker_Run_SkipsInaccessibleRepos(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("ListOwnedRepositories", mock.Anything).
		Return([]gateway.Repository{repoOf("open"), repoOf("private"), repoOf("slow")}, nil)
	fetcher.On("FetchCloneTraffic", mock.Anything, repoOf("open")).
		Return(map[string]domain.DailyRecord{"2026-01-01": {Count: 4, Uniques: 1}}, nil)
	// One repository the token cannot read, one that timed out: both are
	// isolated failures that must not abort the batch.
	fetcher.On("FetchCloneTraffic", mock.Anything, repoOf("private")).
		Return(nil, fmt.Errorf("%w: 403", gateway.ErrRepoInaccessible))
	fetcher.On("FetchCloneTraffic", mock.Anything, repoOf("slow")).
		Return(nil, context.DeadlineExceeded)

	store := domain.NewStore()
	summary, err := newTestTracker(fetcher, 4).Run(context.Background(), store)

	require.NoError(t, err, "per-repository failures must not fail the run")
	assert.Equal(t, 3, summary.ReposListed)
	assert.Equal(t, 1, summary.ReposFetched)
	assert.Equal(t, 2, summary.ReposSkipped)
	assert.False(t, summary.RateLimited)

	assert.Contains(t, store.Repositories, "open")
	assert.NotContains(t, store.Repositories, "private")
	assert.NotContains(t, store.Repositories, "slow")

	fetcher.AssertExpectations(t)
}

func TestTracker_Run_RateLimitKeepsPartialProgress(t *testing.T) {
	// Pre-populated store: the run must add to it, not lose it.
	store := domain.NewStore()
	store.Merge([]domain.RepoTraffic{
		{Name: "alpha", Daily: map[string]domain.DailyRecord{"2026-01-01": {Count: 2, Uniques: 1}}},
	}, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))

	fetcher := new(mockFetcher)
	fetcher.On("ListOwnedRepositories", mock.Anything).
		Return([]gateway.Repository{repoOf("alpha"), repoOf("beta"), repoOf("gamma")}, nil)
	fetcher.On("FetchCloneTraffic", mock.Anything, repoOf("alpha")).
		Return(map[string]domain.DailyRecord{"2026-01-02": {Count: 5, Uniques: 3}}, nil)
	fetcher.On("FetchCloneTraffic", mock.Anything, repoOf("beta")).
		Return(nil, fmt.Errorf("%w: quota spent", gateway.ErrRateLimited))
	// Depending on timing, gamma may be skipped before its fetch launches.
	fetcher.On("FetchCloneTraffic", mock.Anything, repoOf("gamma")).
		Return(nil, fmt.Errorf("%w: quota spent", gateway.ErrRateLimited)).Maybe()

	summary, err := newTestTracker(fetcher, 1).Run(context.Background(), store)

	require.NoError(t, err, "a rate limit must not discard the progress already made")
	assert.Equal(t, 3, summary.ReposListed)
	assert.Equal(t, 1, summary.ReposFetched)
	assert.Equal(t, 2, summary.ReposSkipped)
	assert.True(t, summary.RateLimited)

	// Both the pre-existing day and the freshly fetched one survive.
	require.Contains(t, store.Repositories, "alpha")
	assert.Equal(t, domain.DailyRecord{Count: 2, Uniques: 1}, store.Repositories["alpha"].DailyClones["2026-01-01"])
	assert.Equal(t, domain.DailyRecord{Count: 5, Uniques: 3}, store.Repositories["alpha"].DailyClones["2026-01-02"])
	assert.Equal(t, 7, summary.TotalClones)
}

func TestTracker_Run_ListingFailureAborts(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("ListOwnedRepositories", mock.Anything).
		Return(nil, fmt.Errorf("%w: token rejected", gateway.ErrBadCredentials))

	store := domain.NewStore()
	summary, err := newTestTracker(fetcher, 4).Run(context.Background(), store)

	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrBadCredentials)
	assert.Contains(t, err.Error(), "failed to list repositories")
	assert.Nil(t, summary)
	assert.True(t, store.Empty(), "a failed run must leave the store untouched")
	assert.Empty(t, store.LastUpdated)

	fetcher.AssertExpectations(t)
}

func TestTracker_Run_EmptyRepositoryList(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("ListOwnedRepositories", mock.Anything).
		Return([]gateway.Repository{}, nil)

	store := domain.NewStore()
	summary, err := newTestTracker(fetcher, 4).Run(context.Background(), store)

	require.NoError(t, err)
	assert.Zero(t, summary.ReposListed)
	assert.Zero(t, summary.ReposFetched)
	assert.Zero(t, summary.TotalClones)
	assert.NotEmpty(t, store.LastUpdated, "even an empty run stamps the store")

	fetcher.AssertExpectations(t)
}

func TestNewTracker_ConcurrencyFloor(t *testing.T) {
	// A non-positive limit would make errgroup's SetLimit block forever.
	tracker := NewTracker(new(mockFetcher), log.New(io.Discard, "", 0), 0)
	assert.Equal(t, 1, tracker.concurrency)

	tracker = NewTracker(new(mockFetcher), log.New(io.Discard, "", 0), 8)
	assert.Equal(t, 8, tracker.concurrency)
}
