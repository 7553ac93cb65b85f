// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST client.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/karthikredddy7github/github-clone-tracker/internal/domain"
)

// Sentinel errors for the failure modes callers branch on. The gateway wraps
// them around the underlying API error, so errors.Is works on the result.
var (
	// ErrBadCredentials means the token is missing, expired, or lacks the
	// scopes needed to list repositories. Nothing can be fetched without a
	// valid credential, so callers should treat this as fatal.
	ErrBadCredentials = errors.New("github: bad credentials")

	// ErrRateLimited means the API quota is exhausted, either the primary
	// hourly limit or a secondary abuse limit the waiter gave up on.
	ErrRateLimited = errors.New("github: rate limited")

	// ErrRepoInaccessible means clone traffic for one specific repository
	// cannot be read: the repository is gone, or the token has no push
	// access to it (the traffic API requires push access). Callers should
	// skip the repository and continue with the rest.
	ErrRepoInaccessible = errors.New("github: repository traffic not accessible")
)

// Repository identifies one repository visible to the credential.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// TrafficFetcher defines the behavior of a gateway for fetching clone
// traffic from GitHub.
type TrafficFetcher interface {
	// ListOwnedRepositories returns every repository owned by the
	// authenticated user, following pagination to the end.
	ListOwnedRepositories(ctx context.Context) ([]Repository, error)
	// FetchCloneTraffic returns the repository's daily clone records for
	// the trailing window the platform retains (at most 14 days), keyed
	// by calendar date.
	FetchCloneTraffic(ctx context.Context, repo Repository) (map[string]domain.DailyRecord, error)
}

// GitHubGateway is the concrete implementation of the TrafficFetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	logger     *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (TrafficFetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient: github.NewClient(httpClient),
		logger:     logger,
	}, nil
}

// ListOwnedRepositories fetches all repositories owned by the authenticated
// user via the REST API, one page of 100 at a time.
func (g *GitHubGateway) ListOwnedRepositories(ctx context.Context) ([]Repository, error) {
	g.logger.Println("Fetching repository list using REST API...")
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var repos []Repository
	for {
		page, resp, err := g.restClient.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			if isRateLimit(err) {
				return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
			}
			if code := errorStatus(err); code == http.StatusUnauthorized || code == http.StatusForbidden {
				return nil, fmt.Errorf("%w: %v", ErrBadCredentials, err)
			}
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}
		for _, repo := range page {
			repos = append(repos, Repository{
				Owner: repo.GetOwner().GetLogin(),
				Name:  repo.GetName(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of repositories...")
	}
	g.logger.Printf("Found %d repositories\n", len(repos))
	return repos, nil
}

// FetchCloneTraffic fetches one repository's daily clone breakdown. GitHub
// reports each day as a midnight-UTC timestamp with a rolling count and
// unique-cloner figure; timestamps are reduced to plain calendar dates here
// so the rest of the system never deals in times.
func (g *GitHubGateway) FetchCloneTraffic(ctx context.Context, repo Repository) (map[string]domain.DailyRecord, error) {
	traffic, _, err := g.restClient.Repositories.ListTrafficClones(ctx, repo.Owner, repo.Name, &github.TrafficBreakdownOptions{Per: "day"})
	if err != nil {
		if isRateLimit(err) {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		if code := errorStatus(err); code == http.StatusForbidden || code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %v", ErrRepoInaccessible, err)
		}
		return nil, fmt.Errorf("failed to fetch clone traffic for %s: %w", repo, err)
	}

	daily := make(map[string]domain.DailyRecord, len(traffic.Clones))
	for _, day := range traffic.Clones {
		date := day.GetTimestamp().UTC().Format(domain.DateLayout)
		daily[date] = domain.DailyRecord{
			Count:   day.GetCount(),
			Uniques: day.GetUniques(),
		}
	}
	return daily, nil
}

// isRateLimit reports whether err is either of go-github's rate limit error
// types (primary quota or secondary abuse detection).
func isRateLimit(err error) bool {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	return errors.As(err, &rateErr) || errors.As(err, &abuseErr)
}

// errorStatus extracts the HTTP status code from a go-github error response,
// or 0 when err carries none.
func errorStatus(err error) int {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}
