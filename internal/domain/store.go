// Package domain contains the core data structures and domain logic for the
// application.
package domain

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar-date form used for every per-day key in the
// store ("YYYY-MM-DD"). GitHub's traffic API reports days as midnight-UTC
// timestamps; reducing them to this layout is the gateway's job.
const DateLayout = "2006-01-02"

// DailyRecord holds one repository's clone traffic for a single day.
// Uniques is reported by the platform and is not clamped against Count;
// the store preserves upstream values as-is.
type DailyRecord struct {
	Count   int `json:"count"`
	Uniques int `json:"uniques"`
}

// RepositoryHistory accumulates one repository's per-day clone records,
// keyed by DateLayout date.
type RepositoryHistory struct {
	DailyClones map[string]DailyRecord `json:"daily_clones"`
}

// CumulativeRecord is the across-all-repositories aggregate for one day:
// the running total of clones up to and including that day, and that day's
// own sum.
type CumulativeRecord struct {
	TotalClones int `json:"total_clones"`
	DailyClones int `json:"daily_clones"`
}

// Store is the full persisted accumulation: per-repository history plus the
// derived cumulative series. It is the core domain entity of this
// application, and its JSON form is the on-disk contract consumed by the
// visualizer and by anything else reading the data file.
//
// LastUpdated is kept as an opaque ISO-8601 string rather than a time.Time:
// files written by earlier tooling carry offset-less timestamps that Go's
// RFC 3339 parser would reject on load.
type Store struct {
	Repositories map[string]*RepositoryHistory `json:"repositories"`
	Cumulative   map[string]CumulativeRecord   `json:"cumulative"`
	LastUpdated  string                        `json:"last_updated"`
}

// RepoTraffic is one collector result: the clone records reported for a
// single repository in the platform's current rolling window.
type RepoTraffic struct {
	Name  string
	Daily map[string]DailyRecord
}

// RepoTotal pairs a repository name with its lifetime clone count.
type RepoTotal struct {
	Name   string
	Clones int
}

// NewStore returns an empty store with its maps initialized.
func NewStore() *Store {
	return &Store{
		Repositories: make(map[string]*RepositoryHistory),
		Cumulative:   make(map[string]CumulativeRecord),
	}
}

// Merge folds a freshly collected batch into the store.
//
// Every (repository, date) pair in the batch overwrites whatever the store
// already holds for that pair: the platform reports a rolling total per day,
// not an increment, and the newest poll is authoritative because a day's
// count can still be refined shortly after the day ends. Adding instead of
// overwriting would double-count every date the 14-day windows overlap on.
//
// Repositories present in the store but absent from the batch keep their
// history untouched; the merge never deletes repository keys, so a
// repository deleted or renamed upstream stays in the accumulated data.
//
// The cumulative series is recomputed from scratch afterwards so that
// revisions to historical days propagate into every later running total.
func (s *Store) Merge(batch []RepoTraffic, now time.Time) {
	for _, rt := range batch {
		hist, ok := s.Repositories[rt.Name]
		if !ok || hist == nil {
			hist = &RepositoryHistory{DailyClones: make(map[string]DailyRecord)}
			s.Repositories[rt.Name] = hist
		}
		if hist.DailyClones == nil {
			hist.DailyClones = make(map[string]DailyRecord)
		}
		for date, rec := range rt.Daily {
			hist.DailyClones[date] = rec
		}
	}
	s.recomputeCumulative()
	s.LastUpdated = now.Format(time.RFC3339)
}

// recomputeCumulative rebuilds the cumulative series over all distinct dates
// across all repositories, in ascending chronological order.
func (s *Store) recomputeCumulative() {
	daily := make(map[string]int)
	for _, hist := range s.Repositories {
		if hist == nil {
			continue
		}
		for date, rec := range hist.DailyClones {
			daily[date] += rec.Count
		}
	}

	dates := make([]string, 0, len(daily))
	for date := range daily {
		dates = append(dates, date)
	}
	sortDatesAscending(dates)

	cumulative := make(map[string]CumulativeRecord, len(dates))
	total := 0
	for _, date := range dates {
		total += daily[date]
		cumulative[date] = CumulativeRecord{TotalClones: total, DailyClones: daily[date]}
	}
	s.Cumulative = cumulative
}

// sortDatesAscending orders date keys chronologically. Fixed-width ISO-8601
// dates would sort the same way as raw strings, but parsing keeps the
// ordering honest if the key format ever drifts.
func sortDatesAscending(dates []string) {
	sort.Slice(dates, func(i, j int) bool {
		ti, erri := time.Parse(DateLayout, dates[i])
		tj, errj := time.Parse(DateLayout, dates[j])
		if erri != nil || errj != nil {
			return dates[i] < dates[j]
		}
		return ti.Before(tj)
	})
}

// Validate checks the store's structural invariants: every per-day key must
// be a DateLayout date and every count non-negative. It deliberately does not
// require uniques <= count, which the upstream platform itself does not
// guarantee.
func (s *Store) Validate() error {
	for name, hist := range s.Repositories {
		if hist == nil {
			continue
		}
		for date, rec := range hist.DailyClones {
			if _, err := time.Parse(DateLayout, date); err != nil {
				return fmt.Errorf("repository %q: invalid date key %q", name, date)
			}
			if rec.Count < 0 || rec.Uniques < 0 {
				return fmt.Errorf("repository %q: negative clone count on %s", name, date)
			}
		}
	}
	for date, rec := range s.Cumulative {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return fmt.Errorf("cumulative: invalid date key %q", date)
		}
		if rec.TotalClones < 0 || rec.DailyClones < 0 {
			return fmt.Errorf("cumulative: negative clone count on %s", date)
		}
	}
	return nil
}

// Empty reports whether the store holds no collected data at all.
func (s *Store) Empty() bool {
	return len(s.Repositories) == 0 && len(s.Cumulative) == 0
}

// SortedCumulativeDates returns the cumulative series' dates in ascending
// chronological order.
func (s *Store) SortedCumulativeDates() []string {
	dates := make([]string, 0, len(s.Cumulative))
	for date := range s.Cumulative {
		dates = append(dates, date)
	}
	sortDatesAscending(dates)
	return dates
}

// DailyTotals returns the across-repository daily clone sums in date order.
func (s *Store) DailyTotals() (dates []string, totals []int) {
	dates = s.SortedCumulativeDates()
	totals = make([]int, len(dates))
	for i, date := range dates {
		totals[i] = s.Cumulative[date].DailyClones
	}
	return dates, totals
}

// TotalClones returns the running total at the most recent tracked date, or
// zero for an empty store.
func (s *Store) TotalClones() int {
	dates := s.SortedCumulativeDates()
	if len(dates) == 0 {
		return 0
	}
	return s.Cumulative[dates[len(dates)-1]].TotalClones
}

// DaysTracked returns how many distinct dates the store has accumulated.
func (s *Store) DaysTracked() int {
	return len(s.Cumulative)
}

// ReposWithData returns how many repositories have at least one recorded day.
func (s *Store) ReposWithData() int {
	n := 0
	for _, hist := range s.Repositories {
		if hist != nil && len(hist.DailyClones) > 0 {
			n++
		}
	}
	return n
}

// TopRepositories returns up to n repositories ordered by lifetime clone
// count, highest first; repositories with zero clones are omitted. Ties are
// broken by name so the ordering is deterministic.
func (s *Store) TopRepositories(n int) []RepoTotal {
	totals := make([]RepoTotal, 0, len(s.Repositories))
	for name, hist := range s.Repositories {
		if hist == nil {
			continue
		}
		total := 0
		for _, rec := range hist.DailyClones {
			total += rec.Count
		}
		if total > 0 {
			totals = append(totals, RepoTotal{Name: name, Clones: total})
		}
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Clones != totals[j].Clones {
			return totals[i].Clones > totals[j].Clones
		}
		return totals[i].Name < totals[j].Name
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

// RepoCumulativeSeries returns one repository's own dates (ascending) and its
// running clone total over them. Both slices are empty when the repository is
// unknown or has no recorded days.
func (s *Store) RepoCumulativeSeries(name string) (dates []string, totals []int) {
	hist, ok := s.Repositories[name]
	if !ok || hist == nil {
		return nil, nil
	}
	dates = make([]string, 0, len(hist.DailyClones))
	for date := range hist.DailyClones {
		dates = append(dates, date)
	}
	sortDatesAscending(dates)
	totals = make([]int, len(dates))
	total := 0
	for i, date := range dates {
		total += hist.DailyClones[date].Count
		totals[i] = total
	}
	return dates, totals
}
