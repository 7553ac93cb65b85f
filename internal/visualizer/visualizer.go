// Package visualizer renders charts and a markdown summary from the
// accumulated clone data. It only reads the store; chart artifacts land in
// an output directory whose file names are a stable contract (READMEs and
// dashboards embed them by name).
package visualizer

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/karthikredddy7github/github-clone-tracker/internal/domain"
)

const (
	chartWidth  = 1200
	chartHeight = 600

	breakdownRepos = 15
	trendRepos     = 5
	summaryRepos   = 10
)

// Palette carried over from the charts earlier tooling produced.
var (
	colorCumulative = drawing.ColorFromHex("2E86AB")
	colorDaily      = drawing.ColorFromHex("A23B72")
	colorBreakdown  = drawing.ColorFromHex("F18F01")

	trendPalette = []drawing.Color{
		drawing.ColorFromHex("2E86AB"),
		drawing.ColorFromHex("A23B72"),
		drawing.ColorFromHex("F18F01"),
		drawing.ColorFromHex("C73E1D"),
		drawing.ColorFromHex("6A994E"),
	}
)

// Visualizer writes every chart artifact plus the summary for one store.
type Visualizer struct {
	outputDir string
	logger    *log.Logger
}

// New creates a new Visualizer writing into outputDir.
func New(outputDir string, logger *log.Logger) *Visualizer {
	return &Visualizer{
		outputDir: outputDir,
		logger:    logger,
	}
}

// Render generates all visualizations. Charts whose data is too thin to
// plot (a line needs at least two days; bars need at least one non-zero
// value) are skipped with a log line rather than failing the run, so a
// freshly bootstrapped store still renders whatever it can.
func (v *Visualizer) Render(store *domain.Store) error {
	if err := os.MkdirAll(v.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", v.outputDir, err)
	}

	if err := v.renderCumulativeClones(store); err != nil {
		return err
	}
	if err := v.renderDailyActivity(store); err != nil {
		return err
	}
	if err := v.renderRepositoryBreakdown(store); err != nil {
		return err
	}
	if err := v.renderRepositoryTrends(store); err != nil {
		return err
	}
	return v.writeSummary(store)
}

// renderCumulativeClones draws the running total over time as a filled line.
func (v *Visualizer) renderCumulativeClones(store *domain.Store) error {
	dates := store.SortedCumulativeDates()
	if len(dates) < 2 || store.TotalClones() == 0 {
		v.logger.Println("Skipping cumulative_clones.png: need at least two days of clone activity")
		return nil
	}

	xs, err := parseDates(dates)
	if err != nil {
		return err
	}
	ys := make([]float64, len(dates))
	for i, date := range dates {
		ys[i] = float64(store.Cumulative[date].TotalClones)
	}

	graph := chart.Chart{
		Title:  "Cumulative Repository Clones Over Time",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Total Clones",
			// Anchor the axis at zero; the running total never decreases,
			// so the last value is the maximum.
			Range: &chart.ContinuousRange{Min: 0, Max: ys[len(ys)-1]},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Total clones",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: colorCumulative,
					StrokeWidth: 2,
					FillColor:   colorCumulative.WithAlpha(76),
				},
			},
		},
	}

	return v.writeChart("cumulative_clones.png", func(w io.Writer) error {
		return graph.Render(chart.PNG, w)
	})
}

// renderDailyActivity draws one bar per tracked day, summed across all
// repositories.
func (v *Visualizer) renderDailyActivity(store *domain.Store) error {
	dates, totals := store.DailyTotals()
	if len(dates) == 0 || store.TotalClones() == 0 {
		v.logger.Println("Skipping daily_activity.png: no clone activity recorded yet")
		return nil
	}

	stride := labelStride(len(dates))
	bars := make([]chart.Value, len(dates))
	for i, date := range dates {
		label := ""
		if i%stride == 0 {
			label = date
		}
		bars[i] = chart.Value{
			Label: label,
			Value: float64(totals[i]),
			Style: chart.Style{
				FillColor:   colorDaily.WithAlpha(180),
				StrokeColor: colorDaily,
			},
		}
	}

	graph := chart.BarChart{
		Title:        "Daily Clone Activity",
		Width:        chartWidth,
		Height:       chartHeight,
		BarWidth:     30,
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}

	return v.writeChart("daily_activity.png", func(w io.Writer) error {
		return graph.Render(chart.PNG, w)
	})
}

// renderRepositoryBreakdown draws the top repositories by lifetime clones.
func (v *Visualizer) renderRepositoryBreakdown(store *domain.Store) error {
	top := store.TopRepositories(breakdownRepos)
	if len(top) == 0 {
		v.logger.Println("Skipping repository_breakdown.png: no repository has clone data")
		return nil
	}

	bars := make([]chart.Value, len(top))
	for i, repo := range top {
		bars[i] = chart.Value{
			Label: repo.Name,
			Value: float64(repo.Clones),
			Style: chart.Style{
				FillColor:   colorBreakdown.WithAlpha(200),
				StrokeColor: colorBreakdown,
			},
		}
	}

	graph := chart.BarChart{
		Title:        "Top Repositories by Clone Count",
		Width:        chartWidth,
		Height:       800,
		BarWidth:     40,
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}

	return v.writeChart("repository_breakdown.png", func(w io.Writer) error {
		return graph.Render(chart.PNG, w)
	})
}

// renderRepositoryTrends draws each top repository's own cumulative series
// as one line. Repositories with a single tracked day are left out; a line
// needs two points.
func (v *Visualizer) renderRepositoryTrends(store *domain.Store) error {
	var (
		series []chart.Series
		maxY   float64
	)
	for i, repo := range store.TopRepositories(trendRepos) {
		dates, totals := store.RepoCumulativeSeries(repo.Name)
		if len(dates) < 2 {
			v.logger.Printf("Leaving %s out of repository_trends.png: fewer than two tracked days", repo.Name)
			continue
		}
		xs, err := parseDates(dates)
		if err != nil {
			return err
		}
		ys := make([]float64, len(totals))
		for j, total := range totals {
			ys[j] = float64(total)
		}
		if last := ys[len(ys)-1]; last > maxY {
			maxY = last
		}
		series = append(series, chart.TimeSeries{
			Name:    repo.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: trendPalette[i%len(trendPalette)],
				StrokeWidth: 2,
			},
		})
	}
	if len(series) == 0 {
		v.logger.Println("Skipping repository_trends.png: no repository has two days of clone data")
		return nil
	}

	graph := chart.Chart{
		Title:  "Top 5 Repositories - Clone Trends",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Cumulative Clones",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return v.writeChart("repository_trends.png", func(w io.Writer) error {
		return graph.Render(chart.PNG, w)
	})
}

// writeSummary writes STATS_SUMMARY.md, the textual companion to the charts.
func (v *Visualizer) writeSummary(store *domain.Store) error {
	var b strings.Builder
	b.WriteString("# Clone Statistics Summary\n\n")

	lastUpdated := store.LastUpdated
	if lastUpdated == "" {
		lastUpdated = "Unknown"
	}
	fmt.Fprintf(&b, "**Last Updated:** %s\n\n", lastUpdated)

	if store.DaysTracked() > 0 {
		_, totals := store.DailyTotals()
		daily := make([]float64, len(totals))
		for i, total := range totals {
			daily[i] = float64(total)
		}
		// The series is non-empty here, so these cannot fail.
		mean, _ := stats.Mean(daily)
		median, _ := stats.Median(daily)
		peak, _ := stats.Max(daily)

		b.WriteString("## Overall Statistics\n\n")
		fmt.Fprintf(&b, "- **Total Clones (All Time):** %d\n", store.TotalClones())
		fmt.Fprintf(&b, "- **Days Tracked:** %d\n", store.DaysTracked())
		fmt.Fprintf(&b, "- **Average Daily Clones:** %.1f\n", mean)
		fmt.Fprintf(&b, "- **Median Daily Clones:** %.1f\n", median)
		fmt.Fprintf(&b, "- **Peak Daily Clones:** %.0f\n\n", peak)
	}

	b.WriteString("## Repository Statistics\n\n")
	fmt.Fprintf(&b, "- **Repositories Tracked:** %d\n\n", store.ReposWithData())

	if top := store.TopRepositories(summaryRepos); len(top) > 0 {
		b.WriteString("## Top 10 Repositories by Clones\n\n")
		for i, repo := range top {
			fmt.Fprintf(&b, "%d. **%s**: %d clones\n", i+1, repo.Name, repo.Clones)
		}
	}

	path := filepath.Join(v.outputDir, "STATS_SUMMARY.md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	v.logger.Printf("Saved %s", path)
	return nil
}

// writeChart renders one chart into the output directory, removing the file
// again if rendering fails partway.
func (v *Visualizer) writeChart(name string, render func(io.Writer) error) error {
	path := filepath.Join(v.outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	v.logger.Printf("Saved %s", path)
	return nil
}

// labelStride returns the bar-label stride keeping roughly twenty x-axis
// labels no matter how many days are tracked.
func labelStride(n int) int {
	const maxLabels = 20
	if n <= maxLabels {
		return 1
	}
	return (n + maxLabels - 1) / maxLabels
}

func parseDates(dates []string) ([]time.Time, error) {
	parsed := make([]time.Time, len(dates))
	for i, date := range dates {
		t, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q in store: %w", date, err)
		}
		parsed[i] = t
	}
	return parsed, nil
}
