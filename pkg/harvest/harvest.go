// Package harvest orchestrates the full WDI download pipeline: topic
// resolution, indicator enumeration, and per-indicator series fetches,
// folded into one result set with a per-country coverage summary.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/mercodata/wdi-harvest/pkg/indicators"
	"github.com/mercodata/wdi-harvest/pkg/pacing"
	"github.com/mercodata/wdi-harvest/pkg/series"
	"github.com/mercodata/wdi-harvest/pkg/topics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrNoTopics means keyword matching resolved zero topic ids across all
// categories. The run aborts before any indicator or series request.
var ErrNoTopics = errors.New("no topic ids resolved")

// Prometheus metrics for harvest runs.
var (
	harvestIndicatorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wdi_harvest_indicators_total",
		Help: "Indicators whose series fetch was attempted",
	})

	harvestIndicatorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wdi_harvest_indicator_failures_total",
		Help: "Indicators skipped after an exhausted series fetch",
	})

	harvestObservationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wdi_harvest_observations_total",
		Help: "Observation rows collected across all indicators",
	})
)

// Fetcher is the single network dependency, satisfied by *client.Client.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, params url.Values) ([]byte, error)
}

// Config is the explicit run configuration. Nothing here lives in package
// state, so several differently-configured runs can share a process.
type Config struct {
	// Countries maps display name to ISO3 code.
	Countries map[string]string `yaml:"countries"`

	// Categories are the keyword sets used to resolve topic ids.
	Categories []topics.Category `yaml:"categories"`

	StartYear int `yaml:"start_year"`
	EndYear   int `yaml:"end_year"`

	// PageSize requested from paginated endpoints.
	PageSize int `yaml:"page_size"`

	// IndicatorDelay is the courtesy pause between per-indicator fetches.
	IndicatorDelay time.Duration `yaml:"indicator_delay"`

	// IndicatorPageDelay and SeriesPageDelay are the courtesy pauses between
	// pages of the respective listings.
	IndicatorPageDelay time.Duration `yaml:"indicator_page_delay"`
	SeriesPageDelay    time.Duration `yaml:"series_page_delay"`

	// ProgressEvery controls how often a progress notice is logged.
	ProgressEvery int `yaml:"progress_every"`

	// Waiter overrides every wall-clock pause (for testing).
	Waiter pacing.Waiter `yaml:"-"`
}

// DefaultConfig returns the Mercosur + Chile run over the Economy & Growth
// and External Debt topic families, 2000-2024.
func DefaultConfig() Config {
	return Config{
		Countries: map[string]string{
			"Argentina": "ARG",
			"Brasil":    "BRA",
			"Paraguay":  "PRY",
			"Uruguay":   "URY",
			"Venezuela": "VEN",
			"Chile":     "CHL",
		},
		Categories: []topics.Category{
			{Name: "economy_growth", Keywords: []string{"economy", "growth"}},
			{Name: "external_debt", Keywords: []string{"debt"}},
		},
		StartYear:          2000,
		EndYear:            2024,
		PageSize:           20000,
		IndicatorDelay:     100 * time.Millisecond,
		IndicatorPageDelay: 200 * time.Millisecond,
		SeriesPageDelay:    250 * time.Millisecond,
		ProgressEvery:      25,
	}
}

// SummaryRow counts observation rows per (country, indicator). Rows with a
// null value are included: the count measures coverage rows, not non-null
// values.
type SummaryRow struct {
	CountryISO3   string
	IndicatorCode string
	NumPoints     int
}

// Result is the complete output of one run.
type Result struct {
	Indicators   []indicators.Indicator
	Observations []series.Observation
	Summary      []SummaryRow
}

// Driver runs the pipeline end to end.
type Driver struct {
	fetcher Fetcher
	config  Config
	waiter  pacing.Waiter
	logger  zerolog.Logger
}

// New creates a driver. Zero config fields take their defaults.
func New(f Fetcher, cfg Config) *Driver {
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 25
	}
	waiter := cfg.Waiter
	if waiter == nil {
		waiter = pacing.Sleeper{}
	}
	return &Driver{
		fetcher: f,
		config:  cfg,
		waiter:  waiter,
		logger:  log.With().Str("component", "harvest").Logger(),
	}
}

// Run executes the pipeline: resolve topics, enumerate indicators, fetch
// every series in stable code order with a courtesy delay between indicators.
// A failed indicator is logged and skipped; only total topic-resolution
// failure aborts the run.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	resolver := topics.NewResolver(d.fetcher)
	resolution, err := resolver.Resolve(ctx, d.config.Categories)
	if err != nil {
		return nil, fmt.Errorf("resolve topics: %w", err)
	}
	if len(resolution.TopicIDs) == 0 {
		return nil, ErrNoTopics
	}
	d.logger.Info().
		Strs("topic_ids", resolution.TopicIDs).
		Msg("Resolved topics")

	enumerator := indicators.New(d.fetcher, indicators.Config{
		PageSize:  d.config.PageSize,
		PageDelay: d.config.IndicatorPageDelay,
		Waiter:    d.config.Waiter,
	})
	catalog, err := enumerator.ListMany(ctx, resolution.TopicIDs)
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Code < catalog[j].Code })
	d.logger.Info().
		Int("indicators", len(catalog)).
		Msg("Indicator catalog ready")

	downloader := series.New(d.fetcher, series.Config{
		PageSize:  d.config.PageSize,
		PageDelay: d.config.SeriesPageDelay,
		Waiter:    d.config.Waiter,
	})
	countryCodes := d.countryCodes()

	var observations []series.Observation
	for i, ind := range catalog {
		harvestIndicatorsTotal.Inc()

		batch, err := downloader.Fetch(ctx, ind.Code, countryCodes, d.config.StartYear, d.config.EndYear)
		switch {
		case err != nil && ctx.Err() != nil:
			// Cancellation is not an indicator-level failure.
			return nil, ctx.Err()
		case err != nil:
			harvestIndicatorFailures.Inc()
			d.logger.Error().
				Err(err).
				Str("indicator", ind.Code).
				Msg("Series fetch failed, skipping indicator")
		case len(batch) > 0:
			harvestObservationsTotal.Add(float64(len(batch)))
			observations = append(observations, batch...)
		}

		if err := d.waiter.Wait(ctx, d.config.IndicatorDelay); err != nil {
			return nil, err
		}
		if (i+1)%d.config.ProgressEvery == 0 {
			d.logger.Info().
				Int("done", i+1).
				Int("total", len(catalog)).
				Msg("Series fetch progress")
		}
	}

	return &Result{
		Indicators:   catalog,
		Observations: observations,
		Summary:      Summarize(observations),
	}, nil
}

// countryCodes returns the registry's ISO3 codes in sorted order, so the
// request path segment is identical across runs.
func (d *Driver) countryCodes() []string {
	codes := make([]string, 0, len(d.config.Countries))
	for _, iso3 := range d.config.Countries {
		codes = append(codes, iso3)
	}
	sort.Strings(codes)
	return codes
}

// Summarize groups observations by (country, indicator) and counts rows,
// sorted by country ascending then count descending. Ties keep encounter
// order.
func Summarize(observations []series.Observation) []SummaryRow {
	type key struct {
		iso3 string
		code string
	}
	counts := make(map[key]int)
	var order []key
	for _, o := range observations {
		k := key{o.CountryISO3, o.IndicatorCode}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}

	rows := make([]SummaryRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, SummaryRow{
			CountryISO3:   k.iso3,
			IndicatorCode: k.code,
			NumPoints:     counts[k],
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CountryISO3 != rows[j].CountryISO3 {
			return rows[i].CountryISO3 < rows[j].CountryISO3
		}
		return rows[i].NumPoints > rows[j].NumPoints
	})
	return rows
}
