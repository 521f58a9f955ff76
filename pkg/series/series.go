// Package series fetches per-indicator observation time series for a batch
// of countries over a year range.
package series

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mercodata/wdi-harvest/pkg/pacing"
	"github.com/mercodata/wdi-harvest/pkg/pagination"
	"github.com/mercodata/wdi-harvest/pkg/wdi"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Fetcher is the single network dependency.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, params url.Values) ([]byte, error)
}

// Observation is one (country, year) data point. Year is nil when the
// upstream date token is not a plain year; Value is nil when the API reports
// no data. Duplicates from upstream are passed through unchanged.
type Observation struct {
	CountryISO3   string
	CountryName   string
	IndicatorCode string
	Year          *int
	Value         *float64
}

// Config holds series fetch parameters.
type Config struct {
	// PageSize requested per page.
	PageSize int

	// PageDelay is the courtesy pause between page requests.
	PageDelay time.Duration

	// Waiter performs the pauses; nil falls back to the real sleeper.
	Waiter pacing.Waiter
}

// DefaultConfig returns the production fetch parameters.
func DefaultConfig() Config {
	return Config{
		PageSize:  20000,
		PageDelay: 250 * time.Millisecond,
	}
}

// Downloader fetches time series from the country/indicator endpoint.
type Downloader struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// New creates a downloader. Zero config fields take their defaults.
func New(f Fetcher, cfg Config) *Downloader {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20000
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 250 * time.Millisecond
	}
	return &Downloader{
		fetcher: f,
		config:  cfg,
		logger:  log.With().Str("component", "series").Logger(),
	}
}

// Fetch walks every result page for one indicator across all requested
// countries. The country codes are joined into a single semicolon-delimited
// path segment so one page serves every country at once.
func (d *Downloader) Fetch(ctx context.Context, indicatorCode string, countryCodes []string, startYear, endYear int) ([]Observation, error) {
	path := "/country/" + strings.Join(countryCodes, ";") + "/indicator/" + indicatorCode
	walker := pagination.Walker{
		Delay:  d.config.PageDelay,
		Waiter: d.config.Waiter,
		Logger: d.logger,
	}

	records, err := walker.All(ctx, func(ctx context.Context, page int) (wdi.PageMeta, []json.RawMessage, error) {
		params := url.Values{}
		params.Set("date", fmt.Sprintf("%d:%d", startYear, endYear))
		params.Set("per_page", strconv.Itoa(d.config.PageSize))
		params.Set("page", strconv.Itoa(page))
		body, err := d.fetcher.GetJSON(ctx, path, params)
		if err != nil {
			return wdi.PageMeta{}, nil, err
		}
		return wdi.DecodePage(body)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch series %s: %w", indicatorCode, err)
	}

	observations := make([]Observation, 0, len(records))
	for _, raw := range records {
		var rec wdi.ObservationRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			d.logger.Warn().
				Err(err).
				Str("indicator", indicatorCode).
				Msg("Skipping undecodable observation record")
			continue
		}
		observations = append(observations, Observation{
			CountryISO3:   rec.CountryISO3,
			CountryName:   rec.CountryName(),
			IndicatorCode: indicatorCode,
			Year:          wdi.ParseYear(rec.Date),
			Value:         rec.Value,
		})
	}
	return observations, nil
}
