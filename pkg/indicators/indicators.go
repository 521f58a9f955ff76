// Package indicators enumerates the indicator catalog under World Bank topics.
package indicators

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
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

// Indicator is one catalog row. Fields the API omits stay empty strings.
// TopicIDs records every topic the indicator appeared under, in first-seen
// order; all other fields come from the first occurrence.
type Indicator struct {
	Code       string
	Name       string
	Unit       string
	SourceNote string
	SourceOrg  string
	TopicIDs   []string
}

// Config holds enumeration parameters.
type Config struct {
	// PageSize requested per page. Large by default to minimize round trips.
	PageSize int

	// PageDelay is the courtesy pause between page requests.
	PageDelay time.Duration

	// Waiter performs the pauses; nil falls back to the real sleeper.
	Waiter pacing.Waiter
}

// DefaultConfig returns the production enumeration parameters.
func DefaultConfig() Config {
	return Config{
		PageSize:  20000,
		PageDelay: 200 * time.Millisecond,
	}
}

// Enumerator walks the indicator listing of one or more topics.
type Enumerator struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// New creates an enumerator. Zero config fields take their defaults.
func New(f Fetcher, cfg Config) *Enumerator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20000
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 200 * time.Millisecond
	}
	return &Enumerator{
		fetcher: f,
		config:  cfg,
		logger:  log.With().Str("component", "indicators").Logger(),
	}
}

// List walks every result page for one topic and returns its full indicator
// catalog. An empty catalog is a valid outcome, not an error.
func (e *Enumerator) List(ctx context.Context, topicID string) ([]Indicator, error) {
	walker := pagination.Walker{
		Delay:  e.config.PageDelay,
		Waiter: e.config.Waiter,
		Logger: e.logger,
	}
	path := "/topic/" + topicID + "/indicator"

	records, err := walker.All(ctx, func(ctx context.Context, page int) (wdi.PageMeta, []json.RawMessage, error) {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(e.config.PageSize))
		params.Set("page", strconv.Itoa(page))
		body, err := e.fetcher.GetJSON(ctx, path, params)
		if err != nil {
			return wdi.PageMeta{}, nil, err
		}
		return wdi.DecodePage(body)
	})
	if err != nil {
		return nil, fmt.Errorf("list indicators for topic %s: %w", topicID, err)
	}

	out := make([]Indicator, 0, len(records))
	for _, raw := range records {
		var rec wdi.IndicatorRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			e.logger.Warn().
				Err(err).
				Str("topic_id", topicID).
				Msg("Skipping undecodable indicator record")
			continue
		}
		out = append(out, Indicator{
			Code:       rec.ID,
			Name:       rec.Name,
			Unit:       rec.Unit,
			SourceNote: rec.SourceNote,
			SourceOrg:  rec.SourceOrganization,
			TopicIDs:   []string{topicID},
		})
	}

	e.logger.Info().
		Str("topic_id", topicID).
		Int("indicators", len(out)).
		Msg("Topic catalog fetched")
	return out, nil
}

// ListMany merges the catalogs of several topics, deduplicating by indicator
// code. The first occurrence keeps its fields and position; later sightings
// under other topics only add their topic id to TopicIDs.
func (e *Enumerator) ListMany(ctx context.Context, topicIDs []string) ([]Indicator, error) {
	var merged []Indicator
	index := make(map[string]int)

	for _, tid := range topicIDs {
		batch, err := e.List(ctx, tid)
		if err != nil {
			return nil, err
		}
		for _, ind := range batch {
			if i, ok := index[ind.Code]; ok {
				first := &merged[i]
				if !contains(first.TopicIDs, tid) {
					first.TopicIDs = append(first.TopicIDs, tid)
				}
				continue
			}
			index[ind.Code] = len(merged)
			merged = append(merged, ind)
		}
	}
	return merged, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
