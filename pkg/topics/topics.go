// Package topics resolves World Bank topic identifiers by fuzzy name match.
package topics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mercodata/wdi-harvest/pkg/wdi"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Fetcher is the single network dependency: one resilient GET returning the
// raw JSON body.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, params url.Values) ([]byte, error)
}

// Category is a named keyword set. A topic matches a category when its name
// contains every keyword, case-insensitively.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Resolution is the outcome of matching categories against the topic catalog.
type Resolution struct {
	// TopicIDs is the ordered, deduplicated union of all matched ids.
	TopicIDs []string

	// EmptyCategories names the categories that matched nothing. Non-fatal
	// on its own; an empty TopicIDs overall is the caller's fatal condition.
	EmptyCategories []string
}

// Resolver lists and filters topics.
type Resolver struct {
	fetcher Fetcher
	logger  zerolog.Logger
}

// NewResolver creates a topic resolver on top of a fetcher.
func NewResolver(f Fetcher) *Resolver {
	return &Resolver{
		fetcher: f,
		logger:  log.With().Str("component", "topics").Logger(),
	}
}

// List fetches the full topic catalog. The endpoint returns all topics on the
// first page, so there is no pagination loop here, unlike the indicator and
// series listings.
func (r *Resolver) List(ctx context.Context) ([]wdi.Topic, error) {
	body, err := r.fetcher.GetJSON(ctx, "/topic", nil)
	if err != nil {
		return nil, err
	}
	_, records, err := wdi.DecodePage(body)
	if err != nil {
		return nil, err
	}

	topics := make([]wdi.Topic, 0, len(records))
	for _, raw := range records {
		var t wdi.Topic
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, nil
}

// Resolve lists the catalog once and matches every category against it,
// logging a warning for each category that yields nothing.
func (r *Resolver) Resolve(ctx context.Context, categories []Category) (Resolution, error) {
	topics, err := r.List(ctx)
	if err != nil {
		return Resolution{}, err
	}
	res := Match(topics, categories)
	for _, name := range res.EmptyCategories {
		r.logger.Warn().
			Str("category", name).
			Msg("No topics matched category keywords")
	}
	return res, nil
}

// Select returns the ids of topics whose names contain every keyword,
// case-insensitively, in catalog order.
func Select(topics []wdi.Topic, keywords []string) []string {
	var ids []string
	for _, t := range topics {
		name := strings.ToLower(t.Name)
		matched := true
		for _, kw := range keywords {
			if !strings.Contains(name, strings.ToLower(kw)) {
				matched = false
				break
			}
		}
		if matched {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Match runs Select per category and concatenates the results, deduplicating
// while preserving first-seen order. An id matched by two categories keeps
// its earliest position.
func Match(topics []wdi.Topic, categories []Category) Resolution {
	var res Resolution
	seen := make(map[string]bool)
	for _, cat := range categories {
		ids := Select(topics, cat.Keywords)
		if len(ids) == 0 {
			res.EmptyCategories = append(res.EmptyCategories, cat.Name)
			continue
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				res.TopicIDs = append(res.TopicIDs, id)
			}
		}
	}
	return res
}
