// Package pagination walks every page of a paginated World Bank endpoint
// sequentially, with a courtesy delay between page requests.
package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mercodata/wdi-harvest/pkg/pacing"
	"github.com/mercodata/wdi-harvest/pkg/wdi"
	"github.com/rs/zerolog"
)

// FetchPage fetches a single page and returns its envelope metadata plus the
// raw payload records.
type FetchPage func(ctx context.Context, page int) (wdi.PageMeta, []json.RawMessage, error)

// Walker drives the page loop: request page 1, read the reported page count,
// and keep requesting while page < pages. A missing count means one page.
type Walker struct {
	// Delay is the courtesy pause between consecutive page requests.
	Delay time.Duration

	// Waiter performs the pause; nil falls back to the real sleeper.
	Waiter pacing.Waiter

	Logger zerolog.Logger
}

// All collects the records of every page, in page order. Any page failure
// aborts the walk; partial results are discarded.
func (w Walker) All(ctx context.Context, fetch FetchPage) ([]json.RawMessage, error) {
	waiter := w.Waiter
	if waiter == nil {
		waiter = pacing.Sleeper{}
	}

	var records []json.RawMessage
	page := 1
	for {
		meta, batch, err := fetch(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		records = append(records, batch...)

		pages := meta.Pages
		if pages < 1 {
			pages = 1
		}
		if page >= pages {
			return records, nil
		}

		if pages > 1 && page == 1 {
			w.Logger.Debug().
				Int("pages", pages).
				Int("total", meta.Total).
				Msg("Walking additional pages")
		}

		page++
		if err := waiter.Wait(ctx, w.Delay); err != nil {
			return nil, err
		}
	}
}
