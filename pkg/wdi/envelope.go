// Package wdi defines the wire model for World Bank API v2 responses:
// the two-element pagination envelope and the per-endpoint record shapes,
// with explicit absence behavior for every field.
package wdi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PageMeta is the pagination metadata every paginated endpoint reports.
type PageMeta struct {
	Page    int
	Pages   int
	PerPage int
	Total   int
}

// flexInt absorbs the API's habit of returning numeric fields either as JSON
// numbers or as quoted strings (per_page in particular).
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parse numeric field %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

type pageMetaWire struct {
	Page    flexInt  `json:"page"`
	Pages   *flexInt `json:"pages"`
	PerPage flexInt  `json:"per_page"`
	Total   flexInt  `json:"total"`
}

// DecodePage splits the [metadata, records] envelope returned by every World
// Bank listing endpoint. A missing pages field counts as a single page, and a
// missing or null second element yields zero records rather than an error.
func DecodePage(body []byte) (PageMeta, []json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return PageMeta{}, nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(elems) == 0 {
		return PageMeta{}, nil, fmt.Errorf("decode envelope: empty response array")
	}

	var wire pageMetaWire
	if err := json.Unmarshal(elems[0], &wire); err != nil {
		return PageMeta{}, nil, fmt.Errorf("decode page metadata: %w", err)
	}
	meta := PageMeta{
		Page:    int(wire.Page),
		Pages:   1,
		PerPage: int(wire.PerPage),
		Total:   int(wire.Total),
	}
	if wire.Pages != nil {
		meta.Pages = int(*wire.Pages)
	}

	var records []json.RawMessage
	if len(elems) > 1 && string(elems[1]) != "null" {
		if err := json.Unmarshal(elems[1], &records); err != nil {
			return PageMeta{}, nil, fmt.Errorf("decode records: %w", err)
		}
	}
	return meta, records, nil
}
