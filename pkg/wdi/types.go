package wdi

import (
	"strconv"
	"strings"
)

// Topic is one subject category from the /topic endpoint.
type Topic struct {
	ID   string `json:"id"`
	Name string `json:"value"`
}

// IndicatorRecord is one catalog row from /topic/{id}/indicator.
// Fields the API omits decode to empty strings, never to an error.
type IndicatorRecord struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Unit               string `json:"unit"`
	SourceNote         string `json:"sourceNote"`
	SourceOrganization string `json:"sourceOrganization"`
}

// namedRef is the {id, value} pair the API nests for countries and indicators.
type namedRef struct {
	ID   string `json:"id"`
	Name string `json:"value"`
}

// ObservationRecord is one data point from /country/{codes}/indicator/{code}.
// The nested country object may be absent; Value stays nil when the API
// reports no data for that (country, year).
type ObservationRecord struct {
	CountryISO3 string    `json:"countryiso3code"`
	Country     *namedRef `json:"country"`
	Date        string    `json:"date"`
	Value       *float64  `json:"value"`
}

// CountryName returns the display name, or "" when the nested object is absent.
func (r ObservationRecord) CountryName() string {
	if r.Country == nil {
		return ""
	}
	return r.Country.Name
}

// ParseYear converts a date token to a year. Only plain integer years parse;
// monthly or quarterly tokens like "2015M03" yield nil rather than an error,
// so one odd record never fails a whole batch.
func ParseYear(date string) *int {
	y, err := strconv.Atoi(strings.TrimSpace(date))
	if err != nil {
		return nil
	}
	return &y
}
