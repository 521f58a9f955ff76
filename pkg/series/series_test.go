package series

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/mercodata/wdi-harvest/internal/testutil"
	"github.com/mercodata/wdi-harvest/pkg/client"
)

const gdpPath = "/country/ARG;CHL/indicator/NY.GDP.MKTP.CD"

func newTestDownloader(t *testing.T, mock *testutil.MockAPI) *Downloader {
	t.Helper()

	cfg := client.DefaultConfig()
	cfg.BaseURL = mock.URL()
	cfg.MaxAttempts = 1
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	return New(c, Config{Waiter: &testutil.WaitRecorder{}})
}

func TestFetch_TwoCountriesTwoYears(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	var gotQuery url.Values
	mock.SetHandler(gdpPath, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(testutil.Envelope(1, 1, 20000, 4, `[
			{"countryiso3code":"ARG","country":{"id":"AR","value":"Argentina"},"date":"2001","value":268696750000},
			{"countryiso3code":"ARG","country":{"id":"AR","value":"Argentina"},"date":"2000","value":284203750000},
			{"countryiso3code":"CHL","country":{"id":"CL","value":"Chile"},"date":"2001","value":70979923960},
			{"countryiso3code":"CHL","country":{"id":"CL","value":"Chile"},"date":"2000","value":77860932152}
		]`)))
	})

	d := newTestDownloader(t, mock)
	got, err := d.Fetch(context.Background(), "NY.GDP.MKTP.CD", []string{"ARG", "CHL"}, 2000, 2001)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotQuery.Get("date") != "2000:2001" {
		t.Errorf("date = %q, want 2000:2001", gotQuery.Get("date"))
	}
	if len(got) != 4 {
		t.Fatalf("observations = %d, want 4", len(got))
	}

	first := got[0]
	if first.CountryISO3 != "ARG" || first.CountryName != "Argentina" {
		t.Errorf("country = %q/%q, want ARG/Argentina", first.CountryISO3, first.CountryName)
	}
	if first.IndicatorCode != "NY.GDP.MKTP.CD" {
		t.Errorf("indicator = %q", first.IndicatorCode)
	}
	if first.Year == nil || *first.Year != 2001 {
		t.Errorf("year = %v, want 2001", first.Year)
	}
	if first.Value == nil || *first.Value != 268696750000 {
		t.Errorf("value = %v, want 268696750000", first.Value)
	}
}

func TestFetch_NullValueAndBadDate(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetJSON("/country/VEN/indicator/DT.DOD.DECT.CD", testutil.Envelope(1, 1, 20000, 2, `[
		{"countryiso3code":"VEN","country":{"id":"VE","value":"Venezuela, RB"},"date":"2020","value":null},
		{"countryiso3code":"VEN","country":{"id":"VE","value":"Venezuela, RB"},"date":"2020M06","value":1.25}
	]`))

	d := newTestDownloader(t, mock)
	got, err := d.Fetch(context.Background(), "DT.DOD.DECT.CD", []string{"VEN"}, 2000, 2024)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("observations = %d, want 2: a bad date degrades, never drops the batch", len(got))
	}

	if got[0].Value != nil {
		t.Errorf("null value decoded to %v", got[0].Value)
	}
	if got[0].Year == nil || *got[0].Year != 2020 {
		t.Errorf("year = %v, want 2020", got[0].Year)
	}
	if got[1].Year != nil {
		t.Errorf("unparsable date gave year %v, want nil", got[1].Year)
	}
	if got[1].Value == nil || *got[1].Value != 1.25 {
		t.Errorf("value = %v, want 1.25", got[1].Value)
	}
}

func TestFetch_WalksAllPages(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetHandler(gdpPath, testutil.PagedHandler([]string{
		`[{"countryiso3code":"ARG","country":{"id":"AR","value":"Argentina"},"date":"2001","value":1}]`,
		`[{"countryiso3code":"ARG","country":{"id":"AR","value":"Argentina"},"date":"2000","value":2}]`,
	}))

	d := newTestDownloader(t, mock)
	got, err := d.Fetch(context.Background(), "NY.GDP.MKTP.CD", []string{"ARG", "CHL"}, 2000, 2001)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if mock.RequestsFor(gdpPath) != 2 {
		t.Errorf("requests = %d, want 2", mock.RequestsFor(gdpPath))
	}
	if len(got) != 2 {
		t.Fatalf("observations = %d, want 2", len(got))
	}
	if *got[0].Year != 2001 || *got[1].Year != 2000 {
		t.Errorf("page order lost: years = %d, %d", *got[0].Year, *got[1].Year)
	}
}

func TestFetch_AbsentCountryObject(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetJSON("/country/ARG/indicator/X.1", testutil.Envelope(1, 1, 20000, 1,
		`[{"countryiso3code":"ARG","date":"2015","value":3.5}]`))

	d := newTestDownloader(t, mock)
	got, err := d.Fetch(context.Background(), "X.1", []string{"ARG"}, 2000, 2024)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got[0].CountryName != "" {
		t.Errorf("CountryName = %q, want empty for absent nested object", got[0].CountryName)
	}
}
