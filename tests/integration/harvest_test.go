// Package integration exercises the full pipeline, from topic resolution
// through artifact export, against the in-process mock API.
package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mercodata/wdi-harvest/internal/testutil"
	"github.com/mercodata/wdi-harvest/pkg/client"
	"github.com/mercodata/wdi-harvest/pkg/export"
	"github.com/mercodata/wdi-harvest/pkg/harvest"
)

func setupMock(t *testing.T) *testutil.MockAPI {
	t.Helper()

	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)

	mock.SetJSON("/topic", testutil.Envelope(1, 1, 50, 2,
		`[{"id":"3","value":"Economy & Growth"},{"id":"20","value":"External Debt"}]`))
	mock.SetJSON("/topic/3/indicator", testutil.Envelope(1, 1, 20000, 1,
		`[{"id":"NY.GDP.MKTP.CD","name":"GDP (current US$)","sourceNote":"GDP at purchaser prices","sourceOrganization":"World Bank"}]`))
	mock.SetJSON("/topic/20/indicator", testutil.Envelope(1, 1, 20000, 1,
		`[{"id":"DT.DOD.DECT.CD","name":"External debt stocks, total"}]`))
	mock.SetHandler("/country/ARG;CHL/indicator/NY.GDP.MKTP.CD", testutil.PagedHandler([]string{
		`[{"countryiso3code":"ARG","country":{"id":"AR","value":"Argentina"},"date":"2001","value":268696750000},
		  {"countryiso3code":"ARG","country":{"id":"AR","value":"Argentina"},"date":"2000","value":284203750000}]`,
		`[{"countryiso3code":"CHL","country":{"id":"CL","value":"Chile"},"date":"2001","value":70979923960},
		  {"countryiso3code":"CHL","country":{"id":"CL","value":"Chile"},"date":"2000","value":77860932152}]`,
	}))
	mock.SetJSON("/country/ARG;CHL/indicator/DT.DOD.DECT.CD", testutil.Envelope(1, 1, 20000, 1,
		`[{"countryiso3code":"ARG","country":{"id":"AR","value":"Argentina"},"date":"2001","value":null}]`))

	return mock
}

func runOnce(t *testing.T, mock *testutil.MockAPI, prefix string) *harvest.Result {
	t.Helper()

	ccfg := client.DefaultConfig()
	ccfg.BaseURL = mock.URL()
	c, err := client.New(ccfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	cfg := harvest.DefaultConfig()
	cfg.Countries = map[string]string{"Argentina": "ARG", "Chile": "CHL"}
	cfg.StartYear = 2000
	cfg.EndYear = 2001
	cfg.Waiter = &testutil.WaitRecorder{}

	result, err := harvest.New(c, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := export.WriteAll(prefix, result); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := export.WriteSummaryCSV(export.PathsFor(prefix).SummaryCSV, result.Summary); err != nil {
		t.Fatalf("WriteSummaryCSV() error = %v", err)
	}
	return result
}

func TestPipeline_EndToEnd(t *testing.T) {
	mock := setupMock(t)
	prefix := filepath.Join(t.TempDir(), "wdi")

	result := runOnce(t, mock, prefix)

	if len(result.Indicators) != 2 {
		t.Errorf("indicators = %d, want 2", len(result.Indicators))
	}
	// 4 GDP observations over two pages plus 1 null-valued debt row.
	if len(result.Observations) != 5 {
		t.Errorf("observations = %d, want 5", len(result.Observations))
	}
	if mock.RequestsFor("/country/ARG;CHL/indicator/NY.GDP.MKTP.CD") != 2 {
		t.Errorf("GDP series requests = %d, want 2 pages",
			mock.RequestsFor("/country/ARG;CHL/indicator/NY.GDP.MKTP.CD"))
	}

	for _, path := range []string{
		prefix + "_indicators_meta.csv",
		prefix + "_observations.csv",
		prefix + "_summary_counts.csv",
		prefix + ".xlsx",
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact %s not written: %v", path, err)
		}
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	mock := setupMock(t)
	dir := t.TempDir()

	runOnce(t, mock, filepath.Join(dir, "first"))
	runOnce(t, mock, filepath.Join(dir, "second"))

	for _, suffix := range []string{"_indicators_meta.csv", "_observations.csv", "_summary_counts.csv"} {
		a, err := os.ReadFile(filepath.Join(dir, "first"+suffix))
		if err != nil {
			t.Fatalf("read first%s: %v", suffix, err)
		}
		b, err := os.ReadFile(filepath.Join(dir, "second"+suffix))
		if err != nil {
			t.Fatalf("read second%s: %v", suffix, err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s differs between identical runs", suffix)
		}
	}
}
