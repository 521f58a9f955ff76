// Package export writes a harvest result as CSV tables and a two-sheet XLSX
// workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mercodata/wdi-harvest/pkg/harvest"
	"github.com/mercodata/wdi-harvest/pkg/indicators"
	"github.com/mercodata/wdi-harvest/pkg/series"
	"github.com/xuri/excelize/v2"
)

// Paths are the artifact filenames derived from one output prefix.
type Paths struct {
	IndicatorsCSV   string
	ObservationsCSV string
	SummaryCSV      string
	Workbook        string
}

// PathsFor derives the artifact filenames from a prefix.
func PathsFor(prefix string) Paths {
	return Paths{
		IndicatorsCSV:   prefix + "_indicators_meta.csv",
		ObservationsCSV: prefix + "_observations.csv",
		SummaryCSV:      prefix + "_summary_counts.csv",
		Workbook:        prefix + ".xlsx",
	}
}

var (
	indicatorHeader   = []string{"indicator_code", "indicator_name", "unit", "source_note", "source_org", "topic_ids"}
	observationHeader = []string{"country_iso3", "country", "indicator", "year", "value"}
	summaryHeader     = []string{"country_iso3", "indicator", "num_points"}
)

func indicatorRow(ind indicators.Indicator) []string {
	return []string{ind.Code, ind.Name, ind.Unit, ind.SourceNote, ind.SourceOrg, strings.Join(ind.TopicIDs, ";")}
}

func observationRow(o series.Observation) []string {
	return []string{o.CountryISO3, o.CountryName, o.IndicatorCode, formatYear(o.Year), formatValue(o.Value)}
}

func summaryRow(r harvest.SummaryRow) []string {
	return []string{r.CountryISO3, r.IndicatorCode, strconv.Itoa(r.NumPoints)}
}

func formatYear(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// WriteIndicatorsCSV writes the indicator metadata table.
func WriteIndicatorsCSV(path string, inds []indicators.Indicator) error {
	rows := make([][]string, 0, len(inds))
	for _, ind := range inds {
		rows = append(rows, indicatorRow(ind))
	}
	return writeCSV(path, indicatorHeader, rows)
}

// WriteObservationsCSV writes the observations table.
func WriteObservationsCSV(path string, observations []series.Observation) error {
	rows := make([][]string, 0, len(observations))
	for _, o := range observations {
		rows = append(rows, observationRow(o))
	}
	return writeCSV(path, observationHeader, rows)
}

// WriteSummaryCSV writes the per-country/per-indicator coverage counts.
func WriteSummaryCSV(path string, summary []harvest.SummaryRow) error {
	rows := make([][]string, 0, len(summary))
	for _, r := range summary {
		rows = append(rows, summaryRow(r))
	}
	return writeCSV(path, summaryHeader, rows)
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// WriteWorkbook writes the combined workbook with an indicators_meta sheet
// and an observations sheet. Null years and values become empty cells.
func WriteWorkbook(path string, inds []indicators.Indicator, observations []series.Observation) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	const metaSheet = "indicators_meta"
	if err := f.SetSheetName("Sheet1", metaSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSheetRow(f, metaSheet, 1, toCells(indicatorHeader)); err != nil {
		return err
	}
	for i, ind := range inds {
		if err := writeSheetRow(f, metaSheet, i+2, toCells(indicatorRow(ind))); err != nil {
			return err
		}
	}

	const obsSheet = "observations"
	if _, err := f.NewSheet(obsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeSheetRow(f, obsSheet, 1, toCells(observationHeader)); err != nil {
		return err
	}
	for i, o := range observations {
		cells := []interface{}{o.CountryISO3, o.CountryName, o.IndicatorCode, nil, nil}
		if o.Year != nil {
			cells[3] = *o.Year
		}
		if o.Value != nil {
			cells[4] = *o.Value
		}
		if err := writeSheetRow(f, obsSheet, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// WriteAll writes the indicator, observation, and workbook artifacts. The
// summary table is written separately by the caller so its failure cannot
// block delivery of the main artifacts.
func WriteAll(prefix string, result *harvest.Result) (Paths, error) {
	paths := PathsFor(prefix)
	if err := WriteIndicatorsCSV(paths.IndicatorsCSV, result.Indicators); err != nil {
		return paths, err
	}
	if err := WriteObservationsCSV(paths.ObservationsCSV, result.Observations); err != nil {
		return paths, err
	}
	if err := WriteWorkbook(paths.Workbook, result.Indicators, result.Observations); err != nil {
		return paths, err
	}
	return paths, nil
}
