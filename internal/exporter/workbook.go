package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"bearwave/internal/dataset"
	"bearwave/internal/solar"
)

// SunRow pairs one measurement with the solar context of its local day.
type SunRow struct {
	Timestamp time.Time
	Value     float64
	Sunrise   time.Time
	Sunset    time.Time
	Daylight  bool
}

// BuildSunRows joins measurements with the sunrise and sunset of their
// local calendar day. Days with no solar record keep zero times and
// count as night.
func BuildSunRows(ds *dataset.Dataset, sun []solar.Times) []SunRow {
	byDay := make(map[string]solar.Times, len(sun))
	for _, t := range sun {
		byDay[t.Date.Format("2006-01-02")] = t
	}

	rows := make([]SunRow, 0, ds.Len())
	for _, rec := range ds.Records {
		row := SunRow{Timestamp: rec.Timestamp, Value: rec.Value}
		if t, ok := byDay[rec.Timestamp.Format("2006-01-02")]; ok {
			row.Sunrise = t.Sunrise
			row.Sunset = t.Sunset
			row.Daylight = t.Daylight(rec.Timestamp)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteSunWorkbook writes the sun-enriched copy of a signal log as a
// fresh workbook with one data sheet.
func (w *Writer) WriteSunWorkbook(path, sheet, unit string, rows []SunRow) error {
	fullPath := w.resolve(path)
	w.logger.Info("writing sun workbook",
		slog.String("path", fullPath),
		slog.Int("rows", len(rows)))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := []string{"Datetime", "Value (" + unit + ")", "Sunrise", "Sunset", "Daylight"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []any{
			row.Timestamp.Format("2006-01-02 15:04:05"),
			row.Value,
			formatClock(row.Sunrise),
			formatClock(row.Sunset),
			formatDayNight(row.Daylight),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// SunWorkbookName derives the enriched copy's file name from the source
// workbook, inserting a _with_sun suffix before the extension.
func SunWorkbookName(source string) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)] + "_with_sun" + ext
}

