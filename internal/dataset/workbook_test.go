package dataset

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeSheet builds a fixture workbook with the given rows on one sheet.
// Nil cells are left unset so rows come back ragged, the way provider
// files do.
func writeSheet(t *testing.T, path, sheet string, rows [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))

	for i, row := range rows {
		for j, val := range row {
			if val == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestLoadFoF2Sheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fof2_guam.xlsx")
	writeSheet(t, path, "Guam", [][]interface{}{
		{"Guam ionosonde relative signal"},
		{"Date", "Time", 2022, 2023},
		{"15-Apr", "08:00", -5, 0},
		{"15-Apr", "09:00", nil, 2},
		{"29-Apr", "08:00", 1, 1},
		{"junk", "08:00", 1, 1},
	})

	loader := NewLoader(nil)
	period := DayRange("April 15-28", time.April, 15, 28)
	ds, err := loader.LoadFoF2Sheet(path, Guam, period)
	require.NoError(t, err)

	require.Equal(t, 3, ds.Len())
	assert.Equal(t, "Guam", ds.Station)
	assert.Equal(t, KindFoF2, ds.Kind)
	assert.Equal(t, "MHz", ds.Unit)
	assert.Equal(t, []string{"2022", "2023"}, ds.SeriesLabels())

	// Day 15 sits at the start of the period, so the baseline is 10.5
	// and the divisor 10.
	values := ds.Values()
	assert.InDelta(t, 10.0, values[0], 1e-9)
	assert.InDelta(t, 10.5, values[1], 1e-9)
	assert.InDelta(t, 10.7, values[2], 1e-9)

	loc := Guam.Location()
	assert.Equal(t, time.Date(2022, time.April, 15, 8, 0, 0, 0, loc).Unix(), ds.Start.Unix())
	assert.Equal(t, 8, ds.Records[0].Timestamp.In(loc).Hour())
}

func TestLoadFoF2SheetSerialCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fof2_serial.xlsx")
	// 45031 is 2023-04-15 as an Excel day serial; 0.5 is noon as a
	// fractional day.
	writeSheet(t, path, "Guam", [][]interface{}{
		{"Date", "Time", 2023},
		{45031, 0.5, 0},
	})

	loader := NewLoader(nil)
	ds, err := loader.LoadFoF2Sheet(path, Guam, WholeMonth("April", time.April))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())

	rec := ds.Records[0]
	assert.Equal(t, time.April, rec.Timestamp.Month())
	assert.Equal(t, 15, rec.Timestamp.Day())
	assert.Equal(t, 12, rec.Timestamp.Hour())

	// Signal 0 dB reads back the interpolated baseline: day 15 of a
	// 1..30 April span.
	want := 10.5 + 0.7*14.0/29.0
	assert.InDelta(t, want, rec.Value, 1e-9)
}

func TestLoadFoF2SheetColumnErrors(t *testing.T) {
	tests := []struct {
		name   string
		rows   [][]interface{}
		substr string
	}{
		{
			name: "missing time column",
			rows: [][]interface{}{
				{"Date", 2023},
				{"15-Apr", 1},
			},
			substr: "time",
		},
		{
			name: "missing date column",
			rows: [][]interface{}{
				{"Time", 2023},
				{"08:00", 1},
			},
			substr: "date",
		},
		{
			name: "missing year columns",
			rows: [][]interface{}{
				{"Date", "Time", "Notes"},
				{"15-Apr", "08:00", "calm"},
			},
			substr: "observation year",
		},
	}

	loader := NewLoader(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fof2.xlsx")
			writeSheet(t, path, "Guam", tt.rows)

			_, err := loader.LoadFoF2Sheet(path, Guam, WholeMonth("April", time.April))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingColumn)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestLoadFoF2SheetNoRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fof2_empty.xlsx")
	writeSheet(t, path, "Guam", [][]interface{}{
		{"Date", "Time", 2023},
	})

	loader := NewLoader(nil)
	_, err := loader.LoadFoF2Sheet(path, Guam, DayRange("April 15", time.April, 15, 15))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRows)
	assert.Contains(t, err.Error(), "April 15")
}

func TestLoadFoF2SheetPeriodFiltersEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fof2_march.xlsx")
	writeSheet(t, path, "Guam", [][]interface{}{
		{"Date", "Time", 2023},
		{"10-Mar", "08:00", 1},
	})

	loader := NewLoader(nil)
	_, err := loader.LoadFoF2Sheet(path, Guam, WholeMonth("April", time.April))
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestLoadFoF2SheetMissingFile(t *testing.T) {
	loader := NewLoader(nil)
	_, err := loader.LoadFoF2Sheet(filepath.Join(t.TempDir(), "absent.xlsx"), Guam, WholeMonth("April", time.April))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "want fs.ErrNotExist, got %v", err)
}

func TestLoadFoF2SheetMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong_sheet.xlsx")
	writeSheet(t, path, "Darwin", [][]interface{}{
		{"Date", "Time", 2023},
		{"15-Apr", "08:00", 1},
	})

	loader := NewLoader(nil)
	_, err := loader.LoadFoF2Sheet(path, Guam, WholeMonth("April", time.April))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestLoadSNRSheetDatetimeColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snr.xlsx")
	writeSheet(t, path, "SNR", [][]interface{}{
		{"DGFC receive log"},
		{"Datetime", "SNR (dB)", "Mode"},
		{"2023-04-15 18:30:00", -13.5, "JS8"},
		{"2023-04-15 18:40:00", -11.25, "JS8"},
		{"2023-04-16 06:10:00", -15, "JS8"},
	})

	loader := NewLoader(nil)
	ds, err := loader.LoadSNRSheet(path, "SNR", DGFC, "7.078 MHz")
	require.NoError(t, err)

	require.Equal(t, 3, ds.Len())
	assert.Equal(t, "DGFC", ds.Station)
	assert.Equal(t, KindSNR, ds.Kind)
	assert.Equal(t, "dB", ds.Unit)
	assert.Equal(t, []string{"7.078 MHz"}, ds.SeriesLabels())
	assert.Equal(t, 18, ds.Records[0].Timestamp.Hour())
	assert.InDelta(t, -13.5, ds.Records[0].Value, 1e-9)
}

func TestLoadSNRSheetDateTimePair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snr_pair.xlsx")
	writeSheet(t, path, "SNR", [][]interface{}{
		{"Date", "Time", "snr_db"},
		{"2023-04-15", "6:30:05 PM", -12},
	})

	loader := NewLoader(nil)
	ds, err := loader.LoadSNRSheet(path, "SNR", DGFC, "")
	require.NoError(t, err)

	require.Equal(t, 1, ds.Len())
	rec := ds.Records[0]
	assert.Equal(t, 2023, rec.Timestamp.Year())
	assert.Equal(t, 18, rec.Timestamp.Hour())
	assert.Equal(t, 30, rec.Timestamp.Minute())
	assert.Equal(t, 5, rec.Timestamp.Second())
}

func TestLoadSNRSheetFirstSheetFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snr_first.xlsx")
	writeSheet(t, path, "FieldLog", [][]interface{}{
		{"Datetime", "SNR"},
		{"2023-04-15 18:30:00", -9},
	})

	loader := NewLoader(nil)
	ds, err := loader.LoadSNRSheet(path, "", DGFC, "")
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestLoadSNRSheetUnparsableTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snr_bad.xlsx")
	writeSheet(t, path, "SNR", [][]interface{}{
		{"Datetime", "SNR"},
		{"2023-04-15 18:30:00", -12},
		{"n/a", -12},
		{"n/a", -13},
		{"n/a", -14},
		{"2023-04-15 18:40:00", -12},
	})

	loader := NewLoader(nil)
	_, err := loader.LoadSNRSheet(path, "SNR", DGFC, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparsableColumn)
	assert.Contains(t, err.Error(), "2 of 5")
}

func TestLoadSNRSheetMissingValueColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snr_noval.xlsx")
	writeSheet(t, path, "SNR", [][]interface{}{
		{"Datetime", "Mode"},
		{"2023-04-15 18:30:00", "JS8"},
	})

	loader := NewLoader(nil)
	_, err := loader.LoadSNRSheet(path, "SNR", DGFC, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "snr")
}

func TestLoadSNRSheetNoSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snr_empty.xlsx")
	writeSheet(t, path, "SNR", [][]interface{}{
		{"Datetime", "SNR"},
	})

	loader := NewLoader(nil)
	_, err := loader.LoadSNRSheet(path, "SNR", DGFC, "")
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestLoadThermalSheetSyntheticTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermal.xlsx")
	// Time-of-day cells carry no date, so the loader falls back to the
	// fixed 10 second sample interval.
	writeSheet(t, path, "Telemetry", [][]interface{}{
		{"Time", "Temp_C", "CPU_Speed_MHz"},
		{"12:00:00", 52.1, 600},
		{"12:00:10", 53.4, 600},
		{"12:00:20", 81.0, 400},
	})

	loader := NewLoader(nil)
	temps, clocks, err := loader.LoadThermalSheet(path, "Telemetry", "DGFC")
	require.NoError(t, err)

	require.Equal(t, 3, temps.Len())
	require.NotNil(t, clocks)
	require.Equal(t, 3, clocks.Len())

	base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base, temps.Records[0].Timestamp)
	assert.Equal(t, base.Add(10*time.Second), temps.Records[1].Timestamp)
	assert.Equal(t, base.Add(20*time.Second), temps.Records[2].Timestamp)

	assert.Equal(t, KindTemperature, temps.Kind)
	assert.Equal(t, "°C", temps.Unit)
	assert.Equal(t, KindClockSpeed, clocks.Kind)
	assert.InDelta(t, 400, clocks.Records[2].Value, 1e-9)
}

func TestLoadThermalSheetRealTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermal_stamps.xlsx")
	writeSheet(t, path, "Telemetry", [][]interface{}{
		{"Timestamp", "Temperature"},
		{"2023-04-15 12:00:00", 52.5},
		{"2023-04-15 12:00:10", 53.1},
	})

	loader := NewLoader(nil)
	temps, clocks, err := loader.LoadThermalSheet(path, "Telemetry", "DGFC")
	require.NoError(t, err)

	assert.Nil(t, clocks)
	require.Equal(t, 2, temps.Len())
	assert.Equal(t, time.Date(2023, time.April, 15, 12, 0, 0, 0, time.UTC), temps.Records[0].Timestamp)
}

func TestLoadThermalSheetNoTimeColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermal_notime.xlsx")
	// No timestamp label anywhere, so the first row becomes the header
	// and every stamp is synthesized.
	writeSheet(t, path, "Telemetry", [][]interface{}{
		{"Temp_C", "CPU_Speed_MHz"},
		{52.1, 600},
		{53.4, 600},
	})

	loader := NewLoader(nil)
	temps, clocks, err := loader.LoadThermalSheet(path, "Telemetry", "DGFC")
	require.NoError(t, err)

	require.Equal(t, 2, temps.Len())
	require.NotNil(t, clocks)
	base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(10*time.Second), temps.Records[1].Timestamp)
}

func TestLoadThermalSheetMissingTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermal_notemp.xlsx")
	writeSheet(t, path, "Telemetry", [][]interface{}{
		{"Time", "CPU_Speed_MHz"},
		{"12:00:00", 600},
	})

	loader := NewLoader(nil)
	_, _, err := loader.LoadThermalSheet(path, "Telemetry", "DGFC")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "temperature")
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		cell      string
		wantMonth time.Month
		wantDay   int
		ok        bool
	}{
		{"2023-04-15", time.April, 15, true},
		{"15-Apr", time.April, 15, true},
		{"2-Apr", time.April, 2, true},
		{"04/15/2023", time.April, 15, true},
		{"45031", time.April, 15, true},
		{"", 0, 0, false},
		{"yesterday", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			day, ok := parseDay(tt.cell)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.wantMonth, day.Month())
				assert.Equal(t, tt.wantDay, day.Day())
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		cell    string
		h, m, s int
		ok      bool
	}{
		{"08:00", 8, 0, 0, true},
		{"23:59:59", 23, 59, 59, true},
		{"2:30 PM", 14, 30, 0, true},
		{"6:30:05 pm", 18, 30, 5, true},
		{"0.5", 12, 0, 0, true},
		{"", 0, 0, 0, false},
		{"soon", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			h, m, s, ok := parseClock(tt.cell)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.h, h)
				assert.Equal(t, tt.m, m)
				assert.Equal(t, tt.s, s)
			}
		})
	}
}

func TestParseFloatCell(t *testing.T) {
	tests := []struct {
		cell string
		want float64
		ok   bool
	}{
		{"-13.5", -13.5, true},
		{"1,250.75", 1250.75, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{"-", 0, false},
		{"n/a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			v, ok := parseFloatCell(tt.cell)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, v, 1e-9)
			}
		})
	}
}

func TestFindHeaderRow(t *testing.T) {
	rows := [][]string{
		{"DGFC field campaign"},
		{""},
		{"Date", "Time", "2023"},
		{"15-Apr", "08:00", "1"},
	}
	idx, ok := findHeaderRow(rows)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = findHeaderRow([][]string{{"notes"}, {"values"}})
	assert.False(t, ok)
}
