package dataset

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Column headers are an external contract set by the data provider.
// Matching is case and whitespace insensitive.
var (
	dateAliases     = []string{"date", "day", "obs date"}
	timeAliases     = []string{"time", "time (ut)", "time_ut", "hour"}
	datetimeAliases = []string{"datetime", "timestamp", "date time", "date_time"}
	snrAliases      = []string{"snr", "snr(db)", "snr (db)", "snr (dbm)", "snr_db"}
	tempAliases     = []string{"temp_c", "temp", "temperature", "temp (c)", "temp(c)"}
	clockMHzAliases = []string{"cpu_speed_mhz", "cpu_speed", "cpu mhz", "cpu speed (mhz)"}
)

const (
	// headerScanRows bounds the search for a header row; provider files
	// often carry title and blank rows above the table.
	headerScanRows = 10

	// minParseFraction is the share of cells in a timestamp column that
	// must parse before the column is accepted.
	minParseFraction = 0.8

	// syntheticInterval spaces fabricated timestamps for telemetry logs
	// whose time column is unusable.
	syntheticInterval = 10 * time.Second
)

// Loader reads measurement workbooks and tables into datasets.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadFoF2Sheet reads a station sheet of hourly ionosonde observations.
// The sheet carries DATE and TIME columns followed by one column per
// observation year holding relative signal strength in dB; values map to
// foF2 estimates through the station profile and rows outside the period
// are dropped.
func (l *Loader) LoadFoF2Sheet(path string, profile StationProfile, period Period) (*Dataset, error) {
	rows, err := l.openRows(path, profile.Sheet)
	if err != nil {
		return nil, err
	}

	headerIdx, ok := findHeaderRow(rows)
	if !ok {
		return nil, fmt.Errorf("sheet %q: %w", profile.Sheet, ErrNoHeaderRow)
	}
	header := rows[headerIdx]

	dateCol, timeCol := -1, -1
	type yearColumn struct {
		col  int
		year int
	}
	var years []yearColumn
	for j, cell := range header {
		h := normalizeHeader(cell)
		switch {
		case matchAlias(h, dateAliases):
			dateCol = j
		case matchAlias(h, timeAliases):
			timeCol = j
		default:
			if y, err := strconv.Atoi(h); err == nil && y >= 2000 && y <= 2099 {
				years = append(years, yearColumn{col: j, year: y})
			}
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("sheet %q: %w: date", profile.Sheet, ErrMissingColumn)
	}
	if timeCol < 0 {
		return nil, fmt.Errorf("sheet %q: %w: time", profile.Sheet, ErrMissingColumn)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("sheet %q: %w: observation year", profile.Sheet, ErrMissingColumn)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].year < years[j].year })

	loc := profile.Location()
	var records []Measurement
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if dateCol >= len(row) || timeCol >= len(row) {
			continue
		}
		day, ok := parseDay(row[dateCol])
		if !ok {
			continue
		}
		hh, mm, ss, ok := parseClock(row[timeCol])
		if !ok {
			continue
		}
		for _, yc := range years {
			if yc.col >= len(row) {
				continue
			}
			signal, ok := parseFloatCell(row[yc.col])
			if !ok {
				continue
			}
			ts := time.Date(yc.year, day.Month(), day.Day(), hh, mm, ss, 0, loc)
			if !period.Contains(ts) {
				continue
			}
			records = append(records, Measurement{
				Timestamp: ts,
				Station:   profile.Name,
				Series:    strconv.Itoa(yc.year),
				Value:     profile.EstimateFoF2(signal, period.Progress(ts)),
			})
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %q period %q: %w", profile.Sheet, period.Label, ErrNoRows)
	}

	l.logger.Debug("loaded ionosonde sheet",
		slog.String("path", path),
		slog.String("sheet", profile.Sheet),
		slog.String("period", period.Label),
		slog.Int("records", len(records)),
		slog.Int("years", len(years)))

	return newDataset(profile.Name, KindFoF2, records), nil
}

// LoadSNRSheet reads a signal report log from a workbook sheet. The
// sheet needs a timestamp (either one datetime column or a date plus
// time pair) and an SNR column under any of its known spellings.
func (l *Loader) LoadSNRSheet(path, sheet string, site Site, series string) (*Dataset, error) {
	rows, err := l.openRows(path, sheet)
	if err != nil {
		return nil, err
	}
	records, err := parseSNRRows(rows, site, series)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	l.logger.Debug("loaded signal report sheet",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("records", len(records)))

	return newDataset(site.Name, KindSNR, records), nil
}

// LoadThermalSheet reads a CPU telemetry log. The temperature dataset is
// always returned; the clock-speed dataset is nil when the sheet has no
// speed column. When fewer than 80% of time cells parse, timestamps are
// synthesized at a fixed 10 second interval, matching the logger's
// sample rate.
func (l *Loader) LoadThermalSheet(path, sheet, station string) (temps, clocks *Dataset, err error) {
	rows, err := l.openRows(path, sheet)
	if err != nil {
		return nil, nil, err
	}

	headerIdx, ok := headerRowOrFirst(rows)
	if !ok {
		return nil, nil, fmt.Errorf("sheet %q: %w", sheet, ErrNoHeaderRow)
	}
	header := rows[headerIdx]

	timeCol, tempCol, speedCol := -1, -1, -1
	for j, cell := range header {
		h := normalizeHeader(cell)
		switch {
		case matchAlias(h, timeAliases) || matchAlias(h, datetimeAliases):
			timeCol = j
		case matchAlias(h, tempAliases):
			tempCol = j
		case matchAlias(h, clockMHzAliases):
			speedCol = j
		}
	}
	if tempCol < 0 {
		return nil, nil, fmt.Errorf("sheet %q: %w: temperature", sheet, ErrMissingColumn)
	}

	data := rows[headerIdx+1:]
	stamps := make([]time.Time, len(data))
	parsed := 0
	attempts := 0
	if timeCol >= 0 {
		for i, row := range data {
			if timeCol >= len(row) || strings.TrimSpace(row[timeCol]) == "" {
				continue
			}
			attempts++
			if ts, ok := parseStamp(row[timeCol], time.UTC); ok {
				stamps[i] = ts
				parsed++
			}
		}
	}
	if attempts == 0 || float64(parsed) < minParseFraction*float64(attempts) {
		base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
		for i := range stamps {
			stamps[i] = base.Add(time.Duration(i) * syntheticInterval)
		}
		l.logger.Warn("time column unusable, synthesizing timestamps",
			slog.String("sheet", sheet),
			slog.Int("parsed", parsed),
			slog.Int("attempts", attempts))
	}

	var tempRecords, speedRecords []Measurement
	for i, row := range data {
		if stamps[i].IsZero() {
			continue
		}
		if tempCol < len(row) {
			if v, ok := parseFloatCell(row[tempCol]); ok {
				tempRecords = append(tempRecords, Measurement{
					Timestamp: stamps[i],
					Station:   station,
					Series:    "cpu",
					Value:     v,
				})
			}
		}
		if speedCol >= 0 && speedCol < len(row) {
			if v, ok := parseFloatCell(row[speedCol]); ok {
				speedRecords = append(speedRecords, Measurement{
					Timestamp: stamps[i],
					Station:   station,
					Series:    "cpu",
					Value:     v,
				})
			}
		}
	}
	if len(tempRecords) == 0 {
		return nil, nil, fmt.Errorf("sheet %q: %w", sheet, ErrNoRows)
	}

	l.logger.Debug("loaded telemetry sheet",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("temperature_records", len(tempRecords)),
		slog.Int("speed_records", len(speedRecords)))

	temps = newDataset(station, KindTemperature, tempRecords)
	if len(speedRecords) > 0 {
		clocks = newDataset(station, KindClockSpeed, speedRecords)
	}
	return temps, clocks, nil
}

// openRows opens a workbook and returns the raw cells of one sheet. An
// empty sheet name selects the workbook's first sheet.
func (l *Loader) openRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("workbook %s: %w: %q", path, ErrSheetNotFound, sheet)
	}
	return rows, nil
}

// parseSNRRows extracts timestamped SNR samples from raw table cells.
// Shared by the workbook and CSV entry points.
func parseSNRRows(rows [][]string, site Site, series string) ([]Measurement, error) {
	headerIdx, ok := headerRowOrFirst(rows)
	if !ok {
		return nil, ErrNoHeaderRow
	}
	header := rows[headerIdx]

	dateCol, timeCol, stampCol, valueCol := -1, -1, -1, -1
	valueName := ""
	for j, cell := range header {
		h := normalizeHeader(cell)
		switch {
		case matchAlias(h, datetimeAliases):
			stampCol = j
		case matchAlias(h, dateAliases):
			dateCol = j
		case matchAlias(h, timeAliases):
			timeCol = j
		case matchAlias(h, snrAliases):
			valueCol = j
			valueName = strings.TrimSpace(cell)
		}
	}
	if valueCol < 0 {
		return nil, fmt.Errorf("%w: snr", ErrMissingColumn)
	}
	if stampCol < 0 && (dateCol < 0 || timeCol < 0) {
		return nil, fmt.Errorf("%w: timestamp", ErrMissingColumn)
	}

	loc := site.Location()
	var records []Measurement
	attempts, parsed := 0, 0
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]

		var ts time.Time
		var ok bool
		if stampCol >= 0 {
			if stampCol >= len(row) || strings.TrimSpace(row[stampCol]) == "" {
				continue
			}
			attempts++
			ts, ok = parseStamp(row[stampCol], loc)
		} else {
			if dateCol >= len(row) || timeCol >= len(row) {
				continue
			}
			if strings.TrimSpace(row[dateCol]) == "" && strings.TrimSpace(row[timeCol]) == "" {
				continue
			}
			attempts++
			var day time.Time
			var hh, mm, ss int
			var dayOK, clockOK bool
			day, dayOK = parseDay(row[dateCol])
			hh, mm, ss, clockOK = parseClock(row[timeCol])
			if dayOK && clockOK {
				year := day.Year()
				if year == 0 {
					year = time.Now().Year()
				}
				ts = time.Date(year, day.Month(), day.Day(), hh, mm, ss, 0, loc)
				ok = true
			}
		}
		if !ok {
			continue
		}
		parsed++

		if valueCol >= len(row) {
			continue
		}
		v, okV := parseFloatCell(row[valueCol])
		if !okV {
			continue
		}
		records = append(records, Measurement{
			Timestamp: ts,
			Station:   site.Name,
			Series:    series,
			Value:     v,
		})
	}
	if attempts > 0 && float64(parsed) < minParseFraction*float64(attempts) {
		return nil, fmt.Errorf("%w: timestamp (%d of %d rows parsed)", ErrUnparsableColumn, parsed, attempts)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", valueName, ErrNoRows)
	}
	return records, nil
}

// headerRowOrFirst locates the header row for signal and telemetry
// tables. When no leading row names a timestamp column the first row is
// treated as the header, as those exports usually start at row 0.
func headerRowOrFirst(rows [][]string) (int, bool) {
	if idx, ok := findHeaderRow(rows); ok {
		return idx, true
	}
	if len(rows) > 0 {
		return 0, true
	}
	return 0, false
}

// findHeaderRow scans the leading rows for one that names a timestamp
// column alongside at least one other label.
func findHeaderRow(rows [][]string) (int, bool) {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		hasStamp, hasOther := false, false
		for _, cell := range rows[i] {
			h := normalizeHeader(cell)
			if h == "" {
				continue
			}
			if matchAlias(h, dateAliases) || matchAlias(h, timeAliases) || matchAlias(h, datetimeAliases) {
				hasStamp = true
			} else {
				hasOther = true
			}
		}
		if hasStamp && hasOther {
			return i, true
		}
	}
	return 0, false
}

func normalizeHeader(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func matchAlias(header string, aliases []string) bool {
	for _, a := range aliases {
		if header == a {
			return true
		}
	}
	return false
}

var dayLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-06",
	"2-Jan-06",
	"02-Jan",
	"2-Jan",
	"Jan-02",
	"Jan-2",
}

// parseDay parses a date cell. Cells without a year parse to year zero;
// ionosonde sheets supply the year from the observation column instead.
func parseDay(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Excel serial date: days since 1899-12-30.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 {
		epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
		return epoch.Add(time.Duration(serial * 24 * float64(time.Hour))), true
	}
	return time.Time{}, false
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
}

// parseClock parses a time-of-day cell, including Excel fractional-day
// serials.
func parseClock(cell string) (hh, mm, ss int, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(cell))
	if s == "" {
		return 0, 0, 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), t.Second(), true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 0 && serial < 1 {
		secs := int(serial * 24 * 3600)
		return secs / 3600, (secs % 3600) / 60, secs % 60, true
	}
	return 0, 0, 0, false
}

var stampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"02-Jan-06 15:04:05",
}

// parseStamp parses a combined date-time cell in the given location.
func parseStamp(cell string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range stampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 1 {
		epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, loc)
		return epoch.Add(time.Duration(serial * 24 * float64(time.Hour))), true
	}
	return time.Time{}, false
}

// parseFloatCell parses a numeric cell, tolerating thousands separators.
func parseFloatCell(cell string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
