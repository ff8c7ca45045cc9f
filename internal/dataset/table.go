package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
)

// LoadSNRCSV reads a signal report log from a delimited text file. The
// same header aliases and parse thresholds apply as for workbook sheets.
func (l *Loader) LoadSNRCSV(path string, site Site, series string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table %s: %w", path, ErrNoRows)
	}

	records, err := parseSNRRows(rows, site, series)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", path, err)
	}

	l.logger.Debug("loaded signal report table",
		slog.String("path", path),
		slog.Int("records", len(records)))

	return newDataset(site.Name, KindSNR, records), nil
}
