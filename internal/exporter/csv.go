package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// Writer exports tables into an output directory.
type Writer struct {
	outDir string
	logger *slog.Logger
}

// NewWriter creates a writer rooted at outDir. A nil logger falls back
// to slog.Default.
func NewWriter(outDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{outDir: outDir, logger: logger}
}

// SummaryRow is one line of the batch summary table.
type SummaryRow struct {
	Station    string
	Period     string
	Samples    int
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
	PeakHour   int
	TroughHour int
	MUF        float64
	OWF        float64
	Primary    bool
	Secondary  bool
}

var summaryHeaders = []string{
	"station", "period", "samples",
	"mean_fof2_mhz", "std_dev_mhz", "min_mhz", "max_mhz",
	"peak_hour", "trough_hour",
	"muf_mhz", "owf_mhz",
	"primary_usable", "secondary_usable",
}

// WriteSummaryCSV writes the station summary table. Relative paths
// resolve against the writer's output directory.
func (w *Writer) WriteSummaryCSV(path string, rows []SummaryRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Station,
			r.Period,
			strconv.Itoa(r.Samples),
			formatMHz(r.Mean),
			formatMHz(r.StdDev),
			formatMHz(r.Min),
			formatMHz(r.Max),
			strconv.Itoa(r.PeakHour),
			strconv.Itoa(r.TroughHour),
			formatMHz(r.MUF),
			formatMHz(r.OWF),
			formatYesNo(r.Primary),
			formatYesNo(r.Secondary),
		})
	}
	return w.WriteCSV(path, summaryHeaders, records)
}

// WriteCSV writes headers and records to path with a UTF-8 BOM so the
// file opens cleanly in Excel.
func (w *Writer) WriteCSV(path string, headers []string, records [][]string) error {
	fullPath := w.resolve(path)
	w.logger.Info("writing csv",
		slog.String("path", fullPath),
		slog.Int("records", len(records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// resolve keeps absolute paths as given and joins relative ones onto
// the output directory.
func (w *Writer) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.outDir, path)
}
