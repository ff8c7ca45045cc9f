package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths is the single source of truth for every location the suite
// reads or writes.
type Paths struct {
	DataDir   string
	OutputDir string
	ChartsDir string
	TablesDir string
}

// NewPaths resolves the configured directories to absolute paths
// against the working directory. Charts and tables land in fixed
// subdirectories of the output directory.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output dir: %w", err)
	}
	return &Paths{
		DataDir:   dataDir,
		OutputDir: outDir,
		ChartsDir: filepath.Join(outDir, "charts"),
		TablesDir: filepath.Join(outDir, "tables"),
	}, nil
}

// Input resolves a workbook name against the data directory. Absolute
// paths pass through untouched.
func (p *Paths) Input(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// EnsureDirectories creates the output tree. The data directory is the
// operator's; if it is missing the read reports file-not-found instead.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.ChartsDir, p.TablesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// LogResolution records where the suite will read and write.
func (p *Paths) LogResolution(logger *slog.Logger) {
	logger.Info("paths resolved",
		slog.String("data_dir", p.DataDir),
		slog.String("output_dir", p.OutputDir))
}
