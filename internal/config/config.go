package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"bearwave/internal/dataset"
)

// Config is the complete suite configuration.
type Config struct {
	Paths        PathsConfig        `yaml:"paths" envconfig:"PATHS"`
	Logging      LoggingConfig      `yaml:"logging" envconfig:"LOGGING"`
	SpaceWeather SpaceWeatherConfig `yaml:"space_weather" envconfig:"SPACE_WEATHER"`
	Charts       ChartsConfig       `yaml:"charts" envconfig:"CHARTS"`
	Analyses     []AnalysisConfig   `yaml:"analyses" ignored:"true" validate:"min=1,dive"`
}

// PathsConfig locates the input spreadsheets and the report output.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// SpaceWeatherConfig controls the optional NOAA feed lookup.
type SpaceWeatherConfig struct {
	Enabled bool          `yaml:"enabled" envconfig:"ENABLED"`
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// ChartsConfig carries the tunable reduction parameters.
type ChartsConfig struct {
	SmoothingWindow int     `yaml:"smoothing_window" envconfig:"SMOOTHING_WINDOW" validate:"gte=1"`
	SNRThreshold    float64 `yaml:"snr_threshold" envconfig:"SNR_THRESHOLD"`
	TopWindows      int     `yaml:"top_windows" envconfig:"TOP_WINDOWS" validate:"gte=1,lte=20"`
}

// AnalysisConfig names one batch entry: which analysis to run, the
// workbook it reads, and the station context it carries.
type AnalysisConfig struct {
	Name    string       `yaml:"name" validate:"required"`
	Kind    string       `yaml:"kind" validate:"required,oneof=fof2 snr thermal"`
	Input   string       `yaml:"input" validate:"required"`
	Sheet   string       `yaml:"sheet"`
	Station string       `yaml:"station" validate:"required"`
	Period  PeriodConfig `yaml:"period"`
}

// PeriodConfig selects the slice of the year an analysis covers.
type PeriodConfig struct {
	Label   string `yaml:"label"`
	Month   int    `yaml:"month" validate:"omitempty,gte=1,lte=12"`
	FromDay int    `yaml:"from_day" validate:"omitempty,gte=1,lte=31"`
	ToDay   int    `yaml:"to_day" validate:"omitempty,gte=1,lte=31"`
}

// Period converts the block into a dataset period. An absent month
// defaults to April, the field campaign month, and an absent day range
// covers the whole month.
func (p PeriodConfig) Period() dataset.Period {
	month := time.Month(p.Month)
	if p.Month == 0 {
		month = time.April
	}
	label := p.Label
	if label == "" {
		label = month.String()
	}
	if p.FromDay == 0 && p.ToDay == 0 {
		return dataset.WholeMonth(label, month)
	}
	from, to := p.FromDay, p.ToDay
	if from == 0 {
		from = 1
	}
	if to == 0 {
		to = from
	}
	return dataset.DayRange(label, month, from, to)
}

// Load reads configuration in three layers: built-in defaults, then an
// optional YAML file, then environment variables prefixed BEARWAVE.
// Each layer only touches the keys it defines.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("BEARWAVE", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile probes the conventional locations for a config file.
func findConfigFile() string {
	locations := []string{
		"bearwave.yaml",
		"configs/bearwave.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(analysisStructLevel, AnalysisConfig{})
	return v
}

// analysisStructLevel enforces the cross-field rule that ionospheric
// entries name a known ionosonde profile.
func analysisStructLevel(sl validator.StructLevel) {
	a := sl.Current().Interface().(AnalysisConfig)
	if a.Kind == "fof2" {
		if _, ok := dataset.ProfileFor(a.Station); !ok {
			sl.ReportError(a.Station, "Station", "station", "ionosonde", "")
		}
	}
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if c.SpaceWeather.Timeout <= 0 {
		c.SpaceWeather.Timeout = 10 * time.Second
	}
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// Default returns the built-in configuration: the standard field
// campaign batch over both reference ionosondes plus the DGFC signal
// and telemetry logs.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		SpaceWeather: SpaceWeatherConfig{
			Enabled: true,
			Timeout: 10 * time.Second,
		},
		Charts: ChartsConfig{
			SmoothingWindow: 10,
			SNRThreshold:    10,
			TopWindows:      5,
		},
		Analyses: []AnalysisConfig{
			{
				Name:    "Guam campaign window",
				Kind:    "fof2",
				Input:   "fof2_guam.xlsx",
				Station: "Guam",
				Period:  PeriodConfig{Label: "April 15-28", Month: 4, FromDay: 15, ToDay: 28},
			},
			{
				Name:    "Guam single day",
				Kind:    "fof2",
				Input:   "fof2_guam.xlsx",
				Station: "Guam",
				Period:  PeriodConfig{Label: "April 15", Month: 4, FromDay: 15, ToDay: 15},
			},
			{
				Name:    "Guam full month",
				Kind:    "fof2",
				Input:   "fof2_guam.xlsx",
				Station: "Guam",
				Period:  PeriodConfig{Label: "April", Month: 4},
			},
			{
				Name:    "Darwin campaign window",
				Kind:    "fof2",
				Input:   "fof2_darwin.xlsx",
				Station: "Darwin",
				Period:  PeriodConfig{Label: "April 15-28", Month: 4, FromDay: 15, ToDay: 28},
			},
			{
				Name:    "Darwin single day",
				Kind:    "fof2",
				Input:   "fof2_darwin.xlsx",
				Station: "Darwin",
				Period:  PeriodConfig{Label: "April 15", Month: 4, FromDay: 15, ToDay: 15},
			},
			{
				Name:    "Darwin full month",
				Kind:    "fof2",
				Input:   "fof2_darwin.xlsx",
				Station: "Darwin",
				Period:  PeriodConfig{Label: "April", Month: 4},
			},
			{
				Name:    "DGFC field test SNR",
				Kind:    "snr",
				Input:   "snr_dgfc.xlsx",
				Sheet:   "SNR",
				Station: "DGFC",
				Period:  PeriodConfig{Label: "April 15-28", Month: 4, FromDay: 15, ToDay: 28},
			},
			{
				Name:    "DGFC receiver telemetry",
				Kind:    "thermal",
				Input:   "thermal_dgfc.xlsx",
				Sheet:   "Telemetry",
				Station: "DGFC",
				Period:  PeriodConfig{Label: "April 15-28", Month: 4, FromDay: 15, ToDay: 28},
			},
		},
	}
}
