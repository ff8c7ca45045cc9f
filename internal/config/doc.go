// Package config provides centralized configuration for the analysis
// suite: which workbooks to read, where to write reports, and the
// tunable reduction parameters.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file
//	3. Built-in defaults (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern BEARWAVE_* for
// namespacing:
//
//	BEARWAVE_PATHS_DATA_DIR=./field-data
//	BEARWAVE_PATHS_OUTPUT_DIR=./output
//	BEARWAVE_LOGGING_LEVEL=debug
//	BEARWAVE_SPACE_WEATHER_ENABLED=false
//
// The analysis batch itself can only be described in the YAML file,
// since entries carry nested period blocks.
//
// # Usage
//
// Load configuration at startup, passing the optional -config flag
// value:
//
//	cfg, err := config.Load(configPath)
//	if err != nil {
//	    // report and exit
//	}
//
// # Path Management
//
// The Paths type resolves every read and write location once, so the
// rest of the suite never touches the working directory directly:
//
//	paths, err := config.NewPaths(cfg.Paths)
//	input := paths.Input("fof2_guam.xlsx")
package config
