// =============================================================================
// csvline - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the per-source format
// profiles.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global settings and the default CSV format
//   2. Profiles (configs/*.yaml): CSV formats selected by file name pattern
//
// ARCHITECTURE:
//   - Every file is plain YAML decoded with gopkg.in/yaml.v3
//   - Defaults are applied after decoding, then the result is validated
//   - CSV settings are resolved into a Dialect, which is what the line parser
//     consumes
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatXML  = "xml"
	FormatXLSX = "xlsx"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for CSV files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is where converted files and logs are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after successful conversion.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every converted file.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ConfigsDir contains the format profiles. A missing directory means no
	// profiles; every file then uses CSVSettings.
	// Default: "./configs"
	ConfigsDir string `yaml:"configs_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile, when set, receives log output in addition to stderr.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// MetricsFile, when set, receives a Prometheus text-format snapshot of the
	// run counters after each convert run.
	MetricsFile string `yaml:"metrics_file"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat selects the converted file format.
	// Valid values: "xml", "xlsx", "yaml", "json"
	// Default: "xml"
	OutputFormat string `yaml:"output_format"`

	// UUIDFormat defines the output file name.
	// Placeholders: {uuid}, {timestamp}, {date}, {time}, {original}, {profile}
	// Default: "{original}_{uuid}"
	UUIDFormat string `yaml:"uuid_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files converted at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError skips malformed rows instead of failing the file.
	ContinueOnError bool `yaml:"continue_on_error"`

	// ArchiveInputs moves inputs to InputArchiveDir after conversion.
	ArchiveInputs bool `yaml:"archive_inputs"`

	// CSVSettings is the format used when no profile matches a file.
	CSVSettings CSVSettings `yaml:"csv_settings"`
}

// =============================================================================
// PROFILE STRUCTURE
// =============================================================================

// Profile is a named CSV format applied to files whose name matches one of
// its patterns.
type Profile struct {
	// Name is the human-readable profile name used in logs.
	Name string `yaml:"name"`

	// Code is a short identifier. It keys the profile map and can appear in
	// output file names through {profile}.
	Code string `yaml:"code"`

	// FileMatchingPatterns are filepath.Match globs tested against the base
	// name of each input file, e.g. "payments_*.csv".
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// CSVSettings is the format for matching files.
	CSVSettings CSVSettings `yaml:"csv_settings"`
}

// Matches reports whether fileName matches any of the profile's patterns.
// Invalid patterns never match.
func (p *Profile) Matches(fileName string) bool {
	for _, pattern := range p.FileMatchingPatterns {
		if ok, err := filepath.Match(pattern, fileName); err == nil && ok {
			return true
		}
	}
	return false
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultMainConfig returns a MainConfig with every default applied. It is
// used when no configuration file exists.
func DefaultMainConfig() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.ConfigsDir == "" {
		config.ConfigsDir = "./configs"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = FormatXML
	}
	if config.UUIDFormat == "" {
		config.UUIDFormat = "{original}_{uuid}"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	applyCSVSettingsDefaults(&config.CSVSettings)
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	config.OutputFormat = strings.ToLower(config.OutputFormat)
	if err := ValidateOutputFormat(config.OutputFormat); err != nil {
		return err
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log_level %q", config.LogLevel)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}

	if err := config.CSVSettings.Validate(); err != nil {
		return fmt.Errorf("csv_settings: %w", err)
	}

	return nil
}

// ValidateOutputFormat checks that format names a supported output format.
func ValidateOutputFormat(format string) error {
	switch format {
	case FormatXML, FormatXLSX, FormatYAML, FormatJSON:
		return nil
	}
	return fmt.Errorf("unsupported output_format %q", format)
}

// LoadProfiles loads all format profiles from a directory.
//
// PARAMETERS:
//   - configsDir: The directory containing profile files (*.yaml, *.yml).
//
// RETURNS:
//   - A map of profiles keyed by code (or file name when no code is set).
//     A missing directory yields an empty map.
//   - An error if any file cannot be read, parsed or validated.
func LoadProfiles(configsDir string) (map[string]*Profile, error) {
	profiles := make(map[string]*Profile)

	if _, err := os.Stat(configsDir); os.IsNotExist(err) {
		return profiles, nil
	}

	files, err := filepath.Glob(filepath.Join(configsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(configsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		profile, err := loadProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		key := profile.Code
		if key == "" {
			key = filepath.Base(file)
		}
		if _, exists := profiles[key]; exists {
			return nil, fmt.Errorf("duplicate profile code %q in %s", key, file)
		}

		profiles[key] = profile
	}

	return profiles, nil
}

// loadProfile loads a single profile file.
func loadProfile(filePath string) (*Profile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	applyCSVSettingsDefaults(&profile.CSVSettings)

	if err := profile.CSVSettings.Validate(); err != nil {
		return nil, fmt.Errorf("csv_settings: %w", err)
	}

	return &profile, nil
}

// FindProfile returns the profile matching fileName, or nil. Profiles are
// tried in key order so the result does not depend on map iteration.
func FindProfile(fileName string, profiles map[string]*Profile) *Profile {
	keys := make([]string, 0, len(profiles))
	for key := range profiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if profiles[key].Matches(fileName) {
			return profiles[key]
		}
	}
	return nil
}
