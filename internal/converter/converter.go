// =============================================================================
// csvline - Converter Module
// =============================================================================
//
// This module contains the conversion pipeline for a single file, from CSV
// parsing to the written output document.
//
// CONVERSION PIPELINE:
//   1. Select the CSV format (matching profile or the main config default)
//   2. Parse the input CSV file
//   3. Render the records in the output format
//   4. Write the output file
//   5. Archive the processed files
//
// CONCURRENCY:
//   A Converter handles one file and shares nothing mutable with others, so
//   the convert command runs one Converter per goroutine.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/csvline/internal/config"
	"github.com/ginjaninja78/csvline/internal/csvparser"
	"github.com/ginjaninja78/csvline/internal/logging"
	"github.com/ginjaninja78/csvline/internal/metrics"
	"github.com/ginjaninja78/csvline/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the generated file.
	// This is empty if processing failed or was a dry run.
	OutputFile string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// RowErrors lists the rows skipped because of continue_on_error.
	RowErrors []*csvparser.RowError

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Records is the number of records written.
	Records int

	// EmptyRecords is the number of written records that had no fields.
	EmptyRecords int

	// JoinedLines is the number of physical lines joined into quoted fields.
	JoinedLines int

	// SkippedRows is the number of rows dropped by the empty-line,
	// mismatch or error policies.
	SkippedRows int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single CSV file.
type Converter struct {
	csvPath     string
	profile     *config.Profile
	mainConfig  *config.MainConfig
	fileManager *utils.FileManager
	format      string
	dryRun      bool
	logger      *slog.Logger
	metrics     *metrics.Collector
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithMetrics configures the metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Converter) {
		c.metrics = collector
	}
}

// WithFormat overrides the output format of the main configuration.
func WithFormat(format string) Option {
	return func(c *Converter) {
		if format != "" {
			c.format = strings.ToLower(format)
		}
	}
}

// WithDryRun parses and renders the file without writing or archiving.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) {
		c.dryRun = dryRun
	}
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - csvPath: The path to the input CSV file.
//   - profile: The matching format profile, or nil to use mainConfig.CSVSettings.
//   - mainConfig: The main application configuration.
//   - opts: Optional settings.
//
// RETURNS:
//   - A new Converter instance.
func New(csvPath string, profile *config.Profile, mainConfig *config.MainConfig, opts ...Option) *Converter {
	fileManager := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	fileManager.ArchiveOnSuccess = mainConfig.ArchiveInputs

	c := &Converter{
		csvPath:     csvPath,
		profile:     profile,
		mainConfig:  mainConfig,
		fileManager: fileManager,
		format:      mainConfig.OutputFormat,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run() Result {
	startTime := time.Now()
	result := Result{FilePath: c.csvPath}

	logger := c.logger.With("file", filepath.Base(c.csvPath))
	if c.profile != nil {
		logger = logger.With("profile", c.profile.Code)
	}

	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
		outcome := metrics.OutcomeSuccess
		if !result.Success {
			outcome = metrics.OutcomeFailure
		}
		c.metrics.ObserveFile(outcome, result.Stats.ProcessingTime)
	}()

	// =========================================================================
	// STEP 1: PARSE INPUT CSV
	// =========================================================================

	logger.Info("processing file", "format", c.format)

	data, err := csvparser.Parse(c.csvPath, c.settings(), c.mainConfig.ContinueOnError)
	if err != nil {
		result.Error = fmt.Errorf("failed to parse CSV: %w", err)
		c.logParseError(logger, err)
		return result
	}

	result.RowErrors = data.RowErrors
	result.Stats.Records = data.RowCount
	result.Stats.EmptyRecords = data.Stats.EmptyRecords
	result.Stats.JoinedLines = data.Stats.JoinedLines
	result.Stats.SkippedRows = data.Stats.SkippedEmpty + data.Stats.SkippedMismatched + data.Stats.SkippedErrors

	c.metrics.AddRecords(data.RowCount, data.Stats.EmptyRecords)
	c.metrics.AddJoinedLines(data.Stats.JoinedLines)
	c.metrics.AddSkipped(metrics.ReasonEmpty, data.Stats.SkippedEmpty)
	c.metrics.AddSkipped(metrics.ReasonMismatched, data.Stats.SkippedMismatched)
	c.metrics.AddSkipped(metrics.ReasonError, data.Stats.SkippedErrors)

	for _, rowErr := range data.RowErrors {
		logger.Warn("skipped row", "row", rowErr.Row, "error", rowErr.Err)
	}
	logger.Debug("parsed CSV",
		"records", data.RowCount,
		"columns", data.ColumnCount,
		"joined_lines", data.Stats.JoinedLines,
		"skipped", result.Stats.SkippedRows)

	// =========================================================================
	// STEP 2: RENDER OUTPUT
	// =========================================================================

	content, err := Render(data, c.format)
	if err != nil {
		result.Error = fmt.Errorf("failed to render %s: %w", c.format, err)
		logger.Error("render failed", "error", err)
		return result
	}

	if c.dryRun {
		logger.Info("dry run, output not written", "bytes", len(content))
		result.Success = true
		return result
	}

	// =========================================================================
	// STEP 3: WRITE OUTPUT FILE
	// =========================================================================

	outputPath, err := c.writeOutput(content)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		logger.Error("write failed", "error", err)
		return result
	}

	result.OutputFile = outputPath
	logger.Info("wrote output", "output", outputPath, "records", data.RowCount)

	// =========================================================================
	// STEP 4: ARCHIVE FILES
	// =========================================================================

	if err := c.archiveFiles(outputPath); err != nil {
		// The output exists; archival problems do not fail the file.
		logger.Warn("failed to archive files", "error", err)
	}

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// settings returns the CSV format for the file.
func (c *Converter) settings() config.CSVSettings {
	if c.profile != nil {
		return c.profile.CSVSettings
	}
	return c.mainConfig.CSVSettings
}

// logParseError logs a parse failure with its position when it has one.
func (c *Converter) logParseError(logger *slog.Logger, err error) {
	var rowErr *csvparser.RowError
	if errors.As(err, &rowErr) {
		logger.Error("parse failed", "row", rowErr.Row, "error", rowErr.Err)
		return
	}
	logger.Error("parse failed", "error", err)
}

// writeOutput writes content to the output directory under a generated name.
//
// RETURNS:
//   - The path to the written file.
//   - An error if writing fails.
func (c *Converter) writeOutput(content []byte) (string, error) {
	if err := os.MkdirAll(c.mainConfig.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	fileName := utils.GenerateOutputFileName(c.mainConfig.UUIDFormat, c.format, c.nameParams())
	outputPath := filepath.Join(c.mainConfig.OutputDir, fileName)

	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", err
	}

	return outputPath, nil
}

// nameParams returns the file-specific placeholders for output names.
func (c *Converter) nameParams() map[string]string {
	base := filepath.Base(c.csvPath)
	params := map[string]string{
		"original": strings.TrimSuffix(base, filepath.Ext(base)),
		"profile":  "default",
	}
	if c.profile != nil && c.profile.Code != "" {
		params["profile"] = c.profile.Code
	}
	return params
}

// archiveFiles moves the input to the input archive and copies the output to
// the output archive. It does nothing unless archive_inputs is set.
func (c *Converter) archiveFiles(outputPath string) error {
	if _, err := c.fileManager.ArchiveInputFile(c.csvPath); err != nil {
		return fmt.Errorf("failed to archive input file: %w", err)
	}
	if _, err := c.fileManager.ArchiveOutputFile(outputPath); err != nil {
		return fmt.Errorf("failed to archive output file: %w", err)
	}
	return nil
}
