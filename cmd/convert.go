// =============================================================================
// csvline - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which converts CSV files to the
// configured output format.
//
// COMMAND USAGE:
//   csvline convert [flags]
//
// FLAGS:
//   --dry-run  : Parse and render without writing or archiving anything
//   --file     : Convert only this file instead of scanning the input directory
//   --format   : Override output_format (xml, xlsx, yaml, json)
//   --profile  : Convert only files matched by the profile with this code
//
// PROCESSING PIPELINE:
//   1. Load the main configuration and the format profiles
//   2. Discover input files (*.csv plus anything a profile matches)
//   3. Convert the files concurrently, at most max_concurrency at a time
//   4. Print a summary and write the error log, summary log and metrics
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/csvline/internal/config"
	"github.com/ginjaninja78/csvline/internal/converter"
	"github.com/ginjaninja78/csvline/internal/csvparser"
	"github.com/ginjaninja78/csvline/internal/lineparser"
	"github.com/ginjaninja78/csvline/internal/metrics"
	"github.com/ginjaninja78/csvline/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// convertOptions holds the flags of the convert command.
type convertOptions struct {
	dryRun  bool
	file    string
	format  string
	profile string
}

var convertOpts convertOptions

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert CSV files to XML, XLSX, YAML or JSON",
	Long: `The convert command scans the input directory for CSV files, selects the
format profile matching each file name, and writes one output document per file.

Files are converted concurrently. Each file is independent, and an error in one
file does not affect the others.

On success:
  - The output document is placed in the output directory
  - With archive_inputs, the input is moved to the input archive and the
    output copied to the output archive

On error:
  - The error is written to an error log in the output directory
  - The input remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, convertOpts)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&convertOpts.dryRun, "dry-run", false,
		"Parse and render without writing output files")
	convertCmd.Flags().StringVar(&convertOpts.file, "file", "",
		"Path to a specific file to convert")
	convertCmd.Flags().StringVar(&convertOpts.format, "format", "",
		"Output format, overriding output_format (xml, xlsx, yaml, json)")
	convertCmd.Flags().StringVar(&convertOpts.profile, "profile", "",
		"Convert only files matched by the profile with this code")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runConvert orchestrates a conversion run.
func runConvert(cmd *cobra.Command, opts convertOptions) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, err := loadMainConfig(cmd)
	if err != nil {
		return err
	}

	if opts.format != "" {
		opts.format = strings.ToLower(opts.format)
		if err := config.ValidateOutputFormat(opts.format); err != nil {
			return err
		}
	}

	logger, closeLog, err := openLogger(mainConfig)
	if err != nil {
		return err
	}
	defer closeLog()

	profiles, err := config.LoadProfiles(mainConfig.ConfigsDir)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	if opts.profile != "" {
		if _, ok := profiles[opts.profile]; !ok {
			return fmt.Errorf("unknown profile %q", opts.profile)
		}
	}

	logger.Debug("configuration loaded", "profiles", len(profiles), "format", mainConfig.OutputFormat)

	fileManager := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	fileManager.ArchiveOnSuccess = mainConfig.ArchiveInputs

	if !opts.dryRun {
		if err := fileManager.EnsureDirectories(); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := discoverInputFiles(fileManager, profiles, opts)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No input files found.")
		return nil
	}

	logger.Info("converting files", "count", len(inputFiles), "max_concurrency", mainConfig.MaxConcurrency)

	// =========================================================================
	// STEP 3: CONVERT FILES CONCURRENTLY
	// =========================================================================

	collector := metrics.New()
	results := make([]converter.Result, len(inputFiles))

	var group errgroup.Group
	group.SetLimit(mainConfig.MaxConcurrency)

	for i, file := range inputFiles {
		group.Go(func() error {
			conv := converter.New(file, config.FindProfile(filepath.Base(file), profiles), mainConfig,
				converter.WithLogger(logger),
				converter.WithMetrics(collector),
				converter.WithFormat(opts.format),
				converter.WithDryRun(opts.dryRun),
			)
			results[i] = conv.Run()
			return nil
		})
	}
	// Failures are reported per file in results.
	_ = group.Wait()

	// =========================================================================
	// STEP 4: REPORT
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(inputFiles),
	}
	var errorEntries []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		errorEntries = append(errorEntries, rowErrorEntries(name, result.RowErrors)...)

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
			})
			errorEntries = append(errorEntries, fileErrorEntry(name, result.Error))
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalRecords += result.Stats.Records
		summary.EmptyRecords += result.Stats.EmptyRecords
		summary.JoinedLines += result.Stats.JoinedLines
		summary.SkippedRows += result.Stats.SkippedRows
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			OutputFile:  result.OutputFile,
			Records:     result.Stats.Records,
			SkippedRows: result.Stats.SkippedRows,
			ProcessTime: result.Stats.ProcessingTime,
		})

		target := result.OutputFile
		if opts.dryRun {
			target = "(dry run)"
		}
		fmt.Fprintf(out, "  ✓ %s -> %s (%d records)\n", name, target, result.Stats.Records)
	}
	summary.EndTime = time.Now()

	printSummary(out, summary)

	if opts.dryRun {
		return failedFilesError(summary)
	}

	if path, err := utils.WriteErrorLog(errorEntries, mainConfig.OutputDir); err != nil {
		logger.Error("failed to write error log", "error", err)
	} else if path != "" {
		fmt.Fprintf(out, "\nErrors have been logged to %s\n", path)
	}

	if _, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
		logger.Error("failed to write summary log", "error", err)
	}

	if mainConfig.MetricsFile != "" {
		if err := collector.WriteTextfile(mainConfig.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "error", err)
		}
	}

	return failedFilesError(summary)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// discoverInputFiles returns the files to convert. Without --file it scans the
// input directory for *.csv files and for files matched by any profile.
func discoverInputFiles(fileManager *utils.FileManager, profiles map[string]*config.Profile, opts convertOptions) ([]string, error) {
	var candidates []string
	if opts.file != "" {
		if !utils.FileExists(opts.file) {
			return nil, fmt.Errorf("file not found: %s", opts.file)
		}
		candidates = []string{opts.file}
	} else {
		all, err := fileManager.DiscoverInputFiles("*")
		if err != nil {
			return nil, err
		}
		for _, file := range all {
			name := filepath.Base(file)
			if strings.EqualFold(filepath.Ext(name), ".csv") || config.FindProfile(name, profiles) != nil {
				candidates = append(candidates, file)
			}
		}
	}

	if opts.profile == "" {
		return candidates, nil
	}

	var files []string
	for _, file := range candidates {
		if profile := config.FindProfile(filepath.Base(file), profiles); profile != nil && profile.Code == opts.profile {
			files = append(files, file)
		}
	}
	return files, nil
}

// rowErrorEntries converts skipped-row errors into error log entries.
func rowErrorEntries(fileName string, rowErrors []*csvparser.RowError) []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(rowErrors))
	for _, rowErr := range rowErrors {
		entry := utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     fileName,
			ErrorType:    errorType(rowErr),
			ErrorMessage: rowErr.Err.Error(),
			RowNumber:    rowErr.Row,
		}
		var malformed *lineparser.MalformedInputError
		if errors.As(rowErr, &malformed) {
			entry.Column = malformed.Column
		}
		entries = append(entries, entry)
	}
	return entries
}

// fileErrorEntry converts the error that failed a file into an error log entry.
func fileErrorEntry(fileName string, err error) utils.ErrorLogEntry {
	entry := utils.ErrorLogEntry{
		Timestamp:    time.Now(),
		FileName:     fileName,
		ErrorType:    errorType(err),
		ErrorMessage: err.Error(),
	}
	var rowErr *csvparser.RowError
	if errors.As(err, &rowErr) {
		entry.RowNumber = rowErr.Row
	}
	var malformed *lineparser.MalformedInputError
	if errors.As(err, &malformed) {
		entry.Column = malformed.Column
	}
	return entry
}

// errorType classifies err for the error log.
func errorType(err error) string {
	switch {
	case errors.Is(err, lineparser.ErrInvalidEscape):
		return "invalid_escape"
	case errors.Is(err, lineparser.ErrCharAfterQuote):
		return "char_after_quote"
	case errors.Is(err, csvparser.ErrUnterminatedQuote):
		return "unterminated_quote"
	case errors.Is(err, csvparser.ErrFieldCount):
		return "field_count"
	default:
		return "file"
	}
}

// printSummary prints the run statistics.
func printSummary(out io.Writer, summary utils.ProcessingSummary) {
	fmt.Fprintln(out, "\n=== Conversion Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Records:         %d\n", summary.TotalRecords)
	fmt.Fprintf(out, "Skipped rows:    %d\n", summary.SkippedRows)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))
}

func failedFilesError(summary utils.ProcessingSummary) error {
	if summary.FailedFiles == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
}
