// =============================================================================
// csvline - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// (convert, parse, validate, version) is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (csvline)
//   ├── convertCmd  (csvline convert)
//   ├── parseCmd    (csvline parse)
//   ├── validateCmd (csvline validate)
//   └── versionCmd  (csvline version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the main configuration
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csvline/internal/config"
	"github.com/ginjaninja78/csvline/internal/logging"
	"github.com/ginjaninja78/csvline/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is used when --config is not given.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "csvline",
	Short: "csvline - a line-oriented CSV parser and converter",
	Long: `csvline parses CSV with a small state machine that reads one line at a
time. A line that ends inside a quoted field is reported as incomplete, and the
reader joins it with the next physical line before trying again.

Key Features:
  - Configurable delimiter, quote and escape characters
  - Quoted fields spanning several lines
  - Per-source format profiles selected by file name
  - XML, XLSX, YAML and JSON output
  - Concurrent conversion with archival and error logs

Example Usage:
  csvline convert                       # Convert every CSV file in the input directory
  csvline convert --file data.csv       # Convert a single file
  csvline parse 'a,"b,c",d'             # Parse one line with the configured format
  csvline validate --config ./my.yaml   # Validate configuration without converting`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadMainConfig loads the configuration named by --config. When the flag was
// not given and config.yaml does not exist, the built-in defaults are used.
func loadMainConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	if !cmd.Flags().Changed("config") && !utils.FileExists(cfgFile) {
		return config.DefaultMainConfig(), nil
	}

	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	return mainConfig, nil
}

// openLogger builds the run logger from the configuration and --verbose.
func openLogger(mainConfig *config.MainConfig) (*slog.Logger, func() error, error) {
	return logging.Open(mainConfig.LogLevel, mainConfig.LogFile, verbose)
}
