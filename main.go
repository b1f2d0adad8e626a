// =============================================================================
// csvline - Main Entry Point
// =============================================================================
//
// USAGE:
//   csvline convert       - Convert all CSV files in the input directory
//   csvline parse         - Parse single lines with the configured format
//   csvline validate      - Validate configuration files without converting
//   csvline version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/                 : CLI command definitions (Cobra)
//   - internal/lineparser  : The single-line CSV state machine
//   - internal/csvparser   : Whole-file reading on top of the line parser
//   - internal/...         : Configuration, output writers, logging, metrics
//   - pkg/utils            : File management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/csvline/cmd"
)

func main() {
	cmd.Execute()
}
