// =============================================================================
// csvline - Parse Command
// =============================================================================
//
// This file defines the 'parse' command, which runs the line parser on single
// lines and prints the outcome. It is meant for checking a format against
// sample data.
//
// COMMAND USAGE:
//   csvline parse [line...] [flags]
//
//   Each argument is parsed as one line. Without arguments, lines are read
//   from standard input, split on every line terminator the parser knows
//   (\n, \r\n, \r, U+2028, U+2029, U+0085) and keeping them.
//
// FLAGS:
//   --profile   : Use the CSV settings of the profile with this code
//   --delimiter : Override the delimiter
//   --quote     : Override the quote character
//   --escape    : Override the escape character
//   --join      : Join stdin lines while a quoted field is open
//
// OUTPUT:
//   One YAML document per line:
//     line: a,"b,c"
//     status: ok
//     fields: [a, 'b,c']
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/csvline/internal/config"
	"github.com/ginjaninja78/csvline/internal/csvparser"
	"github.com/ginjaninja78/csvline/internal/lineparser"
)

// Parse outcomes as printed.
const (
	statusOK         = "ok"
	statusIncomplete = "incomplete"
	statusMalformed  = "malformed"
)

type parseOptions struct {
	profile   string
	delimiter string
	quote     string
	escape    string
	join      bool
}

var parseOpts parseOptions

var parseCmd = &cobra.Command{
	Use:   "parse [line...]",
	Short: "Parse single lines with the configured CSV format",
	Long: `Parse runs the line parser on each argument, or on each line of standard
input, and prints whether the line is a complete record, an incomplete one
(it ends inside a quoted field), or malformed.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(cmd, args, parseOpts)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseOpts.profile, "profile", "", "Use the CSV settings of the profile with this code")
	parseCmd.Flags().StringVar(&parseOpts.delimiter, "delimiter", "", "Override the delimiter")
	parseCmd.Flags().StringVar(&parseOpts.quote, "quote", "", "Override the quote character")
	parseCmd.Flags().StringVar(&parseOpts.escape, "escape", "", "Override the escape character")
	parseCmd.Flags().BoolVar(&parseOpts.join, "join", false, "Join stdin lines while a quoted field is open")
}

// parseResult is the printed outcome of one line.
type parseResult struct {
	Line   string   `yaml:"line"`
	Status string   `yaml:"status"`
	Fields []string `yaml:"fields,omitempty,flow"`
	Column int      `yaml:"column,omitempty"`
	Error  string   `yaml:"error,omitempty"`
}

func runParse(cmd *cobra.Command, args []string, opts parseOptions) error {
	mainConfig, err := loadMainConfig(cmd)
	if err != nil {
		return err
	}

	settings, err := parseSettings(mainConfig, opts)
	if err != nil {
		return err
	}
	dialect, err := settings.Resolve()
	if err != nil {
		return fmt.Errorf("invalid csv settings: %w", err)
	}
	parser := lineparser.New(dialect)

	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent(2)
	defer encoder.Close()

	if len(args) > 0 {
		for _, line := range args {
			if err := encoder.Encode(parseOne(parser, line)); err != nil {
				return err
			}
		}
		return nil
	}

	in := cmd.InOrStdin()
	if in == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Reading lines from standard input (end with Ctrl-D)...")
	}
	return parseStream(parser, in, opts.join, encoder)
}

// parseSettings returns the CSV settings for the parse command: the profile's
// or the main configuration's, with the character flags applied.
func parseSettings(mainConfig *config.MainConfig, opts parseOptions) (config.CSVSettings, error) {
	settings := mainConfig.CSVSettings
	if opts.profile != "" {
		profiles, err := config.LoadProfiles(mainConfig.ConfigsDir)
		if err != nil {
			return settings, fmt.Errorf("failed to load profiles: %w", err)
		}
		profile, ok := profiles[opts.profile]
		if !ok {
			return settings, fmt.Errorf("unknown profile %q", opts.profile)
		}
		settings = profile.CSVSettings
	}

	if opts.delimiter != "" {
		settings.Delimiter = opts.delimiter
	}
	if opts.quote != "" {
		settings.QuoteChar = opts.quote
	}
	if opts.escape != "" {
		settings.EscapeChar = opts.escape
	}
	return settings, nil
}

// parseStream parses each line of in, split on every terminator the line
// parser recognizes. With join, a line that ends inside a quoted field is
// combined with the following lines before it is reported.
func parseStream(parser *lineparser.Parser, in io.Reader, join bool, encoder *yaml.Encoder) error {
	scanner := csvparser.NewLineScanner(in)
	pending := ""

	for scanner.Scan() {
		line := pending + scanner.Text()

		result := parseOne(parser, line)
		if join && result.Status == statusIncomplete {
			pending = line
			continue
		}
		pending = ""

		if err := encoder.Encode(result); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	// Input ended while joining.
	if pending != "" {
		return encoder.Encode(parseOne(parser, pending))
	}
	return nil
}

// parseOne parses line and describes the outcome.
func parseOne(parser *lineparser.Parser, line string) parseResult {
	result := parseResult{Line: line}

	record, ok, err := parser.ParseLine(line)
	var malformed *lineparser.MalformedInputError
	switch {
	case errors.As(err, &malformed):
		result.Status = statusMalformed
		result.Column = malformed.Column
		result.Error = malformed.Err.Error()
	case err != nil:
		result.Status = statusMalformed
		result.Error = err.Error()
	case !ok:
		result.Status = statusIncomplete
	default:
		result.Status = statusOK
		result.Fields = record
	}
	return result
}
