// =============================================================================
// csvline - CSV Settings
// =============================================================================
//
// CSVSettings is the YAML view of a CSV format. Characters are written as
// strings so that aliases such as "tab" or "pipe" can be used. Resolve turns
// the settings into a Dialect, the read-only value handed to the line parser.
//
// The delimiter, quote and escape characters must be three different
// characters. Which of them wins when they coincide is not defined by the
// parser, so such settings are rejected here instead.
//
// =============================================================================

package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/csvline/internal/lineparser"
)

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter separates fields.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// QuoteChar opens and closes quoted fields.
	// Default: '"'
	QuoteChar string `yaml:"quote_char"`

	// EscapeChar escapes itself or the delimiter outside quoted fields.
	// Default: '\'
	EscapeChar string `yaml:"escape_char"`

	// Encoding is the character encoding of the input, by IANA or WHATWG name.
	// Common values: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// TreatEmptyLineAsNil reports an empty line as a record with no fields
	// instead of a record holding one empty field.
	TreatEmptyLineAsNil bool `yaml:"treat_empty_line_as_nil"`

	// SkipEmptyLine drops records with no fields. Blank lines in files with
	// more than one column are such records; with one column they are only
	// when TreatEmptyLineAsNil is set.
	SkipEmptyLine bool `yaml:"skip_empty_line"`

	// HeaderRows is the number of leading records merged into the header.
	// Zero means the file has no header and columns are named Column_N.
	// Default: 1
	HeaderRows *int `yaml:"header_rows"`

	// SkipMismatchedRows drops rows whose field count differs from the header
	// instead of failing.
	SkipMismatchedRows bool `yaml:"skip_mismatched_rows"`
}

// charAliases maps the names accepted for common characters.
var charAliases = map[string]rune{
	`\t`:        '\t',
	"tab":       '\t',
	"pipe":      '|',
	"comma":     ',',
	"semicolon": ';',
	"space":     ' ',
	"backslash": '\\',
}

// applyCSVSettingsDefaults sets default values for unset CSV options.
func applyCSVSettingsDefaults(settings *CSVSettings) {
	if settings.Delimiter == "" {
		settings.Delimiter = ","
	}
	if settings.QuoteChar == "" {
		settings.QuoteChar = `"`
	}
	if settings.EscapeChar == "" {
		settings.EscapeChar = `\`
	}
	if settings.Encoding == "" {
		settings.Encoding = "UTF-8"
	}
	if settings.HeaderRows == nil {
		one := 1
		settings.HeaderRows = &one
	}
}

// Headers returns the configured number of header rows.
func (s CSVSettings) Headers() int {
	if s.HeaderRows == nil {
		return 1
	}
	return *s.HeaderRows
}

// Validate checks that the settings resolve to an unambiguous dialect.
func (s CSVSettings) Validate() error {
	if _, err := s.Resolve(); err != nil {
		return err
	}
	if s.Headers() < 0 {
		return fmt.Errorf("header_rows must not be negative, got %d", s.Headers())
	}
	return nil
}

// Resolve converts the settings into a Dialect.
//
// RETURNS:
//   - The Dialect.
//   - An error if a character setting is not exactly one character, is a line
//     terminator, or collides with another character setting.
func (s CSVSettings) Resolve() (Dialect, error) {
	delimiter, err := parseChar("delimiter", s.Delimiter)
	if err != nil {
		return Dialect{}, err
	}
	quote, err := parseChar("quote_char", s.QuoteChar)
	if err != nil {
		return Dialect{}, err
	}
	escape, err := parseChar("escape_char", s.EscapeChar)
	if err != nil {
		return Dialect{}, err
	}

	switch {
	case delimiter == quote:
		return Dialect{}, fmt.Errorf("delimiter and quote_char are both %q", delimiter)
	case delimiter == escape:
		return Dialect{}, fmt.Errorf("delimiter and escape_char are both %q", delimiter)
	case quote == escape:
		return Dialect{}, fmt.Errorf("quote_char and escape_char are both %q", quote)
	}

	return Dialect{
		escape:     escape,
		delimiter:  delimiter,
		quote:      quote,
		emptyAsNil: s.TreatEmptyLineAsNil,
	}, nil
}

// parseChar resolves a single-character setting or one of its aliases.
func parseChar(name, value string) (rune, error) {
	if r, ok := charAliases[strings.ToLower(value)]; ok {
		return r, nil
	}
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", name, value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	if r == utf8.RuneError {
		return 0, fmt.Errorf("%s is not valid UTF-8", name)
	}
	if lineparser.IsTerminator(r) {
		return 0, fmt.Errorf("%s must not be a line terminator, got %q", name, value)
	}
	return r, nil
}

// =============================================================================
// DIALECT
// =============================================================================

// Dialect is a resolved, immutable CSV format. It implements lineparser.Format.
type Dialect struct {
	escape     rune
	delimiter  rune
	quote      rune
	emptyAsNil bool
}

// NewDialect returns a Dialect without validating it. It is meant for callers
// that already hold runes, such as tests.
func NewDialect(escape, delimiter, quote rune, emptyAsNil bool) Dialect {
	return Dialect{escape: escape, delimiter: delimiter, quote: quote, emptyAsNil: emptyAsNil}
}

func (d Dialect) EscapeChar() rune          { return d.escape }
func (d Dialect) Delimiter() rune           { return d.delimiter }
func (d Dialect) QuoteChar() rune           { return d.quote }
func (d Dialect) TreatEmptyLineAsNil() bool { return d.emptyAsNil }

var _ lineparser.Format = Dialect{}
