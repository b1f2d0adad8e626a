// =============================================================================
// csvline - Line Parser Errors
// =============================================================================
//
// MalformedInputError carries the whole line, the 1-based column of the
// offending character and one of the sentinel errors below. Use errors.Is on
// the sentinel and errors.As to read the position.
//
// =============================================================================

package lineparser

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEscape is returned when the escape character is followed by
	// something other than the escape character or the delimiter.
	ErrInvalidEscape = errors.New("invalid escape sequence")

	// ErrCharAfterQuote is returned when a closing quote is followed by
	// something other than a delimiter or a line terminator.
	ErrCharAfterQuote = errors.New("delimiter or line terminator must follow closing quote")
)

// MalformedInputError reports a line that cannot be parsed. It carries the
// whole original line for diagnostics.
type MalformedInputError struct {
	// Line is the complete input that failed to parse.
	Line string

	// Column is the 1-based character position of the offending character.
	Column int

	// Err is ErrInvalidEscape or ErrCharAfterQuote.
	Err error
}

// Error implements the error interface.
func (e *MalformedInputError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("malformed input at column %d: %v: %q", e.Column, e.Err, e.Line)
}

// Unwrap returns the underlying sentinel error.
func (e *MalformedInputError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
