// =============================================================================
// csvline - Record Reader
// =============================================================================
//
// Joins physical lines until the line parser reports a complete record.
// Input that ends inside a quoted field is reported as ErrUnterminatedQuote
// on the line where the record started.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/ginjaninja78/csvline/internal/lineparser"
)

var (
	// ErrUnterminatedQuote is returned when the input ends inside a quoted
	// field.
	ErrUnterminatedQuote = errors.New("unterminated quoted field at end of input")

	// ErrFieldCount is returned when a row's field count differs from the
	// header's.
	ErrFieldCount = errors.New("wrong number of fields")
)

// RowError reports a problem with one record. Row is the physical line on
// which the record starts (1-indexed).
type RowError struct {
	Row int
	Err error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Unwrap returns the underlying error.
func (e *RowError) Unwrap() error {
	return e.Err
}

// recordReader turns physical lines into records. When a line ends inside a
// quoted field the next physical line is appended and the whole text is
// parsed again.
type recordReader struct {
	scanner *bufio.Scanner
	parser  *lineparser.Parser

	line   int
	joined int
}

func newRecordReader(r io.Reader, parser *lineparser.Parser) *recordReader {
	return &recordReader{
		scanner: NewLineScanner(r),
		parser:  parser,
	}
}

// read returns the next record and the line it starts on. It returns io.EOF
// when the input is exhausted, and a *RowError for malformed or unterminated
// records. Reading may continue after a *RowError wrapping a malformed line.
func (r *recordReader) read() (lineparser.Record, int, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, r.line, fmt.Errorf("failed to read input: %w", err)
		}
		return nil, r.line, io.EOF
	}
	r.line++
	start := r.line
	text := r.scanner.Text()

	for {
		record, ok, err := r.parser.ParseLine(text)
		if err != nil {
			return nil, start, &RowError{Row: start, Err: err}
		}
		if ok {
			return record, start, nil
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, start, fmt.Errorf("failed to read input: %w", err)
			}
			return nil, start, &RowError{Row: start, Err: ErrUnterminatedQuote}
		}
		r.line++
		r.joined++
		text += r.scanner.Text()
	}
}
