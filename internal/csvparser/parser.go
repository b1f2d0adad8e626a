// =============================================================================
// csvline - CSV Record Parser
// =============================================================================
//
// This module reads whole CSV files on top of the single-line parser. It is
// responsible for everything the line parser leaves to its caller:
//   - Decoding the input to UTF-8 (golang.org/x/text)
//   - Splitting the input into physical lines
//   - Joining lines while a quoted field is still open
//   - Header rows, including multi-line headers
//   - Empty-line and field-count policies
//
// FEATURES:
//   - Parse loads a whole file into CSVData
//   - StreamingParser reads one record at a time
//   - Malformed rows either stop the read or are collected and skipped,
//     depending on continueOnError
//
// =============================================================================

package csvparser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/csvline/internal/config"
	"github.com/ginjaninja78/csvline/internal/lineparser"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed CSV file.
type CSVData struct {
	// Headers contains the column headers.
	// For multi-line headers, these are the merged/final headers.
	Headers []string

	// Records contains the data rows in file order. A record may be shorter
	// than Headers only when it is empty: a blank line in a multi-column file,
	// or any blank line with CSVSettings.TreatEmptyLineAsNil.
	Records [][]string

	// RowNumbers holds the starting physical line of each record.
	RowNumbers []int

	// SourceFile is the path to the source CSV file.
	SourceFile string

	// RowCount is the number of data records (excluding headers).
	RowCount int

	// ColumnCount is the number of columns.
	ColumnCount int

	// Stats summarizes what happened while reading.
	Stats ReadStats

	// RowErrors lists the rows that were skipped because of an error.
	RowErrors []*RowError
}

// ReadStats counts the reader's decisions.
type ReadStats struct {
	// EmptyRecords is the number of records with no fields that were kept.
	EmptyRecords int

	// JoinedLines is the number of physical lines appended to open quoted
	// fields.
	JoinedLines int

	// SkippedEmpty is the number of records dropped by SkipEmptyLine.
	SkippedEmpty int

	// SkippedMismatched is the number of records dropped by SkipMismatchedRows.
	SkippedMismatched int

	// SkippedErrors is the number of records dropped after an error because
	// continueOnError was set.
	SkippedErrors int
}

// Row returns record i as a map of header to value.
func (d *CSVData) Row(i int) map[string]string {
	row := make(map[string]string, len(d.Headers))
	for col, header := range d.Headers {
		if col < len(d.Records[i]) {
			row[header] = d.Records[i][col]
		} else {
			row[header] = ""
		}
	}
	return row
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV format.
//   - continueOnError: Skip malformed rows instead of failing.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings, continueOnError bool) (*CSVData, error) {
	parser, err := NewStreamingParser(filePath, settings, continueOnError)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	data, err := collect(parser)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader is Parse for an already open input. name is used as the
// SourceFile.
func ParseReader(r io.Reader, name string, settings config.CSVSettings, continueOnError bool) (*CSVData, error) {
	parser, err := NewReaderParser(r, settings, continueOnError)
	if err != nil {
		return nil, err
	}

	data, err := collect(parser)
	if err != nil {
		return nil, err
	}
	data.SourceFile = name
	return data, nil
}

func collect(parser *StreamingParser) (*CSVData, error) {
	data := &CSVData{}
	for parser.Next() {
		data.Records = append(data.Records, parser.Record())
		data.RowNumbers = append(data.RowNumbers, parser.RowNumber())
	}
	if err := parser.Err(); err != nil {
		return nil, err
	}

	data.Headers = parser.Headers()
	data.RowCount = len(data.Records)
	data.ColumnCount = len(data.Headers)
	data.Stats = parser.Stats()
	data.RowErrors = parser.Errors()
	return data, nil
}

// mergeHeaders merges multi-line header rows column by column.
//
// Example:
//   Row 1: "Transaction", "", "Policy", ""
//   Row 2: "Number", "Amount", "Number", "Date"
//   Result: "Transaction Number", "Amount", "Policy Number", "Date"
func mergeHeaders(rows [][]string) []string {
	if len(rows) == 1 {
		return cleanHeaders(rows[0])
	}

	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for _, row := range rows {
			if col < len(row) {
				if value := strings.TrimSpace(row[col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers)
}

// cleanHeaders trims header values, names blank headers Column_N and makes
// duplicates unique by suffixing _2, _3, ...
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		// A suffixed name may itself be a header, e.g. "a_2,a,a".
		name := header
		for n := 2; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", header, n)
		}
		seen[name] = true

		cleaned[i] = name
	}

	return cleaned
}

// generatedHeaders names n columns Column_1 .. Column_n.
func generatedHeaders(n int) []string {
	return cleanHeaders(make([]string, n))
}

// =============================================================================
// STREAMING PARSER FOR LARGE FILES
// =============================================================================

// StreamingParser reads a CSV input one record at a time.
//
// USAGE:
//   parser, err := NewStreamingParser(filePath, settings, false)
//   if err != nil {
//       return err
//   }
//   defer parser.Close()
//
//   for parser.Next() {
//       record := parser.Record()
//       // Process the record...
//   }
//
//   if err := parser.Err(); err != nil {
//       return err
//   }
type StreamingParser struct {
	closer          io.Closer
	reader          *recordReader
	settings        config.CSVSettings
	continueOnError bool

	headers   []string
	current   []string
	rowNumber int
	stats     ReadStats
	rowErrors []*RowError
	err       error
}

// NewStreamingParser opens filePath and reads its header rows.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV format.
//   - continueOnError: Skip malformed rows instead of failing.
//
// RETURNS:
//   - A pointer to the StreamingParser.
//   - An error if the file cannot be opened or its header cannot be read.
func NewStreamingParser(filePath string, settings config.CSVSettings, continueOnError bool) (*StreamingParser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	parser, err := NewReaderParser(file, settings, continueOnError)
	if err != nil {
		file.Close()
		return nil, err
	}
	parser.closer = file
	return parser, nil
}

// NewReaderParser is NewStreamingParser for an already open input. Close
// does not close r.
func NewReaderParser(r io.Reader, settings config.CSVSettings, continueOnError bool) (*StreamingParser, error) {
	dialect, err := settings.Resolve()
	if err != nil {
		return nil, fmt.Errorf("invalid csv settings: %w", err)
	}
	if settings.Headers() < 0 {
		return nil, fmt.Errorf("invalid csv settings: header_rows must not be negative")
	}

	decoded, err := decode(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	parser := &StreamingParser{
		reader:          newRecordReader(decoded, lineparser.New(dialect)),
		settings:        settings,
		continueOnError: continueOnError,
	}

	if err := parser.readHeaders(); err != nil {
		return nil, err
	}

	return parser, nil
}

// readHeaders reads and merges the header rows.
func (p *StreamingParser) readHeaders() error {
	count := p.settings.Headers()
	if count == 0 {
		return nil
	}

	headerRows := make([][]string, 0, count)
	for len(headerRows) < count {
		record, _, err := p.reader.read()
		if err == io.EOF {
			if len(headerRows) == 0 {
				// An empty input has no header and no rows.
				return nil
			}
			return fmt.Errorf("unexpected end of file while reading headers")
		}
		if err != nil {
			return fmt.Errorf("error reading header row %d: %w", len(headerRows)+1, err)
		}
		if len(record) == 0 && p.settings.SkipEmptyLine {
			continue
		}
		headerRows = append(headerRows, record)
	}

	p.headers = mergeHeaders(headerRows)
	return nil
}

// Next advances to the next record. It returns false at the end of input or
// on an error; check Err afterwards.
func (p *StreamingParser) Next() bool {
	for p.err == nil {
		record, row, err := p.reader.read()
		p.stats.JoinedLines = p.reader.joined
		if err == io.EOF {
			return false
		}
		if err != nil {
			if p.skipOnError(err) {
				continue
			}
			p.err = err
			return false
		}

		// In a multi-column file a lone empty field is a blank line (or a
		// bare ""), read as an empty record.
		if len(record) == 1 && record[0] == "" && len(p.headers) > 1 {
			record = record[:0]
		}

		if len(record) == 0 {
			if p.settings.SkipEmptyLine {
				p.stats.SkippedEmpty++
				continue
			}
			p.stats.EmptyRecords++
			p.current, p.rowNumber = record, row
			return true
		}

		if p.headers == nil {
			p.headers = generatedHeaders(len(record))
		}

		if len(record) != len(p.headers) {
			if p.settings.SkipMismatchedRows {
				p.stats.SkippedMismatched++
				continue
			}
			err := &RowError{Row: row, Err: fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(record), len(p.headers))}
			if p.skipOnError(err) {
				continue
			}
			p.err = err
			return false
		}

		p.current, p.rowNumber = record, row
		return true
	}
	return false
}

// skipOnError records err and reports whether reading should go on.
// Only row-level errors can be skipped.
func (p *StreamingParser) skipOnError(err error) bool {
	var rowErr *RowError
	if !p.continueOnError || !errors.As(err, &rowErr) || errors.Is(err, ErrUnterminatedQuote) {
		return false
	}
	p.rowErrors = append(p.rowErrors, rowErr)
	p.stats.SkippedErrors++
	return true
}

// Record returns the current record.
func (p *StreamingParser) Record() []string {
	return p.current
}

// Row returns the current record as a map of header to value.
func (p *StreamingParser) Row() map[string]string {
	row := make(map[string]string, len(p.headers))
	for i, header := range p.headers {
		if i < len(p.current) {
			row[header] = p.current[i]
		} else {
			row[header] = ""
		}
	}
	return row
}

// Headers returns the parsed headers. Without header rows they are generated
// from the width of the first record.
func (p *StreamingParser) Headers() []string {
	return p.headers
}

// RowNumber returns the physical line on which the current record starts.
func (p *StreamingParser) RowNumber() int {
	return p.rowNumber
}

// Stats returns the counters collected so far.
func (p *StreamingParser) Stats() ReadStats {
	return p.stats
}

// Errors returns the row errors skipped because of continueOnError.
func (p *StreamingParser) Errors() []*RowError {
	return p.rowErrors
}

// Err returns the error that stopped parsing, if any.
func (p *StreamingParser) Err() error {
	return p.err
}

// Close closes the underlying file.
func (p *StreamingParser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
