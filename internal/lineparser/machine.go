// =============================================================================
// csvline - Line State Machine
// =============================================================================
//
// Parse turns exactly one line of CSV text into a Record. It reads the line
// left to right, one character at a time (two when a quote or escape pair is
// consumed), and stops at the first line terminator or at the end of input.
//
// OUTCOMES:
//   - (record, true, nil)   : the line parsed to a record
//   - (nil, false, nil)     : the line ended inside an open quoted field
//                             (incomplete; more input is needed)
//   - (nil, false, err)     : the line is malformed (*MalformedInputError)
//
// Characters that follow a consumed line terminator are ignored.
//
// =============================================================================

package lineparser

import "strings"

// Record is the ordered list of fields parsed from one line.
type Record []string

// machine holds the state of one Parse call. It is never shared.
type machine struct {
	escape    rune
	delimiter rune
	quote     rune

	state  State
	field  strings.Builder
	fields Record
}

// Parse parses a single line using the given escape, delimiter and quote
// characters.
//
// PARAMETERS:
//   - line: The text to parse. It may or may not end with a line terminator.
//   - escape: The character that escapes itself or the delimiter outside quotes.
//   - delimiter: The field separator.
//   - quote: The character that opens and closes quoted fields.
//
// RETURNS:
//   - The parsed record and true on success.
//   - nil and false with a nil error when a quoted field is still open at the
//     end of the input.
//   - A *MalformedInputError for an invalid escape sequence or text after a
//     closing quote.
//
// The three characters are expected to be distinct. Parse does not check this;
// see config.CSVSettings.Validate.
func Parse(line string, escape, delimiter, quote rune) (Record, bool, error) {
	input := []rune(line)
	m := &machine{
		escape:    escape,
		delimiter: delimiter,
		quote:     quote,
		state:     Start,
	}

	for pos := 0; pos < len(input) && m.state != End; {
		var next rune
		hasNext := pos+1 < len(input)
		if hasNext {
			next = input[pos+1]
		}

		n, err := m.read(input[pos], next, hasNext)
		if err != nil {
			return nil, false, &MalformedInputError{Line: line, Column: pos + 1, Err: err}
		}
		pos += n
	}

	return m.result()
}

// read processes cur, peeking at next when the transition needs it, and
// returns how many characters were consumed.
func (m *machine) read(cur, next rune, hasNext bool) (int, error) {
	switch m.state {
	case Start, Delimiter:
		switch {
		case cur == m.quote:
			m.state = QuoteStart
			return 1, nil
		case cur == m.delimiter:
			m.flush()
			m.state = Delimiter
			return 1, nil
		case IsTerminator(cur):
			return m.terminate(cur, next, hasNext), nil
		}
		m.field.WriteRune(cur)
		m.state = Field
		return 1, nil

	case Field:
		switch {
		case cur == m.escape:
			if !hasNext {
				// A trailing escape closes the field without being kept.
				m.state = QuoteEnd
				return 1, nil
			}
			if next == m.escape || next == m.delimiter {
				m.field.WriteRune(next)
				return 2, nil
			}
			return 0, ErrInvalidEscape
		case cur == m.delimiter:
			m.flush()
			m.state = Delimiter
			return 1, nil
		case IsTerminator(cur):
			return m.terminate(cur, next, hasNext), nil
		}
		m.field.WriteRune(cur)
		return 1, nil

	case QuoteStart, QuotedField:
		if cur == m.quote {
			if hasNext && next == m.quote {
				m.field.WriteRune(m.quote)
				m.state = QuotedField
				return 2, nil
			}
			// The field is emitted by the delimiter, terminator or end of
			// input that must follow, so it is emitted exactly once.
			m.state = QuoteEnd
			return 1, nil
		}
		m.field.WriteRune(cur)
		m.state = QuotedField
		return 1, nil

	case QuoteEnd:
		switch {
		case cur == m.delimiter:
			m.flush()
			m.state = Delimiter
			return 1, nil
		case IsTerminator(cur):
			return m.terminate(cur, next, hasNext), nil
		}
		return 0, ErrCharAfterQuote
	}

	// End is never read; the scan loop stops before it.
	return 0, nil
}

// terminate handles a line terminator. A carriage return directly followed by
// a line feed is one terminator.
func (m *machine) terminate(cur, next rune, hasNext bool) int {
	n := 1
	if cur == '\r' && hasNext && next == '\n' {
		n = 2
	}
	m.flush()
	m.state = End
	return n
}

func (m *machine) flush() {
	m.fields = append(m.fields, m.field.String())
	m.field.Reset()
}

// result finalizes the record once the scan has stopped.
func (m *machine) result() (Record, bool, error) {
	switch m.state {
	case Delimiter:
		m.fields = append(m.fields, "")
	case QuoteStart, QuotedField:
		return nil, false, nil
	case Start:
		// Only reachable for empty input.
		m.flush()
	case Field:
		if m.field.Len() > 0 {
			m.flush()
		}
	case QuoteEnd:
		// A closed quote always delimits a field, "" included.
		m.flush()
	}
	return m.fields, true, nil
}
