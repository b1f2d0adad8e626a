// =============================================================================
// csvline - Physical Lines
// =============================================================================
//
// Input is decoded to UTF-8 and split into physical lines. Every line keeps
// its terminator (\n, \r\n, \r, U+2028, U+2029, U+0085) so that a quoted
// field spanning several lines is rebuilt with its original line breaks.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/csvline/internal/lineparser"
)

// maxLineSize bounds one physical line.
const maxLineSize = 16 << 20

// scanLines is a bufio.SplitFunc that splits on every line terminator the
// line parser recognizes and keeps the terminator in the token, so that
// joined lines of a quoted field keep their original line breaks.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); {
		if !atEOF && !utf8.FullRune(data[i:]) {
			return 0, nil, nil
		}
		r, size := utf8.DecodeRune(data[i:])
		switch {
		case r == '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i+2], nil
				}
				return i + 1, data[:i+1], nil
			}
			if !atEOF {
				// Need the next byte to tell \r from \r\n.
				return 0, nil, nil
			}
			return i + 1, data[:i+1], nil
		case lineparser.IsTerminator(r):
			return i + size, data[:i+size], nil
		}
		i += size
	}

	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// NewLineScanner returns a scanner over the physical lines of r. Each token
// ends with its terminator, except possibly the last.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLines)
	return scanner
}

// decode wraps r so that it yields UTF-8.
//
// PARAMETERS:
//   - r: The raw input.
//   - encoding: An IANA or WHATWG encoding name. Empty means UTF-8.
//
// RETURNS:
//   - A reader producing UTF-8. A leading UTF-8 byte order mark is removed.
//   - An error if the encoding is unknown.
func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	}

	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", encoding, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
