// =============================================================================
// csvline - Line Parser States
// =============================================================================
//
// The line parser is a small state machine. Each character of the input is
// read in one of the states below, and the state together with the character
// decides what happens to the field being accumulated.
//
//   Start ──Q──> QuoteStart ──*──> QuotedField ──Q──> QuoteEnd
//     │                                                  │
//     ├──*──> Field ──D──> Delimiter                     ├──D──> Delimiter
//     │                                                  │
//     └──LF/CR──> End                                    └──LF/CR──> End
//
// =============================================================================

package lineparser

// State is the current position of the line parser in its transition table.
type State int

const (
	// Start is the state before the first character of the line.
	Start State = iota

	// Field is inside an unquoted field.
	Field

	// Delimiter is right after a delimiter.
	Delimiter

	// End is reached after a line terminator. The scan stops here.
	End

	// QuoteStart is right after the opening quote of a quoted field.
	QuoteStart

	// QuoteEnd is right after the closing quote of a quoted field, or after an
	// escape character that ended the input.
	QuoteEnd

	// QuotedField is inside a quoted field.
	QuotedField
)

var stateNames = [...]string{
	Start:       "Start",
	Field:       "Field",
	Delimiter:   "Delimiter",
	End:         "End",
	QuoteStart:  "QuoteStart",
	QuoteEnd:    "QuoteEnd",
	QuotedField: "QuotedField",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// isLineFeed reports whether r is a line terminator that needs no look-ahead.
func isLineFeed(r rune) bool {
	switch r {
	case '\n', '\u2028', '\u2029', '\u0085':
		return true
	}
	return false
}

// IsTerminator reports whether r ends a line, including carriage return.
func IsTerminator(r rune) bool {
	return r == '\r' || isLineFeed(r)
}
