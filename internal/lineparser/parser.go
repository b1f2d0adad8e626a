// =============================================================================
// csvline - Format-Aware Line Parser
// =============================================================================
//
// Parser binds Parse to a Format: the escape, delimiter and quote characters
// plus the empty-line policy. With TreatEmptyLineAsNil an empty line yields a
// record with no fields instead of one empty field.
//
// =============================================================================

package lineparser

// Format is the configuration a Parser reads its characters and empty-line
// policy from. Implementations must not change while a Parser uses them.
type Format interface {
	EscapeChar() rune
	Delimiter() rune
	QuoteChar() rune
	TreatEmptyLineAsNil() bool
}

// Parser parses lines according to a Format. It holds no per-call state and
// is safe for concurrent use.
type Parser struct {
	escape     rune
	delimiter  rune
	quote      rune
	emptyAsNil bool
}

// New returns a Parser for format. The format's values are captured once.
func New(format Format) *Parser {
	return &Parser{
		escape:     format.EscapeChar(),
		delimiter:  format.Delimiter(),
		quote:      format.QuoteChar(),
		emptyAsNil: format.TreatEmptyLineAsNil(),
	}
}

// ParseLine parses line with the parser's format. It returns the same
// outcomes as Parse, except that a line holding a single empty field is
// reported as an empty record when the format treats empty lines as nil.
func (p *Parser) ParseLine(line string) (Record, bool, error) {
	record, ok, err := Parse(line, p.escape, p.delimiter, p.quote)
	if err != nil || !ok {
		return record, ok, err
	}
	if p.emptyAsNil && len(record) == 1 && record[0] == "" {
		return Record{}, true, nil
	}
	return record, true, nil
}
