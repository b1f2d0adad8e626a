package csvparser

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csvline/internal/config"
	"github.com/ginjaninja78/csvline/internal/lineparser"
)

func defaultSettings() config.CSVSettings {
	return config.DefaultMainConfig().CSVSettings
}

func headerRows(n int) *int {
	return &n
}

func scanAll(t *testing.T, input string) []string {
	t.Helper()

	scanner := NewLineScanner(strings.NewReader(input))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestScanLinesKeepsTerminators(t *testing.T) {
	t.Parallel()

	got := scanAll(t, "a\nb\r\nc\rd\u2028e\u2029f\u0085g")
	assert.Equal(t, []string{"a\n", "b\r\n", "c\r", "d\u2028", "e\u2029", "f\u0085", "g"}, got)
}

func TestScanLinesCarriageReturnAcrossReads(t *testing.T) {
	t.Parallel()

	// A one-byte buffer forces the scanner to decide on \r before it has
	// seen the following byte.
	scanner := bufio.NewScanner(&oneByteReader{s: "a\r\nb\r"})
	scanner.Split(scanLines)

	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"a\r\n", "b\r"}, got)
}

type oneByteReader struct {
	s string
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.s == "" {
		return 0, io.EOF
	}
	p[0] = r.s[0]
	r.s = r.s[1:]
	return 1, nil
}

func TestParseReaderBasic(t *testing.T) {
	t.Parallel()

	data, err := ParseReader(strings.NewReader("id,name\n1,alpha\n2,\"beta, gamma\"\n"), "basic.csv", defaultSettings(), false)
	require.NoError(t, err)

	assert.Equal(t, "basic.csv", data.SourceFile)
	assert.Equal(t, []string{"id", "name"}, data.Headers)
	assert.Equal(t, [][]string{{"1", "alpha"}, {"2", "beta, gamma"}}, data.Records)
	assert.Equal(t, []int{2, 3}, data.RowNumbers)
	assert.Equal(t, 2, data.RowCount)
	assert.Equal(t, 2, data.ColumnCount)
	assert.Equal(t, map[string]string{"id": "2", "name": "beta, gamma"}, data.Row(1))
}

func TestParseReaderJoinsQuotedLineBreaks(t *testing.T) {
	t.Parallel()

	input := "id,note\n1,\"first\nsecond\r\nthird\"\n2,plain\n"
	data, err := ParseReader(strings.NewReader(input), "multi.csv", defaultSettings(), false)
	require.NoError(t, err)

	require.Len(t, data.Records, 2)
	assert.Equal(t, []string{"1", "first\nsecond\r\nthird"}, data.Records[0])
	assert.Equal(t, []string{"2", "plain"}, data.Records[1])
	assert.Equal(t, []int{2, 5}, data.RowNumbers)
	assert.Equal(t, 2, data.Stats.JoinedLines)
}

func TestParseReaderUnterminatedQuote(t *testing.T) {
	t.Parallel()

	for _, continueOnError := range []bool{false, true} {
		_, err := ParseReader(strings.NewReader("id,note\n1,\"open\n2,x\n"), "open.csv", defaultSettings(), continueOnError)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnterminatedQuote)

		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 2, rowErr.Row)
	}
}

func TestParseReaderMalformedRow(t *testing.T) {
	t.Parallel()

	input := "a,b\n1,2\n\"x\"y,3\n4,5\n"

	_, err := ParseReader(strings.NewReader(input), "bad.csv", defaultSettings(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, lineparser.ErrCharAfterQuote)
	assert.Contains(t, err.Error(), "row 3")

	data, err := ParseReader(strings.NewReader(input), "bad.csv", defaultSettings(), true)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}, {"4", "5"}}, data.Records)
	assert.Equal(t, 1, data.Stats.SkippedErrors)
	require.Len(t, data.RowErrors, 1)
	assert.Equal(t, 3, data.RowErrors[0].Row)

	var merr *lineparser.MalformedInputError
	require.ErrorAs(t, data.RowErrors[0], &merr)
	assert.Equal(t, 4, merr.Column)
}

func TestParseReaderFieldCount(t *testing.T) {
	t.Parallel()

	input := "a,b\n1,2\n3\n4,5\n"

	_, err := ParseReader(strings.NewReader(input), "short.csv", defaultSettings(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldCount)

	data, err := ParseReader(strings.NewReader(input), "short.csv", defaultSettings(), true)
	require.NoError(t, err)
	assert.Len(t, data.Records, 2)
	require.Len(t, data.RowErrors, 1)
	assert.Equal(t, 3, data.RowErrors[0].Row)

	settings := defaultSettings()
	settings.SkipMismatchedRows = true
	data, err = ParseReader(strings.NewReader(input), "short.csv", settings, false)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}, {"4", "5"}}, data.Records)
	assert.Equal(t, 1, data.Stats.SkippedMismatched)
	assert.Empty(t, data.RowErrors)
}

func TestParseReaderEmptyLines(t *testing.T) {
	t.Parallel()

	input := "a,b\n1,2\n\n3,4\n"

	// A blank line in a multi-column file is an empty record, with or
	// without TreatEmptyLineAsNil.
	for _, emptyAsNil := range []bool{false, true} {
		settings := defaultSettings()
		settings.TreatEmptyLineAsNil = emptyAsNil
		data, err := ParseReader(strings.NewReader(input), "empty.csv", settings, false)
		require.NoError(t, err)
		require.Len(t, data.Records, 3)
		assert.Empty(t, data.Records[1])
		assert.Equal(t, 1, data.Stats.EmptyRecords)
		assert.Equal(t, map[string]string{"a": "", "b": ""}, data.Row(1))
	}

	settings := defaultSettings()
	settings.TreatEmptyLineAsNil = true

	settings.SkipEmptyLine = true
	data, err = ParseReader(strings.NewReader(input), "empty.csv", settings, false)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, data.Records)
	assert.Equal(t, []int{2, 4}, data.RowNumbers)
	assert.Equal(t, 1, data.Stats.SkippedEmpty)
}

func TestParseReaderTrailingBlankLine(t *testing.T) {
	t.Parallel()

	input := "a,b\n1,2\n\n"

	data, err := ParseReader(strings.NewReader(input), "trailing.csv", defaultSettings(), false)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}, {}}, data.Records)
	assert.Equal(t, []int{2, 3}, data.RowNumbers)

	settings := defaultSettings()
	settings.SkipEmptyLine = true
	data, err = ParseReader(strings.NewReader(input), "trailing.csv", settings, false)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}}, data.Records)
	assert.Equal(t, 1, data.Stats.SkippedEmpty)
}

func TestParseReaderBlankLineSingleColumn(t *testing.T) {
	t.Parallel()

	// With one column a blank line is a row holding one empty value.
	data, err := ParseReader(strings.NewReader("a\n1\n\n"), "single.csv", defaultSettings(), false)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}, {""}}, data.Records)
	assert.Zero(t, data.Stats.EmptyRecords)
}

func TestParseReaderHeaders(t *testing.T) {
	t.Parallel()

	t.Run("multiLine", func(t *testing.T) {
		t.Parallel()

		settings := defaultSettings()
		settings.HeaderRows = headerRows(2)
		input := "Transaction,,Policy,\nNumber,Amount,Number,Date\n1,2,3,4\n"

		data, err := ParseReader(strings.NewReader(input), "h.csv", settings, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Transaction Number", "Amount", "Policy Number", "Date"}, data.Headers)
		assert.Equal(t, []int{3}, data.RowNumbers)
	})

	t.Run("blankAndDuplicate", func(t *testing.T) {
		t.Parallel()

		data, err := ParseReader(strings.NewReader("id, ,id,id\n1,2,3,4\n"), "h.csv", defaultSettings(), false)
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "Column_2", "id_2", "id_3"}, data.Headers)
	})

	t.Run("suffixAlreadyTaken", func(t *testing.T) {
		t.Parallel()

		data, err := ParseReader(strings.NewReader("a_2,a,a\n1,2,3\n"), "h.csv", defaultSettings(), false)
		require.NoError(t, err)
		assert.Equal(t, []string{"a_2", "a", "a_3"}, data.Headers)
		assert.Equal(t, map[string]string{"a_2": "1", "a": "2", "a_3": "3"}, data.Row(0))
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		settings := defaultSettings()
		settings.HeaderRows = headerRows(0)

		data, err := ParseReader(strings.NewReader("1,2,3\n4,5,6\n"), "h.csv", settings, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Column_1", "Column_2", "Column_3"}, data.Headers)
		assert.Len(t, data.Records, 2)
		assert.Equal(t, []int{1, 2}, data.RowNumbers)
	})

	t.Run("emptyInput", func(t *testing.T) {
		t.Parallel()

		data, err := ParseReader(strings.NewReader(""), "h.csv", defaultSettings(), false)
		require.NoError(t, err)
		assert.Empty(t, data.Headers)
		assert.Zero(t, data.RowCount)
	})

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()

		settings := defaultSettings()
		settings.HeaderRows = headerRows(3)

		_, err := ParseReader(strings.NewReader("a,b\nc,d\n"), "h.csv", settings, false)
		assert.ErrorContains(t, err, "unexpected end of file")
	})
}

func TestParseReaderEncodings(t *testing.T) {
	t.Parallel()

	t.Run("utf8BOM", func(t *testing.T) {
		t.Parallel()

		data, err := ParseReader(strings.NewReader("\xef\xbb\xbfname\nžluť\n"), "bom.csv", defaultSettings(), false)
		require.NoError(t, err)
		assert.Equal(t, []string{"name"}, data.Headers)
		assert.Equal(t, [][]string{{"žluť"}}, data.Records)
	})

	t.Run("windows1252", func(t *testing.T) {
		t.Parallel()

		settings := defaultSettings()
		settings.Encoding = "windows-1252"

		data, err := ParseReader(strings.NewReader("name\ncaf\xe9\n"), "latin.csv", settings, false)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"café"}}, data.Records)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		settings := defaultSettings()
		settings.Encoding = "no-such-encoding"

		_, err := ParseReader(strings.NewReader("a\n"), "x.csv", settings, false)
		assert.ErrorContains(t, err, "unsupported encoding")
	})
}

func TestParseReaderCustomDialect(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.Delimiter = "pipe"
	settings.QuoteChar = "'"
	settings.EscapeChar = "~"

	data, err := ParseReader(strings.NewReader("a|b\n'x|y'|p~|q\n"), "pipe.csv", settings, false)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x|y", "p|q"}}, data.Records)
}

func TestParseReaderInvalidSettings(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.QuoteChar = ","

	_, err := ParseReader(strings.NewReader("a\n"), "x.csv", settings, false)
	assert.ErrorContains(t, err, "invalid csv settings")
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file.csv")
	require.NoError(t, os.WriteFile(path, []byte("k,v\r\nx,1\r\ny,2\r\n"), 0o644))

	data, err := Parse(path, defaultSettings(), false)
	require.NoError(t, err)
	assert.Equal(t, path, data.SourceFile)
	assert.Equal(t, [][]string{{"x", "1"}, {"y", "2"}}, data.Records)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), defaultSettings(), false)
	assert.ErrorContains(t, err, "failed to open file")
}

func TestStreamingParser(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stream.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,a\n2,b\n"), 0o644))

	parser, err := NewStreamingParser(path, defaultSettings(), false)
	require.NoError(t, err)
	defer parser.Close()

	assert.Equal(t, []string{"id", "name"}, parser.Headers())

	var rows []map[string]string
	for parser.Next() {
		rows = append(rows, parser.Row())
	}
	require.NoError(t, parser.Err())
	assert.Equal(t, []map[string]string{{"id": "1", "name": "a"}, {"id": "2", "name": "b"}}, rows)
	assert.False(t, parser.Next())
}
