package xlsxwriter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csvline/internal/csvparser"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	data := &csvparser.CSVData{
		Headers:    []string{"id", "note"},
		Records:    [][]string{{"007", "first\nsecond"}, {}},
		RowNumbers: []int{2, 4},
	}

	out, err := Generate(data)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Records"}, f.GetSheetList())

	id, err := f.GetCellValue("Records", "A2")
	require.NoError(t, err)
	assert.Equal(t, "007", id)

	note, err := f.GetCellValue("Records", "B2")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", note)

	header, err := f.GetCellValue("Records", "B1")
	require.NoError(t, err)
	assert.Equal(t, "note", header)

	styleID, err := f.GetCellStyle("Records", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	empty, err := f.GetCellValue("Records", "A3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGenerateCustomSheet(t *testing.T) {
	t.Parallel()

	data := &csvparser.CSVData{Headers: []string{"a"}, Records: [][]string{{"1"}}}

	out, err := GenerateWithOptions(data, Options{SheetName: "Payments"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Payments")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"1"}}, rows)
}

func TestGenerateTooManyColumns(t *testing.T) {
	t.Parallel()

	data := &csvparser.CSVData{Headers: make([]string, excelize.MaxColumns+1)}

	_, err := Generate(data)
	assert.ErrorContains(t, err, "exceed the sheet limit")
}
