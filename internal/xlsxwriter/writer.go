// =============================================================================
// csvline - XLSX Writer Module
// =============================================================================
//
// This module writes parsed CSV data to an Excel workbook using excelize.
//
// WORKBOOK LAYOUT:
//   - One sheet (default name "Records")
//   - Row 1 holds the headers in bold and is frozen
//   - Every following row holds one record, in file order
//
// Every value is written as a string so that codes with leading zeros and
// long numbers keep their exact text.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csvline/internal/csvparser"
)

// Options contains options for workbook generation.
type Options struct {
	// SheetName is the name of the only sheet.
	// Default: "Records"
	SheetName string

	// FreezeHeader keeps the header row visible while scrolling.
	// Default: true
	FreezeHeader bool
}

// DefaultOptions returns the default workbook options.
func DefaultOptions() Options {
	return Options{
		SheetName:    "Records",
		FreezeHeader: true,
	}
}

// Generate creates an XLSX workbook from parsed CSV data.
func Generate(data *csvparser.CSVData) ([]byte, error) {
	return GenerateWithOptions(data, DefaultOptions())
}

// GenerateWithOptions creates an XLSX workbook with custom options.
//
// PARAMETERS:
//   - data: The parsed CSV data.
//   - options: The workbook options.
//
// RETURNS:
//   - The workbook as a byte slice.
//   - An error if the data does not fit on one sheet or excelize fails.
func GenerateWithOptions(data *csvparser.CSVData, options Options) ([]byte, error) {
	if len(data.Records)+1 > excelize.TotalRows {
		return nil, fmt.Errorf("%d records exceed the sheet limit of %d rows", len(data.Records), excelize.TotalRows-1)
	}
	if len(data.Headers) > excelize.MaxColumns {
		return nil, fmt.Errorf("%d columns exceed the sheet limit of %d", len(data.Headers), excelize.MaxColumns)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := options.SheetName
	if sheet == "" {
		sheet = DefaultOptions().SheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if len(data.Headers) > 0 {
		if err := writeHeader(f, sheet, data.Headers, options); err != nil {
			return nil, err
		}
	}

	for i, record := range data.Records {
		row := make([]interface{}, len(data.Headers))
		for col := range data.Headers {
			if col < len(record) {
				row[col] = record[col]
			} else {
				row[col] = ""
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buffer.Bytes(), nil
}

// writeHeader writes the bold header row.
func writeHeader(f *excelize.File, sheet string, headers []string, options Options) error {
	row := make([]interface{}, len(headers))
	for i, header := range headers {
		row[i] = header
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if options.FreezeHeader {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}

	return nil
}
