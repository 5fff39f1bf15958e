package exchange

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/records/internal/record"
)

// WorkbookContentType is the media type of workbook exports.
const WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DefaultSheetName is the sheet written when WriteOptions.SheetName is empty.
const DefaultSheetName = "Records"

// Column width bounds, in characters.
const (
	minColumnWidth = 8
	maxColumnWidth = 80
)

// WriteWorkbook writes records as a single-sheet xlsx workbook to w.
// The header row is bold, identifier cells are numeric and every other cell
// is a string. Columns are sized to their longest value once all rows are in.
func WriteWorkbook(w io.Writer, records []record.Record, schema *Schema, opts WriteOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return exportFailure("name sheet", err)
	}

	header := headerRow(schema, opts)
	widths := make([]int, len(header))

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return exportFailure("create header style", err)
	}

	for col, label := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return exportFailure("header cell", err)
		}
		if err := f.SetCellStr(sheet, cell, label); err != nil {
			return exportFailure("write header", err)
		}
		widths[col] = utf8.RuneCountInString(label)
	}

	lastCell, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return exportFailure("header cell", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCell, bold); err != nil {
		return exportFailure("style header", err)
	}

	for i := range records {
		rowNum := i + 2
		row := dataRow(&records[i], schema)

		for col, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return exportFailure("data cell", err)
			}

			if col == 0 {
				err = f.SetCellValue(sheet, cell, *records[i].ID)
			} else {
				err = f.SetCellStr(sheet, cell, value)
			}
			if err != nil {
				return exportFailure(fmt.Sprintf("write row %d", i+1), err)
			}

			if n := utf8.RuneCountInString(value); n > widths[col] {
				widths[col] = n
			}
		}
	}

	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return exportFailure("column name", err)
		}
		if err := f.SetColWidth(sheet, name, name, float64(clampWidth(width))); err != nil {
			return exportFailure("size column", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return exportFailure("write workbook", err)
	}
	return nil
}

func clampWidth(n int) int {
	// A little padding so values don't touch the column edge.
	n += 2
	if n < minColumnWidth {
		return minColumnWidth
	}
	if n > maxColumnWidth {
		return maxColumnWidth
	}
	return n
}

// ReadWorkbook parses the first sheet of an xlsx workbook into records.
// Cell values are coerced to strings: booleans as true/false, numbers in
// shortest decimal form. A corrupt document, a workbook without sheets, or
// a sheet without a header row fails with an ImportFailure.
func ReadWorkbook(r io.Reader, opts ReadOptions) ([]record.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, importFailure("invalid workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, importFailure("workbook has no sheets", nil)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, importFailure("invalid workbook", err)
	}

	for r, row := range rows {
		for c, raw := range row {
			if raw == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, importFailure("invalid workbook", err)
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, importFailure("invalid workbook", err)
			}
			row[c] = coerceCell(typ, raw)
		}
	}

	return rowsToRecords(rows, opts)
}

// coerceCell renders a raw cell value as a string. excelize reports cells it
// wrote without an explicit type attribute as unset; those hold numbers.
func coerceCell(typ excelize.CellType, raw string) string {
	switch typ {
	case excelize.CellTypeBool:
		switch raw {
		case "1", "TRUE", "true":
			return "true"
		case "0", "FALSE", "false":
			return "false"
		}
		return raw
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return formatNumber(raw)
	default:
		return raw
	}
}

// formatNumber prints a numeric cell in shortest decimal form, so 7.0 and 7
// both come back as "7". Non-numeric text is returned unchanged.
func formatNumber(raw string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
