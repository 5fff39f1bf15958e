package exchange

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/records/internal/record"
)

// CSVContentType is the media type of CSV exports.
const CSVContentType = "text/csv"

// WriteCSV writes a header row and one row per record to w.
// Records are not modified.
func WriteCSV(w io.Writer, records []record.Record, schema *Schema, opts WriteOptions) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(headerRow(schema, opts)); err != nil {
		return exportFailure("write csv header", err)
	}

	for i := range records {
		if err := cw.Write(dataRow(&records[i], schema)); err != nil {
			return exportFailure(fmt.Sprintf("write csv row %d", i+1), err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return exportFailure("flush csv", err)
	}
	return nil
}

// ReadCSV parses a CSV document into records. The first row is the header.
// Blank rows are skipped. An input with no header row fails with an
// ImportFailure, as does malformed quoting.
func ReadCSV(r io.Reader, opts ReadOptions) ([]record.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, importFailure("read csv", err)
	}

	rows, err := parseCSV(cleanText(data))
	if err != nil {
		return nil, importFailure("invalid csv", err)
	}

	return rowsToRecords(rows, opts)
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// rowsToRecords applies the header layout to every following row.
// Shared by both readers.
func rowsToRecords(rows [][]string, opts ReadOptions) ([]record.Record, error) {
	if len(rows) == 0 {
		return nil, importFailure("empty file", nil)
	}

	layout := newReadLayout(rows[0], opts)

	records := make([]record.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		records = append(records, layout.record(row))
	}
	return records, nil
}
