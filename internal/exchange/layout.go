package exchange

// layout.go maps between records and flat rows. The same column rules are
// shared by the CSV and workbook codecs.
//
// Row layout, left to right: ID, Name, Description, then one column per
// schema entry. On the way back in, the header row decides what each column
// means; position only matters when a fixed label appears more than once.

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/records/internal/record"
)

// Fixed column labels.
const (
	LabelID          = "ID"
	LabelName        = "Name"
	LabelDescription = "Description"
)

// fixedColumns is the number of leading fixed columns in an export.
const fixedColumns = 3

// WriteOptions controls header rendering.
type WriteOptions struct {
	// TypeHints appends " [type]" to headers of non-text attributes, and to
	// any header whose name would otherwise read back as a hint.
	TypeHints bool
	// SheetName names the workbook sheet. Defaults to DefaultSheetName.
	SheetName string
}

// headerRow builds the header labels for a schema.
func headerRow(schema *Schema, opts WriteOptions) []string {
	header := make([]string, 0, fixedColumns+schema.Len())
	header = append(header, LabelID, LabelName, LabelDescription)
	for i, name := range schema.names {
		header = append(header, columnLabel(name, schema.Type(i), opts.TypeHints))
	}
	return header
}

// ReadOptions controls header parsing.
type ReadOptions struct {
	// TypeHints strips a trailing " [type]" from custom headers and applies
	// that type. Without it every custom header is a plain name.
	TypeHints bool
}

// columnLabel renders a custom column header, with an optional type hint.
// A name that already ends in a known hint gets an explicit one so the
// reader keeps it intact.
func columnLabel(name string, t record.AttributeType, hints bool) string {
	if !hints {
		return name
	}
	t = t.OrDefault()
	if t == record.TypeText && !endsWithHint(name) {
		return name
	}
	return name + " [" + string(t) + "]"
}

// endsWithHint reports whether label ends in " [type]" for a known type.
func endsWithHint(label string) bool {
	name, _ := splitLabel(label)
	return name != label
}

// splitLabel parses a header label into attribute name and declared type.
// A trailing " [type]" is only treated as a hint when type is a known
// attribute type; anything else is part of the name.
func splitLabel(label string) (string, record.AttributeType) {
	if !strings.HasSuffix(label, "]") {
		return label, record.TypeText
	}
	open := strings.LastIndex(label, " [")
	if open <= 0 {
		return label, record.TypeText
	}
	hint := label[open+2 : len(label)-1]
	t, err := record.ParseAttributeType(hint)
	if err != nil || hint == "" {
		return label, record.TypeText
	}
	return label[:open], t
}

// dataRow renders one record against the schema. The value of a schema
// column is taken from the first attribute with that name.
func dataRow(rec *record.Record, schema *Schema) []string {
	row := make([]string, fixedColumns+schema.Len())
	if rec.ID != nil {
		row[0] = strconv.FormatInt(*rec.ID, 10)
	}
	row[1] = rec.Name
	row[2] = rec.Description

	filled := make([]bool, schema.Len())
	for _, attr := range rec.Attributes {
		i, ok := schema.Index(attr.Name)
		if !ok || filled[i] {
			continue
		}
		filled[i] = true
		row[fixedColumns+i] = attr.Value
	}
	return row
}

type columnKind int

const (
	columnCustom columnKind = iota
	columnID
	columnName
	columnDescription
	columnIgnored
)

type column struct {
	kind columnKind
	name string
	typ  record.AttributeType
}

// readLayout is the column map derived from an import header.
type readLayout struct {
	columns []column
}

// newReadLayout resolves each header label once. The first column carrying
// a fixed label owns that fixed field; later columns with the same label are
// custom attributes of that name. Fixed labels match after trimming; custom
// names are kept exactly as written. Blank labels are ignored since an
// attribute needs a name.
func newReadLayout(header []string, opts ReadOptions) readLayout {
	layout := readLayout{columns: make([]column, len(header))}
	claimed := make(map[columnKind]bool, fixedColumns)

	for i, raw := range header {
		label := strings.TrimSpace(raw)

		kind := columnCustom
		switch label {
		case LabelID:
			kind = columnID
		case LabelName:
			kind = columnName
		case LabelDescription:
			kind = columnDescription
		case "":
			kind = columnIgnored
		}

		if kind != columnCustom && kind != columnIgnored {
			if !claimed[kind] {
				claimed[kind] = true
				layout.columns[i] = column{kind: kind, name: label}
				continue
			}
			kind = columnCustom
		}

		if kind == columnIgnored {
			layout.columns[i] = column{kind: columnIgnored}
			continue
		}

		name, typ := raw, record.TypeText
		if opts.TypeHints {
			name, typ = splitLabel(raw)
		}
		layout.columns[i] = column{kind: columnCustom, name: name, typ: typ}
	}
	return layout
}

// record maps one data row to a record. Cells beyond the header width are
// ignored and missing trailing cells count as empty.
func (l readLayout) record(cells []string) record.Record {
	var rec record.Record

	for i, col := range l.columns {
		if i >= len(cells) {
			break
		}
		value := cells[i]

		switch col.kind {
		case columnID:
			if id, ok := parseID(value); ok {
				rec.ID = record.IDPtr(id)
			}
		case columnName:
			rec.Name = value
		case columnDescription:
			rec.Description = value
		case columnCustom:
			if value == "" {
				continue
			}
			rec.Attributes = append(rec.Attributes, record.CustomAttribute{
				Name:  col.name,
				Value: value,
				Type:  col.typ,
			})
		}
	}
	return rec
}

// parseID parses a decimal identifier. Anything else, surrounding
// whitespace included, leaves the record without an identifier so the
// store assigns one on save.
func parseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// isBlankRow reports whether every cell is empty or whitespace.
func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
