package exchange

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/records/internal/record"
)

func exportWorkbook(t *testing.T, records []record.Record, opts WriteOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, records, Reconcile(records), opts); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	return buf.Bytes()
}

func TestWorkbook_RoundTrip(t *testing.T) {
	records := sampleRecords()

	got, err := ReadWorkbook(bytes.NewReader(exportWorkbook(t, records, WriteOptions{})), ReadOptions{})
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	sameContent(t, got, records)
}

func TestWriteWorkbook_Structure(t *testing.T) {
	data := exportWorkbook(t, sampleRecords(), WriteOptions{})

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != DefaultSheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, DefaultSheetName)
	}

	header, err := f.GetCellValue(DefaultSheetName, "D1")
	if err != nil || header != "Colour" {
		t.Errorf("D1 = %q, %v; want Colour", header, err)
	}

	styleID, err := f.GetCellStyle(DefaultSheetName, "A1")
	if err != nil {
		t.Fatalf("GetCellStyle: %v", err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatalf("GetStyle: %v", err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Error("header row should be bold")
	}

	typ, err := f.GetCellType(DefaultSheetName, "A2")
	if err != nil {
		t.Fatalf("GetCellType: %v", err)
	}
	if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
		t.Errorf("ID cell type = %v, want numeric", typ)
	}

	width, err := f.GetColWidth(DefaultSheetName, "A")
	if err != nil {
		t.Fatalf("GetColWidth: %v", err)
	}
	if width < minColumnWidth || width > maxColumnWidth {
		t.Errorf("column A width = %v, want within [%d, %d]", width, minColumnWidth, maxColumnWidth)
	}
}

func TestWriteWorkbook_SheetName(t *testing.T) {
	data := exportWorkbook(t, sampleRecords(), WriteOptions{SheetName: "Export"})

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Export" {
		t.Errorf("sheets = %v", sheets)
	}
}

// buildWorkbook writes cells into a fresh workbook; values keep their Go
// type so numeric and boolean cells can be exercised.
func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadWorkbook_CellCoercion(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"ID", "Name", "Qty", "Price", "Active", "Code"},
		{7.0, "first", 42, 3.5, true, "007"},
		{nil, "second", 10.0, nil, false, nil},
	})

	got, err := ReadWorkbook(bytes.NewReader(data), ReadOptions{})
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records", len(got))
	}

	first := got[0]
	if first.ID == nil || *first.ID != 7 {
		t.Errorf("ID = %v, want 7", first.ID)
	}
	wantAttrs := map[string]string{"Qty": "42", "Price": "3.5", "Active": "true", "Code": "007"}
	for name, want := range wantAttrs {
		if a, ok := first.Attribute(name); !ok || a.Value != want {
			t.Errorf("%s = %q, %v; want %q", name, a.Value, ok, want)
		}
	}

	second := got[1]
	if second.ID != nil {
		t.Errorf("ID = %d, want nil", *second.ID)
	}
	if a, _ := second.Attribute("Qty"); a.Value != "10" {
		t.Errorf("Qty = %q, want 10", a.Value)
	}
	if a, _ := second.Attribute("Active"); a.Value != "false" {
		t.Errorf("Active = %q, want false", a.Value)
	}
	if _, ok := second.Attribute("Price"); ok {
		t.Error("blank Price should not become an attribute")
	}
}

func TestReadWorkbook_Failures(t *testing.T) {
	t.Run("corrupt", func(t *testing.T) {
		_, err := ReadWorkbook(strings.NewReader("definitely not a zip"), ReadOptions{})
		if !IsKind(err, KindImport) {
			t.Fatalf("err = %v, want import failure", err)
		}
	})

	t.Run("empty sheet", func(t *testing.T) {
		_, err := ReadWorkbook(bytes.NewReader(buildWorkbook(t, nil)), ReadOptions{})
		if !IsKind(err, KindImport) || !strings.Contains(err.Error(), "empty file") {
			t.Fatalf("err = %v, want empty file import failure", err)
		}
	})
}

func TestCoerceCell(t *testing.T) {
	tests := []struct {
		typ  excelize.CellType
		raw  string
		want string
	}{
		{excelize.CellTypeBool, "1", "true"},
		{excelize.CellTypeBool, "0", "false"},
		{excelize.CellTypeNumber, "7.0", "7"},
		{excelize.CellTypeNumber, "3.50", "3.5"},
		{excelize.CellTypeUnset, "12", "12"},
		{excelize.CellTypeUnset, "text", "text"},
		{excelize.CellTypeSharedString, "1.0", "1.0"},
	}

	for _, tt := range tests {
		if got := coerceCell(tt.typ, tt.raw); got != tt.want {
			t.Errorf("coerceCell(%v, %q) = %q, want %q", tt.typ, tt.raw, got, tt.want)
		}
	}
}

func TestClampWidth(t *testing.T) {
	if got := clampWidth(1); got != minColumnWidth {
		t.Errorf("clampWidth(1) = %d", got)
	}
	if got := clampWidth(500); got != maxColumnWidth {
		t.Errorf("clampWidth(500) = %d", got)
	}
	if got := clampWidth(20); got != 22 {
		t.Errorf("clampWidth(20) = %d, want 22", got)
	}
}
