package exchange

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/record"
)

// memRepo is an in-memory Repository. SaveAll assigns IDs to new records.
type memRepo struct {
	mu      sync.Mutex
	records []record.Record
	nextID  int64
	saves   int
	saveErr error
	findErr error
}

func (m *memRepo) FindAll(ctx context.Context) ([]record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := make([]record.Record, len(m.records))
	for i := range m.records {
		out[i] = m.records[i].Clone()
	}
	return out, nil
}

func (m *memRepo) SaveAll(ctx context.Context, records []record.Record) ([]record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	saved := make([]record.Record, len(records))
	for i, r := range records {
		r = r.Clone()
		if r.ID == nil {
			m.nextID++
			r.ID = record.IDPtr(m.nextID + 1000)
		}
		saved[i] = r
	}
	m.records = append(m.records, saved...)
	return saved, nil
}

func TestService_ExportCSV(t *testing.T) {
	repo := &memRepo{records: sampleRecords()}
	svc := NewService(repo, Options{})

	exp, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if exp.FileName != "records.csv" || exp.ContentType != CSVContentType {
		t.Errorf("file = %q, content type = %q", exp.FileName, exp.ContentType)
	}
	if exp.Records != 3 || exp.Columns != 6 {
		t.Errorf("records = %d, columns = %d; want 3, 6", exp.Records, exp.Columns)
	}
	if !bytes.HasPrefix(exp.Data, []byte("ID,Name,Description,Colour,Size,Notes\n")) {
		t.Errorf("data = %q", exp.Data)
	}
}

func TestService_ExportWorkbook(t *testing.T) {
	repo := &memRepo{records: sampleRecords()}
	svc := NewService(repo, Options{BaseName: "entities"})

	exp, err := svc.ExportWorkbook(context.Background())
	if err != nil {
		t.Fatalf("ExportWorkbook: %v", err)
	}
	if exp.FileName != "entities.xlsx" || exp.ContentType != WorkbookContentType {
		t.Errorf("file = %q, content type = %q", exp.FileName, exp.ContentType)
	}

	got, err := ReadWorkbook(bytes.NewReader(exp.Data), ReadOptions{})
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	sameContent(t, got, sampleRecords())
}

func TestService_ExportEmptyStore(t *testing.T) {
	svc := NewService(&memRepo{}, Options{})

	exp, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if string(exp.Data) != "ID,Name,Description\n" {
		t.Errorf("data = %q", exp.Data)
	}
}

func TestService_ExportLoadError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&memRepo{findErr: boom}, Options{})

	_, err := svc.ExportCSV(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestService_Export_UnknownFormat(t *testing.T) {
	svc := NewService(&memRepo{}, Options{})
	if _, err := svc.Export(context.Background(), "pdf"); !IsKind(err, KindValidation) {
		t.Errorf("err = %v, want validation failure", err)
	}
}

func TestService_ImportCSV(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, Options{})

	data := "ID,Name,Description,Colour\n,new one,,red\n9,existing,desc,\n"
	res, err := svc.ImportCSV(context.Background(), Upload{FileName: "in.CSV", Data: []byte(data)})
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}

	if res.Imported != 2 || len(res.Records) != 2 {
		t.Fatalf("imported = %d, records = %d", res.Imported, len(res.Records))
	}
	if _, err := uuid.Parse(res.BatchID); err != nil {
		t.Errorf("BatchID %q is not a uuid: %v", res.BatchID, err)
	}
	if res.FileName != "in.CSV" {
		t.Errorf("FileName = %q", res.FileName)
	}
	if repo.saves != 1 {
		t.Errorf("SaveAll called %d times, want 1", repo.saves)
	}
	if res.Records[0].ID == nil || *res.Records[0].ID != 1001 {
		t.Errorf("new record ID = %v", res.Records[0].ID)
	}
	if *res.Records[1].ID != 9 {
		t.Errorf("existing record ID = %d, want 9", *res.Records[1].ID)
	}
}

func TestService_ImportWorkbook(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, Options{})

	var buf bytes.Buffer
	records := sampleRecords()
	if err := WriteWorkbook(&buf, records, Reconcile(records), WriteOptions{}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Import(context.Background(), Upload{FileName: "book.xlsx", Data: buf.Bytes()})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 3 {
		t.Errorf("Imported = %d, want 3", res.Imported)
	}
	sameContent(t, res.Records, records)
}

func TestService_ImportHeaderOnlySavesNothing(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, Options{})

	res, err := svc.ImportCSV(context.Background(), Upload{FileName: "a.csv", Data: []byte("ID,Name\n")})
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res.Imported != 0 || repo.saves != 0 {
		t.Errorf("imported = %d, saves = %d", res.Imported, repo.saves)
	}
}

func TestService_ImportEmptyStreamFails(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, Options{})

	_, err := svc.ImportCSV(context.Background(), Upload{FileName: "a.csv", Data: []byte("\n\n")})
	if !IsKind(err, KindImport) {
		t.Fatalf("err = %v, want import failure", err)
	}
	if repo.saves != 0 {
		t.Errorf("SaveAll called %d times, want 0", repo.saves)
	}
}

func TestService_ImportStoreErrorUnwrapped(t *testing.T) {
	boom := errors.New("unique constraint")
	repo := &memRepo{saveErr: boom}
	svc := NewService(repo, Options{})

	_, err := svc.ImportCSV(context.Background(), Upload{FileName: "a.csv", Data: []byte("Name\nx\n")})
	if err != boom {
		t.Errorf("err = %v, want the store error unchanged", err)
	}
}

func TestService_ImportValidation(t *testing.T) {
	svc := NewService(&memRepo{}, Options{MaxFileSize: 16})
	csvData := []byte("Name\nx\n")

	tests := []struct {
		name    string
		call    func(context.Context, Upload) (*ImportResult, error)
		upload  Upload
		wantMsg string
	}{
		{"csv empty", svc.ImportCSV, Upload{FileName: "a.csv"}, msgNoFile},
		{"csv no name", svc.ImportCSV, Upload{Data: csvData}, msgBadName},
		{"csv no extension", svc.ImportCSV, Upload{FileName: "data", Data: csvData}, msgBadName},
		{"csv wrong family", svc.ImportCSV, Upload{FileName: "a.xlsx", Data: csvData}, msgWantCSV},
		{"csv unknown ext", svc.ImportCSV, Upload{FileName: "a.txt", Data: csvData}, msgWantCSV},
		{"workbook wrong family", svc.ImportWorkbook, Upload{FileName: "a.csv", Data: csvData}, msgWantExcel},
		{"too large", svc.ImportCSV, Upload{FileName: "a.csv", Data: bytes.Repeat([]byte("x"), 17)}, msgFileTooBig},
		{"auto empty", svc.Import, Upload{FileName: "a.csv"}, msgNoFile},
		{"auto unknown", svc.Import, Upload{FileName: "a.pdf", Data: csvData}, msgBadName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call(context.Background(), tt.upload)
			if !IsKind(err, KindValidation) {
				t.Fatalf("err = %v, want validation failure", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestService_ImportExtensionOnlyName(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, Options{})

	res, err := svc.ImportCSV(context.Background(), Upload{FileName: ".csv", Data: []byte("Name\nx\n")})
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res.Imported != 1 {
		t.Errorf("Imported = %d, want 1", res.Imported)
	}
}

func TestService_XLSFailsInReader(t *testing.T) {
	svc := NewService(&memRepo{}, Options{})

	_, err := svc.ImportWorkbook(context.Background(), Upload{FileName: "old.XLS", Data: []byte{0xD0, 0xCF, 0x11, 0xE0}})
	if !IsKind(err, KindImport) {
		t.Errorf("err = %v, want import failure", err)
	}
}

func TestService_BusyLimiter(t *testing.T) {
	svc := NewService(&memRepo{}, Options{MaxConcurrent: 1, MaxWaitTime: 20 * time.Millisecond})

	if !svc.limiter.tryAcquire() {
		t.Fatal("tryAcquire failed")
	}
	defer svc.limiter.Release()

	if st := svc.LimiterStatus(); st.Active != 1 || st.Available != 0 {
		t.Errorf("status = %+v", st)
	}

	_, err := svc.ExportCSV(context.Background())
	if !errors.Is(err, ErrTooManyOperations) {
		t.Errorf("err = %v, want ErrTooManyOperations", err)
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"a.csv":         "csv",
		"A.XLSX":        "xlsx",
		"dir/b.tar.csv": "csv",
		`C:\tmp\x.xls`:  "xls",
		"noext":         "",
		".csv":          "csv",
		"  ":            "",
		"trailing.":     "",
	}
	for in, want := range tests {
		if got := extension(in); got != want {
			t.Errorf("extension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOptionsFrom(t *testing.T) {
	opts := OptionsFrom(config.ExchangeConfig{
		MaxFileSize:   10,
		MaxConcurrent: 2,
		MaxWaitTime:   time.Second,
		TypeHints:     true,
		SheetName:     "Data",
		BaseName:      "dump",
	})
	want := Options{MaxFileSize: 10, MaxConcurrent: 2, MaxWaitTime: time.Second, TypeHints: true, SheetName: "Data", BaseName: "dump"}
	if opts != want {
		t.Errorf("OptionsFrom = %+v, want %+v", opts, want)
	}

	svc := NewService(&memRepo{}, OptionsFrom(config.ExchangeConfig{}))
	if svc.opts != DefaultOptions() {
		t.Errorf("zero config options = %+v, want defaults", svc.opts)
	}
}
