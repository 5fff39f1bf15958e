package exchange

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/logging"
	"github.com/JonMunkholm/records/internal/record"
)

// Repository is the persistence the facade needs. store.Repository
// satisfies it.
type Repository interface {
	FindAll(ctx context.Context) ([]record.Record, error)
	SaveAll(ctx context.Context, records []record.Record) ([]record.Record, error)
}

// Format identifies a tabular file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatWorkbook Format = "xlsx"
)

// DefaultMaxFileSize bounds a single upload (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// DefaultBaseName is the export file name without extension.
const DefaultBaseName = "records"

// Options configures a Service.
type Options struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWaitTime   time.Duration
	TypeHints     bool
	SheetName     string
	BaseName      string
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:   DefaultMaxFileSize,
		MaxConcurrent: DefaultMaxConcurrent,
		MaxWaitTime:   DefaultMaxWaitTime,
		SheetName:     DefaultSheetName,
		BaseName:      DefaultBaseName,
	}
}

// OptionsFrom maps the exchange section of the application config.
func OptionsFrom(cfg config.ExchangeConfig) Options {
	return Options{
		MaxFileSize:   cfg.MaxFileSize,
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWaitTime:   cfg.MaxWaitTime,
		TypeHints:     cfg.TypeHints,
		SheetName:     cfg.SheetName,
		BaseName:      cfg.BaseName,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = d.MaxFileSize
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = d.MaxConcurrent
	}
	if o.MaxWaitTime <= 0 {
		o.MaxWaitTime = d.MaxWaitTime
	}
	if o.SheetName == "" {
		o.SheetName = d.SheetName
	}
	if o.BaseName == "" {
		o.BaseName = d.BaseName
	}
	return o
}

func (o Options) writeOptions() WriteOptions {
	return WriteOptions{TypeHints: o.TypeHints, SheetName: o.SheetName}
}

func (o Options) readOptions() ReadOptions {
	return ReadOptions{TypeHints: o.TypeHints}
}

// Upload is an uploaded file held in memory.
type Upload struct {
	FileName string
	Data     []byte
}

// Export is a rendered export file.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
	Records     int
	Columns     int
}

// ImportResult describes a committed import.
type ImportResult struct {
	BatchID  string
	FileName string
	Imported int
	Records  []record.Record
	Duration time.Duration
}

// Service exports and imports records through a Repository.
// It is safe for concurrent use.
type Service struct {
	repo    Repository
	opts    Options
	limiter *Limiter
}

// NewService creates a Service. Zero option fields take their defaults.
func NewService(repo Repository, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		repo:    repo,
		opts:    opts,
		limiter: NewLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
	}
}

// ExportCSV renders every stored record as CSV.
func (s *Service) ExportCSV(ctx context.Context) (*Export, error) {
	return s.export(ctx, FormatCSV)
}

// ExportWorkbook renders every stored record as an xlsx workbook.
func (s *Service) ExportWorkbook(ctx context.Context) (*Export, error) {
	return s.export(ctx, FormatWorkbook)
}

// Export renders every stored record in the given format.
func (s *Service) Export(ctx context.Context, format Format) (*Export, error) {
	switch format {
	case FormatCSV, FormatWorkbook:
		return s.export(ctx, format)
	default:
		return nil, validationFailure(fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *Service) export(ctx context.Context, format Format) (*Export, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	logger := logging.WithFields(ctx, "op", "export", "format", string(format))

	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	schema := Reconcile(records)

	var buf bytes.Buffer
	out := &Export{Records: len(records), Columns: fixedColumns + schema.Len()}

	switch format {
	case FormatWorkbook:
		err = WriteWorkbook(&buf, records, schema, s.opts.writeOptions())
		out.FileName = s.opts.BaseName + ".xlsx"
		out.ContentType = WorkbookContentType
	default:
		err = WriteCSV(&buf, records, schema, s.opts.writeOptions())
		out.FileName = s.opts.BaseName + ".csv"
		out.ContentType = CSVContentType
	}
	if err != nil {
		logger.Error("export failed", "error", err)
		return nil, err
	}
	out.Data = buf.Bytes()

	logger.Info("export complete",
		"file", out.FileName,
		"records", out.Records,
		"columns", out.Columns,
		"bytes", len(out.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// ImportCSV validates, parses and saves a CSV upload.
func (s *Service) ImportCSV(ctx context.Context, up Upload) (*ImportResult, error) {
	if err := s.validate(up, FormatCSV); err != nil {
		return nil, err
	}
	return s.importBatch(ctx, up, FormatCSV)
}

// ImportWorkbook validates, parses and saves a workbook upload.
func (s *Service) ImportWorkbook(ctx context.Context, up Upload) (*ImportResult, error) {
	if err := s.validate(up, FormatWorkbook); err != nil {
		return nil, err
	}
	return s.importBatch(ctx, up, FormatWorkbook)
}

// Import picks the format from the upload's file extension.
func (s *Service) Import(ctx context.Context, up Upload) (*ImportResult, error) {
	if len(up.Data) == 0 {
		return nil, validationFailure(msgNoFile)
	}
	format, ok := formatOf(extension(up.FileName))
	if !ok {
		return nil, validationFailure(msgBadName)
	}
	if format == FormatWorkbook {
		return s.ImportWorkbook(ctx, up)
	}
	return s.ImportCSV(ctx, up)
}

// Validation messages.
const (
	msgNoFile     = "please select a file to upload"
	msgBadName    = "invalid file name"
	msgWantCSV    = "please upload a CSV file"
	msgWantExcel  = "please upload an Excel file (xlsx or xls)"
	msgFileTooBig = "file too large"
)

// validate rejects an upload before any parsing happens.
func (s *Service) validate(up Upload, want Format) error {
	if len(up.Data) == 0 {
		return validationFailure(msgNoFile)
	}

	ext := extension(up.FileName)
	if ext == "" {
		return validationFailure(msgBadName)
	}
	if got, ok := formatOf(ext); !ok || got != want {
		if want == FormatWorkbook {
			return validationFailure(msgWantExcel)
		}
		return validationFailure(msgWantCSV)
	}

	if int64(len(up.Data)) > s.opts.MaxFileSize {
		return validationFailure(fmt.Sprintf("%s: %d bytes exceeds the %d byte limit", msgFileTooBig, len(up.Data), s.opts.MaxFileSize))
	}
	return nil
}

// extension returns the lower-cased extension of name without the dot,
// or "" when name has none. A bare ".csv" counts as a csv file.
func extension(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	ext := filepath.Ext(filepath.Base(filepath.ToSlash(name)))
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

func formatOf(ext string) (Format, bool) {
	switch ext {
	case "csv":
		return FormatCSV, true
	case "xlsx", "xls":
		return FormatWorkbook, true
	default:
		return "", false
	}
}

func (s *Service) importBatch(ctx context.Context, up Upload, format Format) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	batchID := uuid.NewString()
	logger := logging.WithFields(ctx,
		"op", "import",
		"batch_id", batchID,
		"file", up.FileName,
		"format", string(format),
	)
	logger.Info("import started", "bytes", len(up.Data))

	var (
		records []record.Record
		err     error
	)
	if format == FormatWorkbook {
		records, err = ReadWorkbook(bytes.NewReader(up.Data), s.opts.readOptions())
	} else {
		records, err = ReadCSV(bytes.NewReader(up.Data), s.opts.readOptions())
	}
	if err != nil {
		logger.Warn("import rejected", "error", err)
		return nil, err
	}

	result := &ImportResult{
		BatchID:  batchID,
		FileName: up.FileName,
	}

	if len(records) > 0 {
		saved, err := s.repo.SaveAll(ctx, records)
		if err != nil {
			logger.Error("import save failed", "records", len(records), "error", err)
			return nil, err
		}
		result.Records = saved
		result.Imported = len(saved)
	}

	result.Duration = time.Since(start)
	logger.Info("import complete",
		"records", result.Imported,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// LimiterStatus reports how many exchange operations are running.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForDrain blocks until running operations finish or ctx ends.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
