package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/records/internal/exchange"
)

// ImportResponse is returned by a successful import.
type ImportResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	BatchID string `json:"batchId"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Exchange exchange.LimiterStatus `json:"exchange"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Exchange: s.exchange.LimiterStatus()}
	if err := s.store.Ping(r.Context()); err != nil {
		resp.Status = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExport streams every record as a download in format.
func (s *Server) handleExport(format exchange.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.exchange.Export(r.Context(), format)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", out.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.FileName))
		w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
		w.WriteHeader(http.StatusOK)
		w.Write(out.Data)
	}
}

// handleImport reads the multipart "file" field and imports it as format.
// A missing file is passed through as an empty upload so the exchange
// service reports it like any other rejected file.
func (s *Server) handleImport(format exchange.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxSize := s.cfg.Exchange.MaxFileSize
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

		up, err := readUpload(r, maxSize)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		result, err := s.importUpload(r.Context(), format, up)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ImportResponse{
			Message: fmt.Sprintf("Imported %d entities successfully", result.Imported),
			Count:   result.Imported,
			BatchID: result.BatchID,
		})
	}
}

func (s *Server) importUpload(ctx context.Context, format exchange.Format, up exchange.Upload) (*exchange.ImportResult, error) {
	if format == exchange.FormatWorkbook {
		return s.exchange.ImportWorkbook(ctx, up)
	}
	return s.exchange.ImportCSV(ctx, up)
}

func readUpload(r *http.Request, maxSize int64) (exchange.Upload, error) {
	if err := r.ParseMultipartForm(min(maxSize, 32<<20)); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return exchange.Upload{}, err
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return exchange.Upload{}, fmt.Errorf("%w: invalid form: %v", errBadRequest, err)
		}
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return exchange.Upload{}, nil
	}
	if err != nil {
		return exchange.Upload{}, fmt.Errorf("%w: read file field: %v", errBadRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return exchange.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	return exchange.Upload{FileName: header.Filename, Data: data}, nil
}
