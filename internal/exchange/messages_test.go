package exchange

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/records/internal/record"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil", nil, ""},
		{"no file", validationFailure(msgNoFile), "VAL001"},
		{"bad name", validationFailure(msgBadName), "VAL002"},
		{"want csv", validationFailure(msgWantCSV), "VAL003"},
		{"want excel", validationFailure(msgWantExcel), "VAL004"},
		{"too large", validationFailure(msgFileTooBig + ": 20 bytes"), "VAL005"},
		{"unknown validation", validationFailure("unsupported export format"), "VAL000"},
		{"empty file", importFailure("empty file", nil), "IMP001"},
		{"invalid csv", importFailure("invalid csv", errors.New(`extraneous or missing " in quoted-field`)), "IMP002"},
		{"invalid workbook", importFailure("invalid workbook", errors.New("zip: not a valid zip file")), "IMP003"},
		{"read failure", importFailure("read csv", errors.New("unexpected EOF")), "IMP000"},
		{"export failure", exportFailure("write workbook", errors.New("short write")), "EXP001"},
		{"record validation", record.ValidationErrors{{Field: "name", Message: "name is required"}}, "REC002"},
		{"duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "records_pkey"`), "DB001"},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: records.id"), "DB001"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB002"},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), "DB004"},
		{"busy", fmt.Errorf("export: %w", ErrTooManyOperations), "REQ001"},
		{"cancelled", fmt.Errorf("load records: %w", context.Canceled), "REQ002"},
		{"deadline", context.DeadlineExceeded, "REQ003"},
		{"body limit", errors.New("http: request body too large"), "VAL005"},
		{"bad request", errors.New(`bad request: invalid id "x"`), "REQ004"},
		{"missing credentials", errors.New("missing credentials"), "AUTH001"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("something strange"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && (got.Message == "" || got.Action == "") {
				t.Errorf("MapError(%v) = %+v, want message and action", tt.err, got)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q", got)
	}

	got := FormatUserError(importFailure("empty file", nil))
	want := "The uploaded file is empty (Code: IMP001). Include a header row with at least the Name column"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if !IsUserFacing(validationFailure(msgNoFile)) {
		t.Error("validation failure should be user facing")
	}
	if IsUserFacing(errors.New("segfault in the flux capacitor")) {
		t.Error("unknown error should not be user facing")
	}
}

func TestFailure_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := exportFailure("write csv", cause)

	if got := err.Error(); got != "export failure: write csv: disk full" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("Failure should unwrap to its cause")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if kind, ok := KindOf(wrapped); !ok || kind != KindExport {
		t.Errorf("KindOf = %q, %v", kind, ok)
	}
	if _, ok := KindOf(cause); ok {
		t.Error("plain error has no kind")
	}
	if got := validationFailure("x").Error(); got != "validation failure: x" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFailure_Detail(t *testing.T) {
	cause := errors.New("parse error on line 3, column 5: bare \" in non-quoted field")

	tests := []struct {
		name string
		err  *Failure
		want string
	}{
		{"validation", &Failure{Kind: KindValidation, Message: msgNoFile}, msgNoFile},
		{"import with cause", &Failure{Kind: KindImport, Message: "invalid csv", Err: cause}, "invalid csv: " + cause.Error()},
		{"import without cause", &Failure{Kind: KindImport, Message: "empty file"}, "empty file"},
		{"export hides cause", &Failure{Kind: KindExport, Message: "flush csv", Err: cause}, "flush csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Detail(); got != tt.want {
				t.Errorf("Detail() = %q, want %q", got, tt.want)
			}
		})
	}
}
