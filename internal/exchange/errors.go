package exchange

import (
	"errors"
	"fmt"
)

// Kind classifies an exchange failure.
type Kind string

const (
	// KindValidation: bad or missing file name or extension, empty upload.
	KindValidation Kind = "validation failure"
	// KindImport: missing header or unparsable document structure.
	KindImport Kind = "import failure"
	// KindExport: I/O fault while producing an export.
	KindExport Kind = "export failure"
)

// Failure is the error type returned by the exchange engine.
// Message is safe to show to callers; Err carries the underlying cause.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Detail is the caller-facing description: the message, plus the
// underlying cause for import failures. Export causes stay in the logs.
func (f *Failure) Detail() string {
	if f.Kind == KindImport && f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the kind of the first Failure in err's chain.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a Failure of kind k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

func validationFailure(msg string) error {
	return &Failure{Kind: KindValidation, Message: msg}
}

func importFailure(msg string, err error) error {
	return &Failure{Kind: KindImport, Message: msg, Err: err}
}

func exportFailure(msg string, err error) error {
	return &Failure{Kind: KindExport, Message: msg, Err: err}
}
