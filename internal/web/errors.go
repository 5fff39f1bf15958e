package web

// errors.go turns handler errors into JSON responses.
//
// Every error is logged with its technical detail and the request ID, then
// mapped through exchange.MapError so the client sees the user-facing
// message, a suggested action and a support code. Exchange failures also
// carry their own detail.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/records/internal/exchange"
	"github.com/JonMunkholm/records/internal/logging"
	"github.com/JonMunkholm/records/internal/record"
	"github.com/JonMunkholm/records/internal/store"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Action  string       `json:"action,omitempty"`
	Code    string       `json:"code"`
	Detail  string       `json:"detail,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError is one problem found while validating a submitted record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var verrs record.ValidationErrors
	var tooBig *http.MaxBytesError

	switch {
	case exchange.IsKind(err, exchange.KindValidation):
		return http.StatusBadRequest
	case exchange.IsKind(err, exchange.KindImport):
		return http.StatusUnprocessableEntity
	case exchange.IsKind(err, exchange.KindExport):
		return http.StatusInternalServerError
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &verrs), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, exchange.ErrTooManyOperations):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped JSON error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := exchange.MapError(err)

	logger := logging.FromContext(r.Context())
	log := logger.Warn
	if status >= http.StatusInternalServerError {
		log = logger.Error
	}
	log("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	body := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}

	var failure *exchange.Failure
	if errors.As(err, &failure) {
		body.Detail = failure.Detail()
	}

	var verrs record.ValidationErrors
	if errors.As(err, &verrs) {
		for _, v := range verrs {
			body.Fields = append(body.Fields, FieldError{Field: v.Field, Message: v.Message})
		}
	}

	writeJSON(w, status, body)
}
