package exchange

// messages.go maps technical errors to messages that can be shown to end
// users, each with a support code.
//
// Codes by category:
//
//	VAL001-VAL099   upload rejected before parsing
//	IMP001-IMP099   file could not be read
//	EXP001-EXP099   export could not be produced
//	REC001-REC099   record CRUD problems
//	DB001-DB099     database constraint and connectivity errors
//	REQ001-REQ099   busy, cancelled or timed out requests
//	AUTH001-AUTH099 missing or rejected credentials
//	RATE001         request throttling
//	ERR000          anything else; check the logs for the original error
//
// Patterns are matched case-insensitively against err.Error() and the first
// match wins, so specific patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage is user-facing error information.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code,omitempty"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Upload validation
	{"please select a file to upload", UserMessage{"No file was selected", "Choose a CSV or Excel file and try again", "VAL001"}},
	{"invalid file name", UserMessage{"The file name is not valid", "Use a file name with a .csv, .xlsx or .xls extension", "VAL002"}},
	{"please upload a csv file", UserMessage{"Only CSV files are accepted here", "Save the file as CSV and try again", "VAL003"}},
	{"please upload an excel file", UserMessage{"Only Excel files are accepted here", "Save the file as .xlsx and try again", "VAL004"}},
	{"file too large", UserMessage{"The file exceeds the maximum upload size", "Split the file into smaller files", "VAL005"}},
	{"request body too large", UserMessage{"The file exceeds the maximum upload size", "Split the file into smaller files", "VAL005"}},

	// Import
	{"empty file", UserMessage{"The uploaded file is empty", "Include a header row with at least the Name column", "IMP001"}},
	{"invalid csv", UserMessage{"The file is not a valid CSV document", "Check for unbalanced quotes and try again", "IMP002"}},
	{"invalid workbook", UserMessage{"The file is not a valid Excel workbook", "Save the file as .xlsx and try again", "IMP003"}},
	{"workbook has no sheets", UserMessage{"The workbook contains no sheets", "Add a sheet with a header row", "IMP004"}},

	// Records
	{"record not found", UserMessage{"The record does not exist", "Refresh the list and try again", "REC001"}},
	{"invalid record", UserMessage{"The record failed validation", "Correct the highlighted fields", "REC002"}},

	// Database
	{"duplicate key", UserMessage{"A record with this ID already exists", "Remove the ID column to create new records", "DB001"}},
	{"unique constraint", UserMessage{"A record with this ID already exists", "Remove the ID column to create new records", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB002"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB003"}},
	{"closed pool", UserMessage{"Database connection was interrupted", "Please try again", "DB003"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB004"}},
	{"database is locked", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB004"}},

	// Requests
	{"too many concurrent", UserMessage{"The system is busy with other imports and exports", "Please wait a moment and try again", "REQ001"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "REQ002"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "REQ003"}},
	{"timeout", UserMessage{"Request timed out", "Try a smaller file or try again later", "REQ003"}},
	{"bad request", UserMessage{"The request could not be understood", "Check the request body and parameters", "REQ004"}},

	// Auth
	{"missing credentials", UserMessage{"Authentication required", "Provide an API key or bearer token", "AUTH001"}},
	{"invalid credentials", UserMessage{"Invalid credentials", "Check your API key or token", "AUTH002"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// kindMessages are used when a Failure matches no specific pattern.
var kindMessages = map[Kind]UserMessage{
	KindValidation: {"The upload was rejected", "Check the file and try again", "VAL000"},
	KindImport:     {"The file could not be imported", "Check the file format and try again", "IMP000"},
	KindExport:     {"The export could not be produced", "Please try again or contact support", "EXP001"},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message. A nil error yields
// the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	// Sentinels first; their text may be wrapped in something misleading.
	switch {
	case errors.Is(err, ErrTooManyOperations):
		return lookup("too many concurrent")
	case errors.Is(err, context.Canceled):
		return lookup("context canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return lookup("context deadline exceeded")
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if kind, ok := KindOf(err); ok {
		return kindMessages[kind]
	}
	return defaultMessage
}

func lookup(pattern string) UserMessage {
	for _, ep := range errorPatterns {
		if ep.pattern == pattern {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
