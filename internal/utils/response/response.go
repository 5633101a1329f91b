// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler of the students store sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for error cases.
//
// Success responses return the record (or list of records) itself.
// Error responses always look like:
//
//	{ "status": "error", "error": "field Name is required" }
//
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
// Example output:
//
//	{ "status": "error", "error": "field Name is required, field Marks must be at most 100" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s characters", e.Field(), e.Param()))
		case "gte":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s", e.Field(), e.Param()))
		case "lte":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at most %s", e.Field(), e.Param()))
		case "oneof":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be one of [%s]", e.Field(), e.Param()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
