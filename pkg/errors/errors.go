package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IncompleteDataError reports that a section's grade data has not reached the
// completion required before promotion can be classified.
type IncompleteDataError struct {
	Completion float64
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("grade data incomplete (%.1f%% complete)", e.Completion)
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Codes used across the portal core.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeNetwork        = "NETWORK_ERROR"
	CodeServer         = "SERVER_ERROR"
	CodeIncompleteData = "INCOMPLETE_DATA"
	CodeInvalidDate    = "INVALID_DATE"
	CodeUnauthorized   = "UNAUTHORIZED"
)

// Predefined errors for common scenarios.
var (
	ErrValidation     = New(CodeValidation, http.StatusBadRequest, "validation failed")
	ErrNetwork        = New(CodeNetwork, http.StatusGatewayTimeout, "network error")
	ErrServer         = New(CodeServer, http.StatusBadGateway, "remote server error")
	ErrIncompleteData = New(CodeIncompleteData, http.StatusForbidden, "grade data incomplete")
	ErrInvalidDate    = New(CodeInvalidDate, http.StatusBadRequest, "invalid date")
	ErrUnauthorized   = New(CodeUnauthorized, http.StatusUnauthorized, "unauthorized")
	ErrNotFound       = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrInternal       = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrCacheMiss is returned by cache repositories when a key is absent.
	ErrCacheMiss = errors.New("cache miss")
	// ErrKeyNotFound is returned by key-value stores when a key is absent.
	ErrKeyNotFound = errors.New("key not found")
	// ErrStale marks a fetch result that arrived after its selection was replaced.
	ErrStale = errors.New("stale response discarded")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IncompleteData builds the error surfaced when promotion data is gated.
func IncompleteData(completion float64) *Error {
	e := Wrap(&IncompleteDataError{Completion: completion}, CodeIncompleteData, ErrIncompleteData.Status,
		fmt.Sprintf("grade data is %.1f%% complete", completion))
	e.Details = map[string]interface{}{"completion_percentage": completion}
	return e
}

// CompletionOf extracts the completion percentage carried by an incomplete data error.
func CompletionOf(err error) (float64, bool) {
	var incomplete *IncompleteDataError
	if errors.As(err, &incomplete) {
		return incomplete.Completion, true
	}
	return 0, false
}
