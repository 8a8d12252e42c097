package http

import (
	"fmt"
	"net/http"
)

// AppError is an error that knows which status and code to answer with.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// Wrap attaches the underlying cause. The cause is logged, never sent.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// ErrorBody is the failure shape analysis clients understand:
// {"error": "...", "code": "..."}.
type ErrorBody struct {
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

func NotFound(format string, args ...any) *AppError {
	return &AppError{Code: "ERR_NOT_FOUND", Message: fmt.Sprintf(format, args...), Status: http.StatusNotFound}
}

func Unavailable(msg string) *AppError {
	return &AppError{Code: "ERR_UNAVAILABLE", Message: msg, Status: http.StatusServiceUnavailable}
}

var errInternal = &AppError{Code: "ERR_INTERNAL", Message: "Something went wrong", Status: http.StatusInternalServerError}
