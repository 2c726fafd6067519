package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is the sentinel for missing documents.
var ErrNotFound = errors.New("not found")

// AppError is an error with an HTTP status and a message safe to show to users.
type AppError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func BadRequest(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "bad_request", Message: msg}
}

func NotFound(msg string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: "not_found", Message: msg, Err: ErrNotFound}
}

func Conflict(msg string) *AppError {
	return &AppError{Status: http.StatusConflict, Code: "conflict", Message: msg}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: msg}
}

func Internal(msg string, err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: "internal", Message: msg, Err: err}
}

// Validation reports field-level schema failures.
func Validation(fields map[string]string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "validation", Message: "validation failed", Fields: fields}
}
