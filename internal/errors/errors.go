package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Package errors defines the error taxonomy for calls against the workflow
// backend. Two kinds exist: AuthError (HTTP 401 - token missing, expired, or
// invalid) and RequestError (any other non-2xx status). 422 responses
// additionally carry a structured ValidationError parsed from the backend's
// `{detail: [{loc, msg, type}, ...]}` body.

// BodySnippetLimit bounds how much of a failed response body is retained
// for diagnostics.
const BodySnippetLimit = 1000

// AuthError signals that the backend rejected the bearer token (HTTP 401).
// Callers must not assume a value was returned alongside it.
type AuthError struct {
	Status int
}

// NewAuthError creates an AuthError with the canonical 401 status.
func NewAuthError() *AuthError {
	return &AuthError{Status: 401}
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized (HTTP %d)", e.Status)
}

// RequestError signals a non-2xx, non-401 backend response. Body holds at
// most BodySnippetLimit characters of the response for diagnostics.
type RequestError struct {
	Status     int
	Body       string
	Validation *ValidationError
}

func (e *RequestError) Error() string {
	if e.Validation != nil {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Validation.Message())
	}
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// FieldError is a single entry of a 422 validation response.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// Field renders the error location as a dotted path, e.g. "body.username".
func (f FieldError) Field() string {
	parts := make([]string, 0, len(f.Loc))
	for _, l := range f.Loc {
		parts = append(parts, fmt.Sprint(l))
	}
	return strings.Join(parts, ".")
}

// ValidationError is the structured body of a 422 response.
type ValidationError struct {
	Detail []FieldError `json:"detail"`
}

// Message renders every field error into a single human-readable line.
func (v *ValidationError) Message() string {
	if v == nil || len(v.Detail) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.Detail))
	for _, d := range v.Detail {
		if field := d.Field(); field != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", field, d.Msg))
		} else {
			parts = append(parts, d.Msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Snippet truncates a response body to BodySnippetLimit characters.
func Snippet(body string) string {
	if len(body) > BodySnippetLimit {
		return body[:BodySnippetLimit]
	}
	return body
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusOf returns the HTTP status carried by err, or 0 when err carries none.
func StatusOf(err error) int {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Status
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

// AsValidation extracts the structured validation detail from err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Validation != nil {
		return reqErr.Validation, true
	}
	return nil, false
}
