package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is wrapped by every 401 response. The stored token has
	// already been cleared when a caller sees it.
	ErrUnauthorized = errors.New("unauthorized")
	ErrTimeout      = errors.New("request timed out")
	ErrNetwork      = errors.New("network error")
)

// APIError is a non-2xx response from the marketplace API.
type APIError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(status int, message string) *APIError {
	e := &APIError{
		Code:    codeForStatus(status),
		Message: message,
		Status:  status,
	}
	if status == http.StatusUnauthorized {
		e.Err = ErrUnauthorized
	}
	return e
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return fmt.Sprintf("HTTP_%d", status)
}

// Message returns the server-provided message carried by err, or fallback
// when the failure has none (timeouts, transport errors, bare statuses).
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
