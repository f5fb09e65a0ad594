package mailapi

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success response from the mail backend. Message carries
// the backend's own error text verbatim when it supplied one, so it can be
// surfaced to the operator unchanged.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mail backend error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("mail backend error (status %d)", e.StatusCode)
}

// UserMessage returns the backend-supplied message, or a generic fallback
// when the backend gave none.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "the mail service returned an error, please try again"
}

// IsConflict reports whether err is a backend conflict (duplicate) response.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsNotFound reports whether err is a backend not-found response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
