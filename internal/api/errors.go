package api

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a failed backend call. Message carries the backend-supplied
// error text when the response body had one.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (http %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: request failed (http %d)", e.StatusCode)
}

// IsSessionExpired reports whether err means the stored token is no longer
// accepted and the user has to log in again.
func IsSessionExpired(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == 401 {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "token")
}
