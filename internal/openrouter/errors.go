package openrouter

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the completion endpoint.
type APIError struct {
	StatusCode int
	// Message is the body's error.message, if it had one.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the endpoint.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// errorBody is the error envelope OpenAI-compatible endpoints return.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code,omitempty"`
	} `json:"error"`
}
