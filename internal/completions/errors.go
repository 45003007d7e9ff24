package completions

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingEndpoint is returned when no chat completions URL is configured.
	ErrMissingEndpoint = errors.New("completions: endpoint is required")

	// ErrMissingModel is returned when no model identifier is configured.
	ErrMissingModel = errors.New("completions: model is required")
)

// APIError is a non-2xx answer from the completions server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Body)
}
