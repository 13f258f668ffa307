package provider

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingAPIKey is returned when a client has no API key.
	ErrMissingAPIKey = errors.New("provider: missing api key")

	// ErrEmptyPrompt is returned when the request text is blank.
	ErrEmptyPrompt = errors.New("provider: prompt is empty")

	// ErrNoResult is returned when a response carries no usable translation.
	ErrNoResult = errors.New("provider: no result")
)

// StatusError reports a non-2xx response from a provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider: status %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether err is worth another attempt. Client errors
// other than 408 and 429 are not; neither is a missing API key or blank
// prompt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrEmptyPrompt) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusRequestTimeout,
			se.StatusCode == http.StatusTooManyRequests:
			return true
		case se.StatusCode >= 400 && se.StatusCode < 500:
			return false
		}
	}
	return true
}
