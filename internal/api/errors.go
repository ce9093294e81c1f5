package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is wrapped by backends that have no HTTP status to report,
// such as the local replica.
var ErrNotFound = errors.New("not found")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api request failed with status %s", e.Status)
	}
	return fmt.Sprintf("api request failed with status %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether err carries a 404 response or wraps ErrNotFound.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsClientError reports whether err carries a 4xx response. Such failures are
// not worth revalidating against.
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}
