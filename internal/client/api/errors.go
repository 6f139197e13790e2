package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the backend could not be reached at the transport
	// level. The CLI surfaces it as "cannot connect to auth server".
	ErrUnavailable = errors.New("cannot connect to auth server")
)

// BackendError is a non-2xx JSON response from the auth backend. Message is
// taken from the body's "error" or "message" field as-is; cleaning it up for
// display is the session service's concern.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}
