package api

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError is a failed round trip: the connection failed, timed out,
// or the server answered with a non-2xx status
type TransportError struct {
	Op         string
	URL        string
	StatusCode int // zero when no response arrived
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SchemaError means the response body did not have the expected shape
type SchemaError struct {
	Op    string
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: unexpected response: %s: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: unexpected response: %v", e.Op, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

var errMissing = errors.New("missing required field")

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr) && terr.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a 409 from the server
func IsConflict(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr) && terr.StatusCode == http.StatusConflict
}
