package backend

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by a backend after Close.
var ErrClosed = errors.New("backend: closed")

// QueryError is a query the backend could not execute: a transport failure,
// a non-success response, or a store error.
type QueryError struct {
	// Backend names the implementation, e.g. "sparqlhttp" or "sqlstore".
	Backend string
	Query   string
	// Status is the HTTP status for remote backends, 0 otherwise.
	Status int
	Err    error
}

func (e *QueryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: query failed with status %d: %v", e.Backend, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: query failed: %v", e.Backend, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsQueryError reports whether err carries a QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}
