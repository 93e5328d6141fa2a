package sparqlhttp

import "errors"

var (
	// ErrNoEndpoints indicates the provider returned no endpoints for a role.
	ErrNoEndpoints = errors.New("sparqlhttp: no endpoints available")
	// ErrUnexpectedResponse is a response body that is not a results document.
	ErrUnexpectedResponse = errors.New("sparqlhttp: unexpected response")
)
