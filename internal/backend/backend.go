// Package backend defines the query-execution boundary between the tree
// executor and a structured-data store.
package backend

import (
	"context"

	"github.com/hanpama/graphview/internal/result"
)

// Backend executes rendered queries.
// Implementations MUST be safe for concurrent use: one Backend is shared by
// every in-flight request.
//
// Provided implementations:
// - internal/backend/sparqlhttp.Client: remote SPARQL 1.1 protocol endpoint
// - internal/backend/sqlstore.Store: local SQLite dataset
// - MockBackend: scripted responses for tests
type Backend interface {
	// Select runs a tabular query and returns its bindings.
	Select(ctx context.Context, query string, opts QueryOptions) (*result.ResultSet, error)
	// Ask runs a boolean query.
	Ask(ctx context.Context, query string, opts QueryOptions) (bool, error)
	// Construct runs a graph query and returns its triples.
	Construct(ctx context.Context, query string, opts QueryOptions) ([]result.Triple, error)
	Close() error
}

// QueryOptions are per-call switches.
type QueryOptions struct {
	// Reasoning selects the inference-enabled variant of the store.
	Reasoning bool
}
