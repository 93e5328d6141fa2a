// Package reqid carries a per-request identifier through context so events
// from one view render can be correlated.
package reqid

import (
	"context"
	"math/rand/v2"
	"strconv"
)

// Header is the HTTP header an inbound id is read from and echoed to.
const Header = "X-Request-Id"

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with a new random request ID stored.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, string) {
	id := strconv.FormatUint(rand.Uint64(), 16)
	return context.WithValue(parent, key{}, id), id
}

// WithID stores a caller-supplied id, e.g. one forwarded by a proxy. An
// empty id falls back to a generated one.
func WithID(parent context.Context, id string) (context.Context, string) {
	if id == "" {
		return NewContext(parent)
	}
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
