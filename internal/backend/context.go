package backend

import "context"

type nodeKey struct{}

// WithNode annotates ctx with the query tree node a query was rendered for,
// so backends can report it in their events.
func WithNode(ctx context.Context, node string) context.Context {
	return context.WithValue(ctx, nodeKey{}, node)
}

// NodeFromContext returns the node set by WithNode, or "".
func NodeFromContext(ctx context.Context) string {
	s, _ := ctx.Value(nodeKey{}).(string)
	return s
}
