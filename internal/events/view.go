package events

import "time"

// ViewStart is emitted before a view is resolved and rendered.
type ViewStart struct {
	View   string
	Accept string
}

// ViewFinish is emitted after a view render completes or fails.
type ViewFinish struct {
	View string
	// MediaType is the negotiated representation, empty when negotiation failed.
	MediaType string
	// Queries is the number of backend queries the tree executed.
	Queries  int
	Err      error
	Duration time.Duration
}
