package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when a view request is received, before the path is
// resolved to a view.
type HTTPStart struct {
	Request   *http.Request
	RequestID string
}

// HTTPFinish is emitted after the response is written.
type HTTPFinish struct {
	Request   *http.Request
	RequestID string
	Status    int
	// Bytes is the body size written, 0 for HEAD and errors without body.
	Bytes    int
	Duration time.Duration
}
