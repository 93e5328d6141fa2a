package events

import "time"

// QueryStart is emitted before a backend query is sent.
type QueryStart struct {
	// Backend names the implementation, e.g. "sparqlhttp".
	Backend string
	// Node is the query tree node the query was rendered for, when known.
	Node      string
	Target    string
	Query     string
	Reasoning bool
}

// QueryFinish is emitted after a backend query completes.
type QueryFinish struct {
	Backend   string
	Node      string
	Target    string
	Reasoning bool
	// Status is the HTTP status for remote backends, 0 otherwise.
	Status   int
	Rows     int
	Err      error
	Duration time.Duration
}
