package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/hanpama/graphview/internal/result"
)

// CallRecord captures a single query for assertions.
type CallRecord struct {
	// Form is "select", "ask" or "construct".
	Form      string
	Query     string
	Reasoning bool
}

// MockBackend implements Backend with a responder function while recording
// every call for inspection.
type MockBackend struct {
	mu      sync.Mutex
	respond func(query string) (*result.ResultSet, error)
	calls   []CallRecord
	closed  bool
}

var _ Backend = (*MockBackend)(nil)

// NewMockBackend creates a MockBackend whose Select answers with respond.
// A nil respond answers every query with an empty set.
func NewMockBackend(respond func(query string) (*result.ResultSet, error)) *MockBackend {
	if respond == nil {
		respond = func(string) (*result.ResultSet, error) { return result.Empty(), nil }
	}
	return &MockBackend{respond: respond}
}

// NewMockBackendWithResponses answers queries in call order. Calls past the
// end of responses fail.
func NewMockBackendWithResponses(responses ...*result.ResultSet) *MockBackend {
	var idx int
	return NewMockBackend(func(string) (*result.ResultSet, error) {
		if idx >= len(responses) {
			return nil, fmt.Errorf("mock: no response for call %d", idx)
		}
		rs := responses[idx]
		idx++
		return rs, nil
	})
}

func (m *MockBackend) record(form, query string, opts QueryOptions) error {
	m.calls = append(m.calls, CallRecord{Form: form, Query: query, Reasoning: opts.Reasoning})
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *MockBackend) Select(ctx context.Context, query string, opts QueryOptions) (*result.ResultSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("select", query, opts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.respond(query)
}

// Ask reports whether Select would return any row.
func (m *MockBackend) Ask(ctx context.Context, query string, opts QueryOptions) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ask", query, opts); err != nil {
		return false, err
	}
	rs, err := m.respond(query)
	if err != nil {
		return false, err
	}
	return rs.Len() > 0, nil
}

// Construct reads the s, p, o columns of the Select answer as triples.
func (m *MockBackend) Construct(ctx context.Context, query string, opts QueryOptions) ([]result.Triple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("construct", query, opts); err != nil {
		return nil, err
	}
	rs, err := m.respond(query)
	if err != nil {
		return nil, err
	}
	out := make([]result.Triple, 0, rs.Len())
	if rs == nil {
		return out, nil
	}
	for _, r := range rs.Rows {
		out = append(out, result.Triple{Subject: r.Get("s"), Predicate: r.Get("p"), Object: r.Get("o")})
	}
	return out, nil
}

func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns a snapshot of recorded calls.
func (m *MockBackend) Calls() []CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallRecord, len(m.calls))
	copy(out, m.calls)
	return out
}

// Queries returns the text of every recorded call in order.
func (m *MockBackend) Queries() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Query
	}
	return out
}
