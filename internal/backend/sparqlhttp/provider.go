package sparqlhttp

import (
	"context"
	"sync"
)

// Endpoint roles.
const (
	RoleQuery     = "query"
	RoleReasoning = "reasoning"
)

// EndpointProvider provides the endpoint URLs serving a role ("query" or
// "reasoning"). Implementations may integrate with service discovery.
// Return at least one endpoint or an error.
// Implementations should be safe for concurrent use.

type EndpointProvider interface {
	Endpoints(ctx context.Context, role string) ([]string, error)
}

// StaticEndpoints is a simple provider backed by an in-memory map.
// Key is the role; value is list of endpoint URLs.

type StaticEndpoints struct {
	mu   sync.RWMutex
	data map[string][]string
}

func NewStaticEndpoints(m map[string][]string) *StaticEndpoints {
	cp := make(map[string][]string, len(m))
	for k, v := range m {
		vv := make([]string, len(v))
		copy(vv, v)
		cp[k] = vv
	}
	return &StaticEndpoints{data: cp}
}

func (s *StaticEndpoints) Endpoints(ctx context.Context, role string) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.data[role]
	if len(arr) == 0 {
		return nil, ErrNoEndpoints
	}
	out := make([]string, len(arr))
	copy(out, arr)
	return out, nil
}

// Set replaces the endpoints of a role.
func (s *StaticEndpoints) Set(role string, endpoints ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[role] = append([]string(nil), endpoints...)
}
