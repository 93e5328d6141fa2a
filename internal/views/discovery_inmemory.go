package views

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryView is a view definition held in memory.
type InMemoryView struct {
	Name      string
	Queries   map[string]string
	Responses map[string]string
}

// InMemoryDiscovery is a Discovery for tests and library embedding.
type InMemoryDiscovery struct {
	mu       sync.RWMutex
	prefixes string
	views    map[string]InMemoryView
}

var _ Discovery = (*InMemoryDiscovery)(nil)

// NewInMemoryDiscovery creates a new InMemoryDiscovery instance
func NewInMemoryDiscovery(prefixes string, views ...InMemoryView) *InMemoryDiscovery {
	d := &InMemoryDiscovery{prefixes: prefixes, views: make(map[string]InMemoryView, len(views))}
	for _, v := range views {
		d.views[v.Name] = v
	}
	return d
}

// Put adds or replaces a view.
func (d *InMemoryDiscovery) Put(v InMemoryView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views[v.Name] = v
}

func (d *InMemoryDiscovery) SetPrefixes(p string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prefixes = p
}

func (d *InMemoryDiscovery) ListViews(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.views))
	for n := range d.views {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (d *InMemoryDiscovery) ReadView(ctx context.Context, name string) (*ViewSource, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrViewNotFound, name)
	}
	return &ViewSource{Name: v.Name, Queries: copyMap(v.Queries), Responses: copyMap(v.Responses)}, nil
}

func (d *InMemoryDiscovery) ReadPrefixes(ctx context.Context) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.prefixes, nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
