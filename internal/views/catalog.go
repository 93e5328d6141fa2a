// Package views resolves view names to compiled views and negotiates their
// response representation.
//
// A view is a directory of query templates (the query tree) and response
// templates (one per media type). The Catalog compiles views on first use and
// keeps them in a bounded cache until invalidated.
package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultView      = "index"
	DefaultCacheSize = 128
)

// Options configures a Catalog.
type Options struct {
	DefaultView string
	CacheSize   int
}

type Option func(*Options)

func WithDefaultView(name string) Option { return func(o *Options) { o.DefaultView = name } }
func WithCacheSize(n int) Option         { return func(o *Options) { o.CacheSize = n } }

// Catalog compiles views from a Discovery and caches them. Cached views are
// immutable; invalidation only drops the cache entry, so requests already
// holding a view finish with it.
type Catalog struct {
	disc  Discovery
	opts  Options
	cache *lru.Cache[string, *View]

	// mu serialises compilation so concurrent misses compile once.
	mu sync.Mutex

	// genMu guards gen. Invalidation bumps gen; a compile that started
	// before the bump returns its view but does not cache it.
	genMu sync.Mutex
	gen   uint64
}

func NewCatalog(disc Discovery, opts ...Option) (*Catalog, error) {
	o := Options{DefaultView: DefaultView, CacheSize: DefaultCacheSize}
	for _, f := range opts {
		f(&o)
	}
	if o.CacheSize <= 0 {
		o.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *View](o.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create view cache: %w", err)
	}
	return &Catalog{disc: disc, opts: o, cache: cache}, nil
}

// DefaultView is the view an empty name resolves to.
func (c *Catalog) DefaultView() string { return c.opts.DefaultView }

// Resolve returns the compiled view. An empty name resolves to the default
// view. Unknown names yield ErrViewNotFound.
func (c *Catalog) Resolve(ctx context.Context, name string) (*View, error) {
	if name == "" {
		name = c.opts.DefaultView
	}
	if v, ok := c.cache.Get(name); ok {
		return v, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache.Get(name); ok {
		return v, nil
	}
	gen := c.generation()
	v, err := c.compile(ctx, name)
	if err != nil {
		return nil, err
	}
	c.genMu.Lock()
	if c.gen == gen {
		c.cache.Add(name, v)
	}
	c.genMu.Unlock()
	return v, nil
}

func (c *Catalog) generation() uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.gen
}

func (c *Catalog) compile(ctx context.Context, name string) (*View, error) {
	src, err := c.disc.ReadView(ctx, name)
	if err != nil {
		if errors.Is(err, ErrViewNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read view %q: %w", name, err)
	}
	prefixes, err := c.disc.ReadPrefixes(ctx)
	if err != nil {
		return nil, err
	}
	return Compile(src, prefixes)
}

// List returns the names of all discoverable views.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	return c.disc.ListViews(ctx)
}

// Cached reports whether name is currently compiled.
func (c *Catalog) Cached(name string) bool { return c.cache.Contains(name) }

// Invalidate drops one view so the next Resolve recompiles it. A compile
// already in flight is not cached.
func (c *Catalog) Invalidate(name string) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	c.gen++
	c.cache.Remove(name)
}

// InvalidateAll drops every view, e.g. after the shared prefixes changed.
func (c *Catalog) InvalidateAll() {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	c.gen++
	c.cache.Purge()
}

// Preload compiles every discoverable view, reporting the first failure.
func (c *Catalog) Preload(ctx context.Context) error {
	names, err := c.List(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if _, err := c.Resolve(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
