// Package linkstate rebuilds request URLs with parameters added, replaced or
// removed, e.g. for "next page" or "drill into this resource" links.
package linkstate

import (
	"net/url"
	"sort"
	"strings"
)

// LinkBuilder is an ordered multi-valued parameter map bound to a base URL.
// Parameter names serialise in first-insertion order and values in the order
// they were added, so the same sequence of calls always yields the same URL.
//
// Builders are cheap values for templates: every mutator returns the builder
// so calls chain, e.g. {{ (link).Put "offset" "20" }}.
type LinkBuilder struct {
	base   string
	names  []string
	values map[string][]string
}

// New creates a builder seeded with params. Because url.Values has no key
// order, seeded names are ordered alphabetically; order is the caller's when
// keys is given.
func New(base string, params url.Values, keys ...string) *LinkBuilder {
	b := &LinkBuilder{base: base, values: make(map[string][]string)}
	if len(keys) == 0 {
		keys = sortedKeys(params)
	}
	for _, k := range keys {
		for _, v := range params[k] {
			b.Add(k, v)
		}
	}
	return b
}

// Clone returns an independent copy.
func (b *LinkBuilder) Clone() *LinkBuilder {
	c := &LinkBuilder{base: b.base, names: append([]string(nil), b.names...), values: make(map[string][]string, len(b.values))}
	for k, v := range b.values {
		c.values[k] = append([]string(nil), v...)
	}
	return c
}

// Add appends value to name.
func (b *LinkBuilder) Add(name, value string) *LinkBuilder {
	if _, ok := b.values[name]; !ok {
		b.names = append(b.names, name)
	}
	b.values[name] = append(b.values[name], value)
	return b
}

// AddUnique appends value to name unless it is already present.
func (b *LinkBuilder) AddUnique(name, value string) *LinkBuilder {
	for _, v := range b.values[name] {
		if v == value {
			return b
		}
	}
	return b.Add(name, value)
}

// Put replaces all values of name.
func (b *LinkBuilder) Put(name string, values ...string) *LinkBuilder {
	if _, ok := b.values[name]; !ok {
		b.names = append(b.names, name)
	}
	b.values[name] = append([]string(nil), values...)
	if len(values) == 0 {
		b.drop(name)
	}
	return b
}

// Remove drops name entirely, or only the given values of name. A name left
// without values is dropped.
func (b *LinkBuilder) Remove(name string, values ...string) *LinkBuilder {
	if len(values) == 0 {
		b.drop(name)
		return b
	}
	kept := b.values[name][:0:0]
	for _, v := range b.values[name] {
		if !contains(values, v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		b.drop(name)
		return b
	}
	b.values[name] = kept
	return b
}

// Get returns the values of name.
func (b *LinkBuilder) Get(name string) []string {
	return append([]string(nil), b.values[name]...)
}

// Names returns the parameter names in serialisation order.
func (b *LinkBuilder) Names() []string { return append([]string(nil), b.names...) }

// Query returns the encoded query string without the leading '?'.
func (b *LinkBuilder) Query() string {
	var sb strings.Builder
	for _, n := range b.names {
		for _, v := range b.values[n] {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(escape(n))
			sb.WriteByte('=')
			sb.WriteString(escape(v))
		}
	}
	return sb.String()
}

// String serialises the builder to a URL.
func (b *LinkBuilder) String() string {
	q := b.Query()
	if q == "" {
		return b.base
	}
	sep := "?"
	if strings.Contains(b.base, "?") {
		sep = "&"
	}
	return b.base + sep + q
}

func (b *LinkBuilder) drop(name string) {
	delete(b.values, name)
	for i, n := range b.names {
		if n == name {
			b.names = append(b.names[:i], b.names[i+1:]...)
			return
		}
	}
}

// escape percent-encodes spaces as %20 rather than '+', which both
// URLSearchParams and decodeURIComponent read back unchanged.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(v url.Values) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
