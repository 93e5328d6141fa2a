// Package execctx holds the per-request execution context that every query
// and response template renders against.
//
// A context is an ordered map from unique keys to tagged Values. Nested query
// executions extend it with With, which layers one binding over a shared
// parent instead of copying or mutating it, so sibling rows never observe
// each other's bindings.
package execctx

import (
	"fmt"
	"net/url"

	"github.com/hanpama/graphview/internal/result"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindStrings
	KindRow
	KindRows
	KindFact
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStrings:
		return "strings"
	case KindRow:
		return "row"
	case KindRows:
		return "rows"
	case KindFact:
		return "fact"
	default:
		return "invalid"
	}
}

// Value is a tagged union of the things a context can hold.
type Value struct {
	kind Kind
	str  string
	strs []string
	row  *result.Row
	rows *result.ResultSet
	fact any
}

func String(s string) Value     { return Value{kind: KindString, str: s} }
func Strings(s ...string) Value { return Value{kind: KindStrings, strs: append([]string(nil), s...)} }
func Row(r *result.Row) Value   { return Value{kind: KindRow, row: r} }
func Rows(rs *result.ResultSet) Value {
	if rs == nil {
		rs = result.Empty()
	}
	return Value{kind: KindRows, rows: rs}
}

// Fact wraps an opaque host-supplied value such as the current principal.
func Fact(v any) Value { return Value{kind: KindFact, fact: v} }

func (v Value) Kind() Kind { return v.kind }

// Any returns the template-facing form of v.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindStrings:
		return v.strs
	case KindRow:
		return v.row
	case KindRows:
		return v.rows
	case KindFact:
		return v.fact
	default:
		return nil
	}
}

// Options are immutable execution switches chosen by the host per request.
type Options struct {
	// Debug renders template failures into the response body.
	Debug bool
	// Reasoning runs queries against the inference-enabled backend path.
	Reasoning bool
}

// Request describes the inbound request for link building.
type Request struct {
	BaseURL string
	View    string
	Params  url.Values
	// ParamOrder preserves the order parameter names appeared in.
	ParamOrder []string
}

// ExecutionContext is the ordered key/value scope of one request.
type ExecutionContext struct {
	parent  *ExecutionContext
	keys    []string
	values  map[string]Value
	request *Request
	opts    Options
}

// New creates a root context.
func New(req *Request, opts Options) *ExecutionContext {
	if req == nil {
		req = &Request{}
	}
	return &ExecutionContext{values: make(map[string]Value), request: req, opts: opts}
}

func (c *ExecutionContext) Request() *Request { return c.request }
func (c *ExecutionContext) Options() Options  { return c.opts }

// Set binds key to v in this scope, keeping the key's position when it is
// already present here.
func (c *ExecutionContext) Set(key string, v Value) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = v
}

// With returns a child scope with one additional binding. The receiver is not
// modified.
func (c *ExecutionContext) With(key string, v Value) *ExecutionContext {
	child := &ExecutionContext{parent: c, values: make(map[string]Value, 1), request: c.request, opts: c.opts}
	child.Set(key, v)
	return child
}

// Lookup finds key in this scope or its ancestors.
func (c *ExecutionContext) Lookup(key string) (Value, bool) {
	for s := c; s != nil; s = s.parent {
		if v, ok := s.values[key]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Has reports whether key is bound.
func (c *ExecutionContext) Has(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Keys returns all visible keys, outermost scope first, each once.
func (c *ExecutionContext) Keys() []string {
	var chain []*ExecutionContext
	for s := c; s != nil; s = s.parent {
		chain = append(chain, s)
	}
	seen := make(map[string]bool)
	var out []string
	for i := len(chain) - 1; i >= 0; i-- {
		for _, k := range chain[i].keys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

// KindError reports a typed accessor applied to a value of another kind.
type KindError struct {
	Key  string
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("context key %q holds %s, not %s", e.Key, e.Got, e.Want)
}

func (c *ExecutionContext) typed(key string, want Kind) (Value, bool, error) {
	v, ok := c.Lookup(key)
	if !ok {
		return Value{}, false, nil
	}
	if v.kind != want {
		return Value{}, true, &KindError{Key: key, Want: want, Got: v.kind}
	}
	return v, true, nil
}

// String returns a single string. A string list yields its first element.
func (c *ExecutionContext) String(key string) (string, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return "", false
	}
	switch v.kind {
	case KindString:
		return v.str, true
	case KindStrings:
		if len(v.strs) == 0 {
			return "", false
		}
		return v.strs[0], true
	}
	return "", false
}

// Strings returns all values of a string or string-list key.
func (c *ExecutionContext) Strings(key string) []string {
	v, ok := c.Lookup(key)
	if !ok {
		return nil
	}
	switch v.kind {
	case KindString:
		return []string{v.str}
	case KindStrings:
		return append([]string(nil), v.strs...)
	}
	return nil
}

func (c *ExecutionContext) Row(key string) (*result.Row, error) {
	v, ok, err := c.typed(key, KindRow)
	if err != nil || !ok {
		return nil, err
	}
	return v.row, nil
}

func (c *ExecutionContext) Rows(key string) (*result.ResultSet, error) {
	v, ok, err := c.typed(key, KindRows)
	if err != nil || !ok {
		return nil, err
	}
	return v.rows, nil
}

func (c *ExecutionContext) Fact(key string) (any, error) {
	v, ok, err := c.typed(key, KindFact)
	if err != nil || !ok {
		return nil, err
	}
	return v.fact, nil
}

// Data projects the visible bindings into a map for template execution.
func (c *ExecutionContext) Data() map[string]any {
	keys := c.Keys()
	m := make(map[string]any, len(keys))
	for _, k := range keys {
		v, _ := c.Lookup(k)
		m[k] = v.Any()
	}
	return m
}
