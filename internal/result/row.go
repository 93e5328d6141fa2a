package result

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Row is one solution of a query: variable bindings in projection order, plus
// the nested result sets of child queries executed with this row bound.
type Row struct {
	vars     []string
	values   map[string]Term
	children map[string]*ResultSet
}

func NewRow() *Row {
	return &Row{values: make(map[string]Term)}
}

// Bind sets name to t, keeping the position of an existing variable.
func (r *Row) Bind(name string, t Term) *Row {
	if _, ok := r.values[name]; !ok {
		r.vars = append(r.vars, name)
	}
	r.values[name] = t
	return r
}

// CloneBindings returns a new row with r's bindings and no children.
func (r *Row) CloneBindings() *Row {
	out := NewRow()
	if r == nil {
		return out
	}
	for _, v := range r.vars {
		out.Bind(v, r.values[v])
	}
	return out
}

// Vars returns the bound variable names in binding order.
func (r *Row) Vars() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.vars...)
}

// Lookup returns the term bound to name.
func (r *Row) Lookup(name string) (Term, bool) {
	if r == nil {
		return Term{}, false
	}
	t, ok := r.values[name]
	return t, ok
}

// Get returns the term bound to name, or the zero Term.
func (r *Row) Get(name string) Term {
	t, _ := r.Lookup(name)
	return t
}

// Value returns the lexical value bound to name, or "".
func (r *Row) Value(name string) string { return r.Get(name).Value }

// Has reports whether name is bound.
func (r *Row) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Attach records the result of child node name executed with r bound.
// A child is attached at most once per row.
func (r *Row) Attach(name string, rs *ResultSet) error {
	if r.children == nil {
		r.children = make(map[string]*ResultSet)
	}
	if _, dup := r.children[name]; dup {
		return fmt.Errorf("result %q already attached to row", name)
	}
	if rs == nil {
		rs = Empty()
	}
	r.children[name] = rs
	return nil
}

// Child returns the nested result set attached under name. A missing child
// yields an empty set so templates can range over it unconditionally.
func (r *Row) Child(name string) *ResultSet {
	if r == nil {
		return Empty()
	}
	if rs, ok := r.children[name]; ok {
		return rs
	}
	return Empty()
}

// HasChild reports whether a child result was attached under name.
func (r *Row) HasChild(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.children[name]
	return ok
}

// ChildNames returns the attached child names, sorted.
func (r *Row) ChildNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.children))
	for n := range r.children {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the row as an object of lexical values with nested
// child results as arrays.
func (r *Row) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.vars)+len(r.children))
	for _, v := range r.vars {
		m[v] = r.values[v].Value
	}
	for n, rs := range r.children {
		m[n] = rs
	}
	return json.Marshal(m)
}

// ResultSet is the ordered rows produced by one query execution.
type ResultSet struct {
	Vars []string
	Rows []*Row
}

func NewResultSet(vars []string, rows ...*Row) *ResultSet {
	return &ResultSet{Vars: vars, Rows: rows}
}

// Empty returns a result set with no rows.
func Empty() *ResultSet { return &ResultSet{} }

func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// First returns the first row or nil.
func (rs *ResultSet) First() *Row {
	if rs.Len() == 0 {
		return nil
	}
	return rs.Rows[0]
}

// Column returns the terms bound to name across all rows.
func (rs *ResultSet) Column(name string) []Term {
	if rs == nil {
		return nil
	}
	out := make([]Term, 0, len(rs.Rows))
	for _, r := range rs.Rows {
		out = append(out, r.Get(name))
	}
	return out
}

func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	if rs == nil || rs.Rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(rs.Rows)
}

// Triple is a subject/predicate/object statement. Graph is zero for the
// default graph.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// FromTriples turns statements into a result set with variables s, p, o so
// construct results can feed the pivot helpers.
func FromTriples(ts []Triple) *ResultSet {
	rs := &ResultSet{Vars: []string{"s", "p", "o"}}
	for _, t := range ts {
		rs.Rows = append(rs.Rows, NewRow().Bind("s", t.Subject).Bind("p", t.Predicate).Bind("o", t.Object))
	}
	return rs
}
