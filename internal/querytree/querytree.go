// Package querytree turns the query template names of a view into a tree.
//
// Names use '_' as the nesting delimiter: "a_b" is a child of "a", and
// "a_b_c" a child of "a_b". A prefix without its own template becomes a
// pass-through node so its descendants still have a parent to hang off.
package querytree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hanpama/graphview/internal/tmpl"
)

// Delimiter separates name segments.
const Delimiter = "_"

// RootID is the index of the synthetic root node.
const RootID = 0

// Node is one query in the tree. Nodes are addressed by index into the tree's
// arena; Parent is -1 for the root.
type Node struct {
	ID      int
	Name    string
	Segment string
	Depth   int
	// Template is nil for pass-through nodes.
	Template *tmpl.Template
	Parent   int
	Children []int
}

// PassThrough reports whether the node has no template of its own.
func (n *Node) PassThrough() bool { return n.Template == nil }

// Tree is an immutable arena of nodes with node 0 as the root.
type Tree struct {
	nodes  []Node
	byName map[string]int
}

// BuildError reports an unusable template name.
type BuildError struct {
	Name   string
	Reason string
}

func (e *BuildError) Error() string { return fmt.Sprintf("query %q: %s", e.Name, e.Reason) }

// Normalize strips surrounding space and a ".query" suffix from name.
func Normalize(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), ".query")
}

// Build creates the tree for the given templates keyed by name.
func Build(templates map[string]*tmpl.Template) (*Tree, error) {
	norm := make(map[string]*tmpl.Template, len(templates))
	names := make([]string, 0, len(templates))
	for raw, t := range templates {
		name := Normalize(raw)
		if err := validate(name); err != nil {
			return nil, err
		}
		if _, dup := norm[name]; dup {
			return nil, &BuildError{Name: name, Reason: "duplicate name"}
		}
		norm[name] = t
		names = append(names, name)
	}
	sort.Strings(names)

	tr := &Tree{
		nodes:  []Node{{ID: RootID, Parent: -1}},
		byName: make(map[string]int, len(names)),
	}
	for _, name := range names {
		segs := strings.Split(name, Delimiter)
		parent := RootID
		for i := range segs {
			prefix := strings.Join(segs[:i+1], Delimiter)
			id, ok := tr.byName[prefix]
			if !ok {
				id = tr.add(prefix, segs[i], parent)
			}
			parent = id
		}
		tr.nodes[parent].Template = norm[name]
	}
	for i := range tr.nodes {
		ch := tr.nodes[i].Children
		sort.Slice(ch, func(a, b int) bool { return tr.nodes[ch[a]].Name < tr.nodes[ch[b]].Name })
	}
	return tr, nil
}

func validate(name string) error {
	if name == "" {
		return &BuildError{Name: name, Reason: "empty name"}
	}
	for _, seg := range strings.Split(name, Delimiter) {
		if seg == "" {
			return &BuildError{Name: name, Reason: "empty segment"}
		}
	}
	return nil
}

func (t *Tree) add(name, segment string, parent int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, Node{
		ID:      id,
		Name:    name,
		Segment: segment,
		Depth:   t.nodes[parent].Depth + 1,
		Parent:  parent,
	})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	t.byName[name] = id
	return id
}

func (t *Tree) Root() *Node       { return &t.nodes[RootID] }
func (t *Tree) Node(id int) *Node { return &t.nodes[id] }

// Len counts nodes excluding the root.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Lookup finds a node by its full name.
func (t *Tree) Lookup(name string) (*Node, bool) {
	id, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.nodes[id], true
}

// Children returns the children of id in name order.
func (t *Tree) Children(id int) []*Node {
	ch := t.nodes[id].Children
	out := make([]*Node, len(ch))
	for i, c := range ch {
		out[i] = &t.nodes[c]
	}
	return out
}

// ParentName returns the name of n's parent, "" for children of the root.
func (t *Tree) ParentName(n *Node) string {
	if n.Parent <= RootID {
		return ""
	}
	return t.nodes[n.Parent].Name
}

// Walk visits every non-root node breadth-first, siblings in name order.
// A non-nil error from fn stops the walk.
func (t *Tree) Walk(fn func(*Node) error) error {
	queue := append([]int(nil), t.nodes[RootID].Children...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if err := fn(&t.nodes[id]); err != nil {
			return err
		}
		queue = append(queue, t.nodes[id].Children...)
	}
	return nil
}

// String renders an indented outline, depth first.
func (t *Tree) String() string {
	var b strings.Builder
	var visit func(id int)
	visit = func(id int) {
		n := &t.nodes[id]
		if id != RootID {
			b.WriteString(strings.Repeat("  ", n.Depth-1))
			b.WriteString(n.Name)
			if n.PassThrough() {
				b.WriteString(" (pass-through)")
			}
			b.WriteByte('\n')
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(RootID)
	return b.String()
}
