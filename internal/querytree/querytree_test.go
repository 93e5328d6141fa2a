package querytree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/graphview/internal/tmpl"
	"github.com/stretchr/testify/require"
)

func mustTemplates(t *testing.T, names ...string) map[string]*tmpl.Template {
	t.Helper()
	m := make(map[string]*tmpl.Template, len(names))
	for _, n := range names {
		q, err := tmpl.ParseQuery(n, "SELECT 1")
		require.NoError(t, err)
		m[n] = q
	}
	return m
}

type shape struct {
	Name        string
	Parent      string
	PassThrough bool
}

func shapes(tr *Tree) []shape {
	var out []shape
	_ = tr.Walk(func(n *Node) error {
		out = append(out, shape{Name: n.Name, Parent: tr.ParentName(n), PassThrough: n.PassThrough()})
		return nil
	})
	return out
}

func TestBuildNestsByDelimiter(t *testing.T) {
	tr, err := Build(mustTemplates(t, "a_c", "a", "b", "a_b"))
	require.NoError(t, err)

	want := []shape{
		{Name: "a"},
		{Name: "b"},
		{Name: "a_b", Parent: "a"},
		{Name: "a_c", Parent: "a"},
	}
	if diff := cmp.Diff(want, shapes(tr)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 4, tr.Len())
	a, ok := tr.Lookup("a")
	require.True(t, ok)
	require.Equal(t, 1, a.Depth)
	require.Equal(t, "c", tr.Children(a.ID)[1].Segment)
}

func TestMissingPrefixBecomesPassThrough(t *testing.T) {
	tr, err := Build(mustTemplates(t, "a_b_c"))
	require.NoError(t, err)
	want := []shape{
		{Name: "a", PassThrough: true},
		{Name: "a_b", Parent: "a", PassThrough: true},
		{Name: "a_b_c", Parent: "a_b"},
	}
	if diff := cmp.Diff(want, shapes(tr)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "a (pass-through)\n  a_b (pass-through)\n    a_b_c\n", tr.String())
}

func TestBuildRejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "_a", "a_", "a__b", " .query"} {
		_, err := Build(mustTemplates(t, name))
		var be *BuildError
		require.True(t, errors.As(err, &be), "name %q", name)
	}
	_, err := Build(mustTemplates(t, "a", "a.query"))
	var be *BuildError
	require.True(t, errors.As(err, &be))
	require.Equal(t, "duplicate name", be.Reason)
}

func TestEmptyTree(t *testing.T) {
	tr, err := Build(nil)
	require.NoError(t, err)
	require.Zero(t, tr.Len())
	require.Equal(t, -1, tr.Root().Parent)
	require.Empty(t, tr.String())
}
