package execctx

import (
	"errors"
	"testing"

	"github.com/hanpama/graphview/internal/result"
	"github.com/stretchr/testify/require"
)

func TestWithDoesNotLeakToSiblings(t *testing.T) {
	root := New(nil, Options{})
	root.Set("view", String("index"))

	r1 := result.NewRow().Bind("x", result.Literal("1"))
	r2 := result.NewRow().Bind("x", result.Literal("2"))
	a := root.With("fields", Row(r1))
	b := root.With("fields", Row(r2))

	ra, err := a.Row("fields")
	require.NoError(t, err)
	rb, err := b.Row("fields")
	require.NoError(t, err)
	require.Equal(t, "1", ra.Value("x"))
	require.Equal(t, "2", rb.Value("x"))
	require.False(t, root.Has("fields"))

	v, ok := a.String("view")
	require.True(t, ok)
	require.Equal(t, "index", v)
}

func TestKeysOrderAndShadowing(t *testing.T) {
	root := New(nil, Options{})
	root.Set("b", String("1"))
	root.Set("a", Strings("x", "y"))
	root.Set("b", String("2"))
	child := root.With("c", Fact(42)).With("a", String("z"))

	require.Equal(t, []string{"b", "a", "c"}, child.Keys())
	data := child.Data()
	require.Equal(t, "2", data["b"])
	require.Equal(t, "z", data["a"])
	require.Equal(t, 42, data["c"])
	require.Equal(t, []string{"x", "y"}, root.Strings("a"))
}

func TestTypedAccessorsReportKind(t *testing.T) {
	c := New(nil, Options{Reasoning: true})
	c.Set("s", String("v"))
	_, err := c.Rows("s")
	var ke *KindError
	require.True(t, errors.As(err, &ke))
	require.Equal(t, KindRows, ke.Want)
	require.Equal(t, KindString, ke.Got)

	rs, err := c.Rows("missing")
	require.NoError(t, err)
	require.Nil(t, rs)
	require.True(t, c.With("k", String("v")).Options().Reasoning)
}
