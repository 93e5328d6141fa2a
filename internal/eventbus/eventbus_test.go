package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ n int }
type pong struct{}

func TestDispatchByType(t *testing.T) {
	b := New()
	var got []int
	On(b, func(_ context.Context, p ping) { got = append(got, p.n) })
	On(b, func(_ context.Context, p ping) { got = append(got, p.n*10) })
	var pongs int
	On(b, func(context.Context, pong) { pongs++ })

	Emit(context.Background(), b, ping{n: 1})
	require.Equal(t, []int{1, 10}, got)
	require.Zero(t, pongs)
}

func TestUnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	b := New()
	var a, c int
	mk := func(dst *int) Handler[ping] { return func(context.Context, ping) { *dst++ } }
	unA := On(b, mk(&a))
	On(b, mk(&c))

	unA()
	unA()
	Emit(context.Background(), b, ping{})
	require.Equal(t, 0, a)
	require.Equal(t, 1, c)
}

func TestGlobalBus(t *testing.T) {
	Use(nil)
	Publish(context.Background(), ping{})
	require.NotPanics(t, func() { Subscribe(func(context.Context, ping) {})() })

	b := New()
	Use(b)
	t.Cleanup(func() { Use(nil) })
	var n int
	un := Subscribe(func(_ context.Context, p ping) { n += p.n })
	Publish(context.Background(), ping{n: 2})
	un()
	Publish(context.Background(), ping{n: 2})
	require.Equal(t, 2, n)
}
