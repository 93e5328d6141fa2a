package sparqlhttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/hanpama/graphview/internal/backend"
	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/events"
	"github.com/hanpama/graphview/internal/result"
	"github.com/stretchr/testify/require"
)

type captured struct {
	form   url.Values
	accept string
	user   string
	pass   string
	ctype  string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	var mu sync.Mutex
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		raw, _ := io.ReadAll(r.Body)
		c.form, _ = url.ParseQuery(string(raw))
		c.accept = r.Header.Get("Accept")
		c.ctype = r.Header.Get("Content-Type")
		c.user, c.pass, _ = r.BasicAuth()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

const selectBody = `{
  "head": {"vars": ["s", "label"]},
  "results": {"bindings": [
    {"s": {"type": "uri", "value": "http://ex/a"}, "label": {"type": "literal", "value": "A", "xml:lang": "en"}},
    {"s": {"type": "bnode", "value": "b0"}, "n": {"type": "literal", "value": "3", "datatype": "http://www.w3.org/2001/XMLSchema#integer"}}
  ]}
}`

func TestSelectRequestShapeAndDecoding(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, selectBody)
	c := New(
		WithProvider(NewStaticEndpoints(map[string][]string{RoleQuery: {srv.URL}})),
		WithBasicAuth("u", "p"),
	)
	defer c.Close()

	rs, err := c.Select(context.Background(), "SELECT * WHERE { ?s ?p ?o }", backend.QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, "SELECT * WHERE { ?s ?p ?o }", got.form.Get("query"))
	require.Empty(t, got.form.Get("infer"))
	require.Equal(t, mediaResultsJSON, got.accept)
	require.Equal(t, "application/x-www-form-urlencoded", got.ctype)
	require.Equal(t, "u", got.user)
	require.Equal(t, "p", got.pass)

	require.Equal(t, []string{"s", "label", "n"}, rs.Vars)
	require.Equal(t, 2, rs.Len())
	require.Equal(t, result.IRI("http://ex/a"), rs.Rows[0].Get("s"))
	require.Equal(t, result.LangLiteral("A", "en"), rs.Rows[0].Get("label"))
	require.True(t, rs.Rows[1].Get("s").IsBNode())
	require.False(t, rs.Rows[1].Has("label"))
	require.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", rs.Rows[1].Get("n").Datatype)
}

func TestReasoningRoleAndFallback(t *testing.T) {
	plain, gotPlain := newServer(t, http.StatusOK, `{"head":{},"boolean":true}`)
	p := NewStaticEndpoints(map[string][]string{RoleQuery: {plain.URL}})
	c := New(WithProvider(p))

	ok, err := c.Ask(context.Background(), "ASK {}", backend.QueryOptions{Reasoning: true})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", gotPlain.form.Get("infer"))

	inf, gotInf := newServer(t, http.StatusOK, `{"head":{},"boolean":false}`)
	p.Set(RoleReasoning, inf.URL)
	ok, err = c.Ask(context.Background(), "ASK {}", backend.QueryOptions{Reasoning: true})
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "ASK {}", gotInf.form.Get("query"))
	require.Empty(t, gotInf.form.Get("infer"))
}

func TestConstructReadsNTriples(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, "<http://ex/s> <http://ex/p> \"o\" .\n<http://ex/s> <http://ex/q> <http://ex/x> .\n")
	c := New(WithProvider(NewStaticEndpoints(map[string][]string{RoleQuery: {srv.URL}})))

	ts, err := c.Construct(context.Background(), "CONSTRUCT WHERE { ?s ?p ?o }", backend.QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, mediaNTriples, got.accept)
	require.Len(t, ts, 2)
	require.Equal(t, result.Literal("o"), ts[0].Object)
	require.Equal(t, result.IRI("http://ex/x"), ts[1].Object)
}

func TestNonSuccessBecomesQueryError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest, "MALFORMED QUERY: line 1")
	c := New(WithProvider(NewStaticEndpoints(map[string][]string{RoleQuery: {srv.URL}})))

	_, err := c.Select(context.Background(), "SELEC", backend.QueryOptions{})
	var qe *backend.QueryError
	require.True(t, errors.As(err, &qe))
	require.Equal(t, http.StatusBadRequest, qe.Status)
	require.Equal(t, "SELEC", qe.Query)
	require.Contains(t, qe.Error(), "MALFORMED QUERY")
}

func TestMissingEndpointsAndClosed(t *testing.T) {
	c := New(WithProvider(NewStaticEndpoints(nil)))
	_, err := c.Select(context.Background(), "q", backend.QueryOptions{})
	require.ErrorIs(t, err, ErrNoEndpoints)
	require.True(t, backend.IsQueryError(err))

	require.NoError(t, c.Close())
	_, err = c.Select(context.Background(), "q", backend.QueryOptions{})
	require.ErrorIs(t, err, backend.ErrClosed)
}

func TestDefaultTimeoutApplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	c := New(
		WithProvider(NewStaticEndpoints(map[string][]string{RoleQuery: {srv.URL}})),
		WithRequestTimeout(50*time.Millisecond),
	)
	_, err := c.Select(context.Background(), "q", backend.QueryOptions{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEventsCarryNodeAndStatus(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	var starts []events.QueryStart
	var finishes []events.QueryFinish
	eventbus.Subscribe(func(_ context.Context, e events.QueryStart) { starts = append(starts, e) })
	eventbus.Subscribe(func(_ context.Context, e events.QueryFinish) { finishes = append(finishes, e) })

	srv, _ := newServer(t, http.StatusOK, selectBody)
	c := New(WithProvider(NewStaticEndpoints(map[string][]string{RoleQuery: {srv.URL}})))
	_, err := c.Select(backend.WithNode(context.Background(), "fields"), "q", backend.QueryOptions{})
	require.NoError(t, err)

	require.Len(t, starts, 1)
	require.Equal(t, "fields", starts[0].Node)
	require.Equal(t, srv.URL, starts[0].Target)
	require.Len(t, finishes, 1)
	require.Equal(t, http.StatusOK, finishes[0].Status)
	require.Equal(t, 2, finishes[0].Rows)
	require.NoError(t, finishes[0].Err)
}
