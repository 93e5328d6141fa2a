package sqlstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hanpama/graphview/internal/backend"
	"github.com/hanpama/graphview/internal/result"
	"github.com/stretchr/testify/require"
)

const dataset = `
<http://ex/f1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://ex/Field> .
<http://ex/f1> <http://www.w3.org/2000/01/rdf-schema#label> "North"@en .
<http://ex/f2> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://ex/Field> .
<http://ex/f2> <http://www.w3.org/2000/01/rdf-schema#label> "South" .
<http://ex/Field> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://ex/Area> .
<http://ex/Area> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://ex/Place> .
# duplicate
<http://ex/f1> <http://www.w3.org/2000/01/rdf-schema#label> "North"@en .
`

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	n, err := s.Load(context.Background(), strings.NewReader(dataset), "")
	require.NoError(t, err)
	require.Equal(t, 7, n)
	count, err := s.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, count)
	return s
}

func TestSelectBindsColumnsAsTerms(t *testing.T) {
	s := newStore(t)
	rs, err := s.Select(context.Background(), `
		SELECT s AS field, o AS label, NULL AS missing, 1 AS one
		FROM quads WHERE p = '<http://www.w3.org/2000/01/rdf-schema#label>' ORDER BY s`, backend.QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"field", "label", "missing", "one"}, rs.Vars)
	require.Equal(t, 2, rs.Len())
	require.Equal(t, result.IRI("http://ex/f1"), rs.Rows[0].Get("field"))
	require.Equal(t, result.LangLiteral("North", "en"), rs.Rows[0].Get("label"))
	require.False(t, rs.Rows[0].Has("missing"))
	require.Equal(t, "1", rs.Rows[0].Value("one"))
	require.Equal(t, result.Literal("South"), rs.Rows[1].Get("label"))
}

func TestTermFunctions(t *testing.T) {
	s := newStore(t)
	rs, err := s.Select(context.Background(), `
		SELECT term_value(o) AS v, term_lang(o) AS lang, term_localname(s) AS name
		FROM quads WHERE p = '<http://www.w3.org/2000/01/rdf-schema#label>' AND term_value(o) = 'North'`, backend.QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	r := rs.First()
	require.Equal(t, result.Literal("North"), r.Get("v"))
	require.Equal(t, "en", r.Value("lang"))
	require.Equal(t, "f1", r.Value("name"))
}

func TestReasoningAddsEntailedTypes(t *testing.T) {
	s := newStore(t)
	q := `SELECT s FROM quads WHERE p = '<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>' AND o = '<http://ex/Place>' ORDER BY s`

	rs, err := s.Select(context.Background(), q, backend.QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, rs.Len())

	rs, err = s.Select(context.Background(), q, backend.QueryOptions{Reasoning: true})
	require.NoError(t, err)
	require.Equal(t, []result.Term{result.IRI("http://ex/f1"), result.IRI("http://ex/f2")}, rs.Column("s"))

	// the view does not outlive the query
	rs, err = s.Select(context.Background(), q, backend.QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, rs.Len())
}

func TestAskAndConstruct(t *testing.T) {
	s := newStore(t)
	ok, err := s.Ask(context.Background(), `SELECT COUNT(*) > 0 FROM quads WHERE s = '<http://ex/f2>'`, backend.QueryOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Ask(context.Background(), `SELECT 1 FROM quads WHERE s = '<http://ex/none>'`, backend.QueryOptions{})
	require.NoError(t, err)
	require.False(t, ok)

	ts, err := s.Construct(context.Background(), `SELECT s, p, o FROM quads WHERE s = '<http://ex/f2>' ORDER BY p`, backend.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, ts, 2)
	require.Equal(t, result.IRI("http://ex/Field"), ts[1].Object)

	_, err = s.Construct(context.Background(), `SELECT s FROM quads`, backend.QueryOptions{})
	require.True(t, backend.IsQueryError(err))
}

func TestBadQueryIsQueryError(t *testing.T) {
	s := newStore(t)
	_, err := s.Select(context.Background(), `SELEC nonsense`, backend.QueryOptions{})
	var qe *backend.QueryError
	require.True(t, errors.As(err, &qe))
	require.Equal(t, Name, qe.Backend)
	require.Equal(t, "SELEC nonsense", qe.Query)
}

func TestLoadIntoNamedGraph(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Load(context.Background(), strings.NewReader(
		"<http://ex/a> <http://ex/p> \"x\" .\n<http://ex/b> <http://ex/p> \"y\" <http://ex/other> .\n"), "http://ex/g")
	require.NoError(t, err)
	rs, err := s.Select(context.Background(), `SELECT s, g FROM quads ORDER BY s`, backend.QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, result.IRI("http://ex/g"), rs.Rows[0].Get("g"))
	require.Equal(t, result.IRI("http://ex/other"), rs.Rows[1].Get("g"))

	_, err = s.Load(context.Background(), strings.NewReader("not a triple\n"), "")
	require.Error(t, err)
}
