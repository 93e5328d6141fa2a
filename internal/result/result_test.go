package result

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func triples(spo ...[3]Term) *ResultSet {
	rs := &ResultSet{Vars: []string{"s", "p", "o"}}
	for _, t := range spo {
		rs.Rows = append(rs.Rows, NewRow().Bind("s", t[0]).Bind("p", t[1]).Bind("o", t[2]))
	}
	return rs
}

func TestPivotTable(t *testing.T) {
	s1, s2 := IRI("http://ex/s1"), IRI("http://ex/s2")
	p1, p2 := IRI("http://ex/p1"), IRI("http://ex/p2")
	v1, v2, v3 := Literal("v1"), Literal("v2"), Literal("v3")

	got := PivotTable(triples(
		[3]Term{s1, p1, v1},
		[3]Term{s1, p2, v2},
		[3]Term{s2, p1, v3},
	), "s", "p", "o", "")

	want := &Table{
		Header: []Term{{}, p1, p2},
		Rows: [][]Term{
			{s1, v1, v2},
			{s2, v3, {}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestPivotTableSortsPredicatesAndUsesLabels(t *testing.T) {
	s := IRI("http://ex/s")
	rs := &ResultSet{}
	rs.Rows = append(rs.Rows,
		NewRow().Bind("s", s).Bind("p", IRI("http://ex/z")).Bind("o", Literal("1")).Bind("l", Literal("Zed")),
		NewRow().Bind("s", s).Bind("p", IRI("http://ex/a")).Bind("o", Literal("2")),
	)
	got := PivotTable(rs, "s", "p", "o", "l")
	require.Equal(t, []Term{{}, IRI("http://ex/a"), Literal("Zed")}, got.Header)
	require.Equal(t, [][]Term{{s, Literal("2"), Literal("1")}}, got.Rows)
}

func TestPivotMap(t *testing.T) {
	s1, s2 := IRI("http://ex/s1"), IRI("http://ex/s2")
	got := PivotMap(triples(
		[3]Term{s2, IRI("http://ex/name"), Literal("b")},
		[3]Term{s1, IRI("http://ex/name"), Literal("a")},
		[3]Term{s2, IRI("http://ex/vocab#age"), Literal("3")},
	), "s", "p", "o")

	require.Len(t, got.Rows, 2)
	require.Equal(t, s2, got.Rows[0].Get("s"))
	require.Equal(t, "b", got.Rows[0].Value("name"))
	require.Equal(t, "b", got.Rows[0].Value("http://ex/name"))
	require.Equal(t, "3", got.Rows[0].Value("age"))
	require.Equal(t, s1, got.Rows[1].Get("s"))
	require.False(t, got.Rows[1].Has("age"))
	require.Equal(t, []string{"s", "http://ex/name", "name", "http://ex/vocab#age", "age"}, got.Vars)
}

func TestRowAttachOnce(t *testing.T) {
	r := NewRow()
	require.NoError(t, r.Attach("a", Empty()))
	require.Error(t, r.Attach("a", Empty()))
	require.Equal(t, 0, r.Child("missing").Len())
	require.True(t, r.HasChild("a"))
}

func TestTermNT(t *testing.T) {
	cases := []struct {
		term Term
		want string
	}{
		{IRI("http://ex/a"), "<http://ex/a>"},
		{BNode("b0"), "_:b0"},
		{Literal(`say "hi"` + "\n"), `"say \"hi\"\n"`},
		{LangLiteral("chat", "fr"), `"chat"@fr`},
		{TypedLiteral("1", "http://www.w3.org/2001/XMLSchema#integer"), `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{Term{}, ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.term.NT())
		if c.want == "" {
			continue
		}
		back, err := ParseTerm(c.want)
		require.NoError(t, err)
		require.Equal(t, c.term, back)
	}
}

func TestReadNTriples(t *testing.T) {
	src := `# comment
<http://ex/s> <http://ex/p> "oé"@en .
_:b1 <http://ex/p> <http://ex/o> <http://ex/g> .

<http://ex/s> <http://ex/n> "5"^^<http://www.w3.org/2001/XMLSchema#integer>.
`
	var got []Triple
	err := ReadNTriples(strings.NewReader(src), func(tr Triple) error {
		got = append(got, tr)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, LangLiteral("oé", "en"), got[0].Object)
	require.Equal(t, BNode("b1"), got[1].Subject)
	require.Equal(t, IRI("http://ex/g"), got[1].Graph)
	require.Equal(t, "5", got[2].Object.Value)

	var buf bytes.Buffer
	require.NoError(t, WriteNTriples(&buf, got[1:2]))
	require.Equal(t, "_:b1 <http://ex/p> <http://ex/o> <http://ex/g> .\n", buf.String())
}

func TestReadNTriplesRejectsGarbage(t *testing.T) {
	err := ReadNTriples(strings.NewReader("<http://ex/s> nope ."), func(Triple) error { return nil })
	require.ErrorContains(t, err, "line 1")
}
