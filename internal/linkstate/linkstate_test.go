package linkstate

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddUniqueAddRemove(t *testing.T) {
	b := New("http://host/view", url.Values{"q": {"a"}})
	b.AddUnique("q", "a").Add("q", "b").Remove("q", "a")
	require.Equal(t, []string{"b"}, b.Get("q"))
	require.Equal(t, "http://host/view?q=b", b.String())
}

func TestPutReplacesAndKeepsOrder(t *testing.T) {
	b := New("/index", url.Values{"offset": {"0"}, "limit": {"10"}})
	b.Put("offset", "10").Add("resource", "http://ex/a b")
	require.Equal(t, "/index?limit=10&offset=10&resource=http%3A%2F%2Fex%2Fa%20b", b.String())
}

func TestRemoveWholeParam(t *testing.T) {
	b := New("/v", nil).Add("x", "1").Add("y", "2").Add("x", "3")
	b.Remove("x")
	require.Equal(t, "/v?y=2", b.String())
	b.Remove("y", "2")
	require.Equal(t, "/v", b.String())
	require.Empty(t, b.Names())
}

func TestCloneIsIndependent(t *testing.T) {
	b := New("/v", url.Values{"a": {"1"}})
	c := b.Clone().Put("a", "2")
	require.Equal(t, "/v?a=1", b.String())
	require.Equal(t, "/v?a=2", c.String())
}

func TestEncodingRoundTrip(t *testing.T) {
	b := New("/v?fixed=1", nil).Add("lang", "en+fr").Add("q", "ä & ö")
	u, err := url.Parse(b.String())
	require.NoError(t, err)
	require.Equal(t, "en+fr", u.Query().Get("lang"))
	require.Equal(t, "ä & ö", u.Query().Get("q"))
	require.Equal(t, "1", u.Query().Get("fixed"))
}
