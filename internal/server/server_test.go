package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hanpama/graphview/internal/backend"
	"github.com/hanpama/graphview/internal/browser"
	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/events"
	"github.com/hanpama/graphview/internal/executor"
	"github.com/hanpama/graphview/internal/reqid"
	"github.com/hanpama/graphview/internal/tmpl"
	"github.com/hanpama/graphview/internal/views"
)

type fakeRenderer struct {
	got   browser.Request
	ctxID string
	resp  *browser.Response
	err   error
}

func (f *fakeRenderer) Render(ctx context.Context, req browser.Request) (*browser.Response, error) {
	f.got = req
	f.ctxID, _ = reqid.FromContext(ctx)
	return f.resp, f.err
}

func okRenderer() *fakeRenderer {
	return &fakeRenderer{resp: &browser.Response{Body: "<p>hi</p>", MediaType: "text/html", ContentType: "text/html; charset=utf-8"}}
}

func TestServesView(t *testing.T) {
	fr := okRenderer()
	h := New(fr)

	req := httptest.NewRequest("GET", "/fields?graph=b&graph=a&limit=5", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Cookie", "secret")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if w.Body.String() != "<p>hi</p>" || w.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Fatalf("unexpected response %q %q", w.Body.String(), w.Header().Get("Content-Type"))
	}
	if fr.got.View != "fields" || fr.got.Accept != "text/html" || fr.got.BaseURL != "http://example.com/fields" {
		t.Fatalf("unexpected request %+v", fr.got)
	}
	if got := strings.Join(fr.got.ParamOrder, ","); got != "graph,limit" {
		t.Fatalf("param order %q", got)
	}
	if got := fr.got.Params["graph"]; len(got) != 2 || got[0] != "b" {
		t.Fatalf("params %v", fr.got.Params)
	}
	if fr.got.Header.Get("Accept-Language") != "en" || fr.got.Header.Get("Cookie") != "" {
		t.Fatalf("forwarded headers %v", fr.got.Header)
	}
	if fr.ctxID == "" || w.Header().Get(reqid.Header) != fr.ctxID {
		t.Fatalf("request id %q vs header %q", fr.ctxID, w.Header().Get(reqid.Header))
	}
}

func TestRootUsesDefaultViewAndHead(t *testing.T) {
	fr := okRenderer()
	h := New(fr, WithDefaultView("home"), WithForwardHeaders("X-User"))

	req := httptest.NewRequest("HEAD", "/", nil)
	req.Header.Set("X-User", "alice")
	req.Header.Set(reqid.Header, "r-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("status %d body %q", w.Code, w.Body.String())
	}
	if fr.got.View != "home" || fr.got.Header.Get("X-User") != "alice" {
		t.Fatalf("unexpected request %+v", fr.got)
	}
	if w.Header().Get("Content-Length") != "9" || w.Header().Get(reqid.Header) != "r-1" {
		t.Fatalf("headers %v", w.Header())
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", views.ErrViewNotFound), http.StatusNotFound},
		{fmt.Errorf("view %q: %w", "a", views.ErrNoAcceptableRepresentation), http.StatusNotAcceptable},
		{&tmpl.Error{Template: "a", Err: errors.New("bad")}, http.StatusInternalServerError},
		{fmt.Errorf("node %q: %w", "a", &backend.QueryError{Backend: "x", Err: errors.New("down")}), http.StatusBadGateway},
		{&backend.QueryError{Backend: "x", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{executor.ErrTooManyQueries, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := New(&fakeRenderer{err: tc.err})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/v", nil))
		if w.Code != tc.want {
			t.Fatalf("%v: expected %d got %d", tc.err, tc.want, w.Code)
		}
		if strings.Contains(w.Body.String(), tc.err.Error()) {
			t.Fatalf("error details leaked without debug: %q", w.Body.String())
		}
	}
}

func TestDebugRendersErrorText(t *testing.T) {
	err := &tmpl.Error{Template: "fields", Err: errors.New(`unexpected "}" in operand`)}
	h := New(&fakeRenderer{err: err}, WithDebug(true))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/v", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), err.Error()) {
		t.Fatalf("expected error text in body, got %q", w.Body.String())
	}
}

func TestMethodAndPathRejection(t *testing.T) {
	fr := okRenderer()
	h := New(fr)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/v", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/a/b", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestCORSAndPreflight(t *testing.T) {
	h := New(okRenderer(), WithCORS("*"))

	// simple request
	req := httptest.NewRequest("GET", "/v", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/v", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	if pw.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", pw.Code)
	}
	if pw.Header().Get("Access-Control-Allow-Headers") != "X-Test" {
		t.Fatalf("preflight missing allow headers")
	}
}

func TestPublishesHTTPEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	var starts []events.HTTPStart
	var finishes []events.HTTPFinish
	eventbus.Subscribe(func(_ context.Context, e events.HTTPStart) { starts = append(starts, e) })
	eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) { finishes = append(finishes, e) })

	req := httptest.NewRequest("GET", "/fields", nil)
	req.Header.Set(reqid.Header, "abc123")
	w := httptest.NewRecorder()
	New(okRenderer()).ServeHTTP(w, req)

	if len(starts) != 1 || len(finishes) != 1 {
		t.Fatalf("events: %d starts, %d finishes", len(starts), len(finishes))
	}
	if starts[0].RequestID != "abc123" || finishes[0].RequestID != "abc123" {
		t.Fatalf("request id not propagated: %+v %+v", starts[0], finishes[0])
	}
	if finishes[0].Status != http.StatusOK || finishes[0].Bytes != len("<p>hi</p>") {
		t.Fatalf("unexpected finish %+v", finishes[0])
	}
	if got := w.Header().Get(reqid.Header); got != "abc123" {
		t.Fatalf("request id header %q", got)
	}
}

func TestLinksUseAbsoluteRequestURL(t *testing.T) {
	disc := views.NewInMemoryDiscovery("", views.InMemoryView{
		Name:      "index",
		Responses: map[string]string{"text/plain": `{{ (link).Put "offset" "50" }}`},
	})
	cat, err := views.NewCatalog(disc)
	if err != nil {
		t.Fatal(err)
	}
	b := browser.New(cat, executor.NewExecutor(backend.NewMockBackend(nil)))

	cases := []struct {
		name      string
		url       string
		forwarded bool
		want      string
	}{
		{name: "plain", url: "http://example.org/index?q=a", want: "http://example.org/index?q=a&offset=50"},
		{name: "tls", url: "https://example.org/index?q=a", want: "https://example.org/index?q=a&offset=50"},
		{name: "forwarded ignored", url: "http://internal:8080/index?q=a", want: "http://internal:8080/index?q=a&offset=50"},
		{name: "forwarded trusted", url: "http://internal:8080/index?q=a", forwarded: true, want: "https://data.example.org/index?q=a&offset=50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.url, nil)
			req.Header.Set("X-Forwarded-Proto", "https")
			req.Header.Set("X-Forwarded-Host", "data.example.org, proxy.local")
			w := httptest.NewRecorder()
			New(b, WithTrustForwarded(tc.forwarded)).ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("status %d: %s", w.Code, w.Body.String())
			}
			if got := w.Body.String(); got != tc.want {
				t.Fatalf("link %q, want %q", got, tc.want)
			}
		})
	}
}
