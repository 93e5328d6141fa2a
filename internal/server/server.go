// Package server exposes a Browser over HTTP as GET /{view}.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hanpama/graphview/internal/backend"
	"github.com/hanpama/graphview/internal/browser"
	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/events"
	"github.com/hanpama/graphview/internal/reqid"
	"github.com/hanpama/graphview/internal/views"
)

// Renderer renders view requests. *browser.Browser implements it.
type Renderer interface {
	Render(ctx context.Context, req browser.Request) (*browser.Response, error)
}

// Handler is an http.Handler that serves views.
// It maps the path to a view name, runs the renderer, and maps failures to
// status codes.
type Handler struct {
	renderer Renderer
	opt      Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// ForwardHeaders lists request headers copied into the execution context
	// as header.<name>. Header names are case-insensitive.
	ForwardHeaders []string

	// Debug writes error details into the response body.
	Debug bool

	// DefaultView serves "/". Empty leaves the choice to the renderer.
	DefaultView string

	// TrustForwarded takes the link base scheme and host from
	// X-Forwarded-Proto and X-Forwarded-Host when a proxy sets them.
	TrustForwarded bool
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithDebug(on bool) Option           { return func(o *Options) { o.Debug = on } }
func WithDefaultView(name string) Option { return func(o *Options) { o.DefaultView = name } }
func WithTrustForwarded(on bool) Option  { return func(o *Options) { o.TrustForwarded = on } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithForwardHeaders(headers ...string) Option {
	return func(o *Options) { o.ForwardHeaders = headers }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// DefaultForwardHeaders are forwarded unless WithForwardHeaders says otherwise.
var DefaultForwardHeaders = []string{"Accept-Language", "User-Agent", "Referer"}

// New creates a new view handler.
func New(r Renderer, opts ...Option) *Handler {
	op := Options{Timeout: 30 * time.Second, ForwardHeaders: DefaultForwardHeaders}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{renderer: r, opt: op}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.WithID(ctx, r.Header.Get(reqid.Header))
	w.Header().Set(reqid.Header, rid)
	status := http.StatusOK
	written := 0
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r, RequestID: rid})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{
			Request:   r,
			RequestID: rid,
			Status:    status,
			Bytes:     written,
			Duration:  time.Since(start),
		})
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if r.Method == http.MethodOptions {
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusMethodNotAllowed
		w.Header().Set("Allow", "GET, HEAD, OPTIONS")
		written = h.writeError(w, status, nil)
		return
	}

	name := strings.Trim(r.URL.Path, "/")
	if name == "" {
		name = h.opt.DefaultView
	}
	if name != "" && !views.ValidName(name) {
		status = http.StatusNotFound
		written = h.writeError(w, status, nil)
		return
	}

	resp, err := h.renderer.Render(ctx, browser.Request{
		View:       name,
		Accept:     r.Header.Get("Accept"),
		Params:     r.URL.Query(),
		ParamOrder: browser.ParamOrder(r.URL.RawQuery),
		Header:     h.forwarded(r.Header),
		BaseURL:    h.baseURL(r),
	})
	if err != nil {
		status = StatusFor(err)
		written = h.writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.Header().Add("Vary", "Accept")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		written, _ = w.Write([]byte(resp.Body))
	}
}

// baseURL is the absolute URL of r without its query, the base templates
// build links on.
func (h *Handler) baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if h.opt.TrustForwarded {
		if p := firstValue(r.Header.Get("X-Forwarded-Proto")); p != "" {
			scheme = strings.ToLower(p)
		}
		if fh := firstValue(r.Header.Get("X-Forwarded-Host")); fh != "" {
			host = fh
		}
	}
	if host == "" {
		return r.URL.Path
	}
	u := url.URL{Scheme: scheme, Host: host, Path: r.URL.Path, RawPath: r.URL.RawPath}
	return u.String()
}

// firstValue returns the first entry of a comma-separated header set by a
// chain of proxies.
func firstValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

func (h *Handler) forwarded(in http.Header) http.Header {
	out := http.Header{}
	for _, name := range h.opt.ForwardHeaders {
		if vs := in.Values(name); len(vs) > 0 {
			out[http.CanonicalHeaderKey(name)] = vs
		}
	}
	return out
}

// StatusFor maps a render failure to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, views.ErrViewNotFound):
		return http.StatusNotFound
	case errors.Is(err, views.ErrNoAcceptableRepresentation):
		return http.StatusNotAcceptable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case backend.IsQueryError(err):
		return http.StatusBadGateway
	default:
		// template failures, query limits
		return http.StatusInternalServerError
	}
}

// writeError writes a plain-text error. Details are only exposed in debug
// mode.
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) int {
	msg := http.StatusText(status)
	if h.opt.Debug && err != nil {
		msg = err.Error()
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	n, _ := w.Write([]byte(msg + "\n"))
	return n
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
