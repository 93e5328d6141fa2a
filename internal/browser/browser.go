// Package browser answers view requests: it resolves the view, negotiates the
// representation, builds the execution context, runs the query tree and
// renders the response template.
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/events"
	"github.com/hanpama/graphview/internal/execctx"
	"github.com/hanpama/graphview/internal/executor"
	"github.com/hanpama/graphview/internal/tmpl"
	"github.com/hanpama/graphview/internal/views"
)

// Context keys set for every request besides the parameters.
const (
	KeyView   = "view"
	KeyAccept = "accept"
	// HeaderPrefix prefixes forwarded header names, e.g. "header.accept-language".
	HeaderPrefix = "header."
)

// Roles names the request parameters the browser gives meaning to. Any other
// parameter still reaches templates verbatim.
type Roles struct {
	Resource string
	Graph    string
	Limit    string
	Offset   string
	Lang     string
}

func DefaultRoles() Roles {
	return Roles{Resource: "resource", Graph: "graph", Limit: "limit", Offset: "offset", Lang: "lang"}
}

// Options configures a Browser.
type Options struct {
	// Fallback is the media type used when Accept is absent or unmatched.
	Fallback     string
	DefaultLimit int
	MaxLimit     int
	Roles        Roles
	Debug        bool
	// Reasoning runs every request against the inference-enabled backend path.
	Reasoning bool
}

type Option func(*Options)

func WithFallback(mediaType string) Option { return func(o *Options) { o.Fallback = mediaType } }
func WithDefaultLimit(n int) Option         { return func(o *Options) { o.DefaultLimit = n } }
func WithMaxLimit(n int) Option             { return func(o *Options) { o.MaxLimit = n } }
func WithRoles(r Roles) Option              { return func(o *Options) { o.Roles = r } }
func WithDebug(on bool) Option              { return func(o *Options) { o.Debug = on } }
func WithReasoning(on bool) Option          { return func(o *Options) { o.Reasoning = on } }

func defaultOptions() Options {
	return Options{
		Fallback:     "text/html",
		DefaultLimit: 50,
		MaxLimit:     1000,
		Roles:        DefaultRoles(),
	}
}

// Request is one view request.
type Request struct {
	View   string
	Accept string
	Params url.Values
	// ParamOrder lists parameter names in the order they were given; names
	// missing from it follow in sorted order.
	ParamOrder []string
	Header     http.Header
	BaseURL    string
	// Facts are host-supplied values such as the current principal.
	Facts map[string]any
	// Reasoning asks for the inference-enabled backend path for this request.
	Reasoning bool
}

// Response is a rendered view.
type Response struct {
	Body        string
	MediaType   string
	ContentType string
	Queries     int
	// Trace lists executed node instances when the executor records them.
	Trace []executor.Trace
}

// Browser is safe for concurrent use.
type Browser struct {
	catalog  *views.Catalog
	executor *executor.Executor
	opts     Options
}

func New(catalog *views.Catalog, exec *executor.Executor, opts ...Option) *Browser {
	o := defaultOptions()
	for _, f := range opts {
		f(&o)
	}
	return &Browser{catalog: catalog, executor: exec, opts: o}
}

func (b *Browser) Options() Options { return b.opts }

// Render answers req. Errors are views.ErrViewNotFound,
// views.ErrNoAcceptableRepresentation, *tmpl.Error, *backend.QueryError or a
// context error.
func (b *Browser) Render(ctx context.Context, req Request) (resp *Response, err error) {
	name := req.View
	if name == "" {
		name = b.catalog.DefaultView()
	}
	start := time.Now()
	eventbus.Publish(ctx, events.ViewStart{View: name, Accept: req.Accept})
	var mediaType string
	var queries int
	defer func() {
		eventbus.Publish(ctx, events.ViewFinish{
			View:      name,
			MediaType: mediaType,
			Queries:   queries,
			Err:       err,
			Duration:  time.Since(start),
		})
	}()

	view, err := b.catalog.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	accept := req.Accept
	if a := req.Params.Get(KeyAccept); a != "" {
		accept = a
	}
	mediaType, err = view.Negotiate(accept, b.opts.Fallback)
	if err != nil {
		return nil, fmt.Errorf("view %q: %w", name, err)
	}
	response, _ := view.Response(mediaType)

	ec := b.newContext(view.Name, mediaType, req)
	res, err := b.executor.Execute(ctx, view.Tree, view.Prefixes, ec)
	if err != nil {
		return nil, err
	}
	queries = res.Queries

	body, err := tmpl.Render(response, ec)
	if err != nil {
		return nil, err
	}
	return &Response{
		Body:        body,
		MediaType:   mediaType,
		ContentType: views.ContentType(mediaType),
		Queries:     res.Queries,
		Trace:       res.Trace,
	}, nil
}

// newContext builds the execution context: parameters in request order,
// forwarded headers, view and accept, pagination defaults, then facts.
func (b *Browser) newContext(view, mediaType string, req Request) *execctx.ExecutionContext {
	order := paramOrder(req.Params, req.ParamOrder)
	ec := execctx.New(&execctx.Request{
		BaseURL:    req.BaseURL,
		View:       view,
		Params:     req.Params,
		ParamOrder: order,
	}, execctx.Options{Debug: b.opts.Debug, Reasoning: b.opts.Reasoning || req.Reasoning})

	for _, k := range order {
		vs := req.Params[k]
		if len(vs) == 1 {
			ec.Set(k, execctx.String(vs[0]))
		} else {
			ec.Set(k, execctx.Strings(vs...))
		}
	}

	hnames := make([]string, 0, len(req.Header))
	for h := range req.Header {
		hnames = append(hnames, h)
	}
	sort.Strings(hnames)
	for _, h := range hnames {
		vs := req.Header[h]
		key := HeaderPrefix + strings.ToLower(h)
		if len(vs) == 1 {
			ec.Set(key, execctx.String(vs[0]))
		} else {
			ec.Set(key, execctx.Strings(vs...))
		}
	}

	ec.Set(KeyView, execctx.String(view))
	ec.Set(KeyAccept, execctx.String(mediaType))

	r := b.opts.Roles
	ec.Set(r.Limit, execctx.String(strconv.Itoa(b.limit(req.Params.Get(r.Limit)))))
	ec.Set(r.Offset, execctx.String(strconv.Itoa(nonNegative(req.Params.Get(r.Offset), 0))))
	if r.Lang != "" && req.Params.Get(r.Lang) == "" {
		if lang := preferredLanguage(req.Header.Get("Accept-Language")); lang != "" {
			ec.Set(r.Lang, execctx.String(lang))
		}
	}

	fnames := make([]string, 0, len(req.Facts))
	for k := range req.Facts {
		fnames = append(fnames, k)
	}
	sort.Strings(fnames)
	for _, k := range fnames {
		ec.Set(k, execctx.Fact(req.Facts[k]))
	}
	return ec
}

// limit parses a page size, falling back to the default for anything that is
// not a positive integer and capping at MaxLimit.
func (b *Browser) limit(s string) int {
	n := nonNegative(s, b.opts.DefaultLimit)
	if n == 0 {
		n = b.opts.DefaultLimit
	}
	if b.opts.MaxLimit > 0 && n > b.opts.MaxLimit {
		n = b.opts.MaxLimit
	}
	return n
}

func nonNegative(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// preferredLanguage returns the primary tag of the first Accept-Language entry.
func preferredLanguage(h string) string {
	first, _, _ := strings.Cut(h, ",")
	tag, _, _ := strings.Cut(first, ";")
	tag = strings.TrimSpace(tag)
	if tag == "*" {
		return ""
	}
	return tag
}

// paramOrder returns the names of params: first those listed in order, then
// the rest sorted.
func paramOrder(params url.Values, order []string) []string {
	seen := make(map[string]bool, len(params))
	out := make([]string, 0, len(params))
	for _, k := range order {
		if _, ok := params[k]; ok && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	var rest []string
	for k := range params {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// ParamOrder lists the parameter names of a raw query string in order of
// first appearance.
func ParamOrder(rawQuery string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(rawQuery, "&") {
		k, _, _ := strings.Cut(part, "=")
		if k == "" {
			continue
		}
		if uk, err := url.QueryUnescape(k); err == nil {
			k = uk
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
