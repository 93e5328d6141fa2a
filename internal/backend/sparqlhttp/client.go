// Package sparqlhttp is a SPARQL 1.1 protocol client implementing
// backend.Backend over pooled HTTP connections.
package sparqlhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hanpama/graphview/internal/backend"
	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/events"
	"github.com/hanpama/graphview/internal/result"
	"golang.org/x/time/rate"
)

// Name identifies this backend in errors and events.
const Name = "sparqlhttp"

const (
	mediaResultsJSON = "application/sparql-results+json"
	mediaNTriples    = "application/n-triples"
	errorSnippetLen  = 512
)

// Client sends queries to the endpoints of its EndpointProvider. Queries with
// Reasoning go to the "reasoning" role; when no such endpoint is configured
// they go to a "query" endpoint with infer=true.
type Client struct {
	opts    *Options
	http    *http.Client
	owned   bool
	limiter *rate.Limiter
	closed  atomic.Bool
}

var _ backend.Backend = (*Client)(nil)

func New(opts ...Option) *Client {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	c := &Client{opts: o, http: o.HTTPClient}
	if c.http == nil {
		n := o.MaxConnsPerEndpoint
		if n <= 0 {
			n = 4
		}
		c.http = &http.Client{Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxConnsPerHost:     n,
			MaxIdleConnsPerHost: n,
			IdleConnTimeout:     90 * time.Second,
		}}
		c.owned = true
	}
	burst := o.Burst
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(o.RateLimit, burst)
	return c
}

func (c *Client) Select(ctx context.Context, query string, opts backend.QueryOptions) (*result.ResultSet, error) {
	var rs *result.ResultSet
	err := c.do(ctx, query, opts, mediaResultsJSON, func(body io.Reader) (int, error) {
		doc, err := decodeResults(body)
		if err != nil {
			return 0, err
		}
		rs, err = doc.resultSet()
		return rs.Len(), err
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (c *Client) Ask(ctx context.Context, query string, opts backend.QueryOptions) (bool, error) {
	var ok bool
	err := c.do(ctx, query, opts, mediaResultsJSON, func(body io.Reader) (int, error) {
		doc, err := decodeResults(body)
		if err != nil {
			return 0, err
		}
		ok, err = doc.boolean()
		return 1, err
	})
	return ok, err
}

func (c *Client) Construct(ctx context.Context, query string, opts backend.QueryOptions) ([]result.Triple, error) {
	var ts []result.Triple
	err := c.do(ctx, query, opts, mediaNTriples, func(body io.Reader) (int, error) {
		err := result.ReadNTriples(body, func(t result.Triple) error {
			ts = append(ts, t)
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		return len(ts), nil
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.owned {
		c.http.CloseIdleConnections()
	}
	return nil
}

// ---------------- internals ----------------

func (c *Client) do(ctx context.Context, query string, qo backend.QueryOptions, accept string, decode func(io.Reader) (int, error)) (err error) {
	if c.closed.Load() {
		return backend.ErrClosed
	}
	if c.opts.Provider == nil {
		return c.fail(query, 0, errors.New("provider not configured"))
	}

	// Determine deadline
	if _, ok := ctx.Deadline(); !ok && c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}

	endpoint, infer, err := c.endpoint(ctx, qo.Reasoning)
	if err != nil {
		return c.fail(query, 0, err)
	}

	node := backend.NodeFromContext(ctx)
	var status, rows int
	start := time.Now()
	eventbus.Publish(ctx, events.QueryStart{Backend: Name, Node: node, Target: endpoint, Query: query, Reasoning: qo.Reasoning})
	defer func() {
		eventbus.Publish(ctx, events.QueryFinish{
			Backend:   Name,
			Node:      node,
			Target:    endpoint,
			Reasoning: qo.Reasoning,
			Status:    status,
			Rows:      rows,
			Err:       err,
			Duration:  time.Since(start),
		})
	}()

	if werr := c.limiter.Wait(ctx); werr != nil {
		if cerr := ctx.Err(); cerr != nil {
			werr = cerr
		}
		return c.fail(query, 0, werr)
	}

	form := url.Values{"query": {query}}
	if infer {
		form.Set("infer", "true")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(query, 0, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.Username != "" {
		req.SetBasicAuth(c.opts.Username, c.opts.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(query, 0, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	if status < 200 || status > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetLen))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return c.fail(query, status, errors.New(msg))
	}
	rows, err = decode(resp.Body)
	if err != nil {
		return c.fail(query, status, err)
	}
	return nil
}

func (c *Client) endpoint(ctx context.Context, reasoning bool) (endpoint string, infer bool, err error) {
	role := RoleQuery
	if reasoning {
		role = RoleReasoning
	}
	eps, err := c.opts.Provider.Endpoints(ctx, role)
	if reasoning && errors.Is(err, ErrNoEndpoints) {
		eps, err = c.opts.Provider.Endpoints(ctx, RoleQuery)
		infer = true
	}
	if err != nil {
		return "", false, err
	}
	if len(eps) == 0 {
		return "", false, ErrNoEndpoints
	}
	// pick one at random
	return eps[rand.IntN(len(eps))], infer, nil
}

func (c *Client) fail(query string, status int, err error) error {
	return &backend.QueryError{Backend: Name, Query: query, Status: status, Err: err}
}
