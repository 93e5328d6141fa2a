package sparqlhttp

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Options configures the SPARQL protocol client.
//
// Defaults:
// - MaxConnsPerEndpoint: 4
// - RequestTimeout:      10s (used only if incoming context has no deadline)
// - RateLimit:           unlimited
//
// Provider must be set (use StaticEndpoints or a custom implementation);
// without it every query fails.

type Options struct {
	Provider EndpointProvider

	MaxConnsPerEndpoint int
	RequestTimeout      time.Duration

	Username string
	Password string

	RateLimit rate.Limit
	Burst     int

	// HTTPClient replaces the pooled client built from MaxConnsPerEndpoint.
	HTTPClient *http.Client
	UserAgent  string
}

// Option mutates Options
//
// Use WithX helpers below.

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		MaxConnsPerEndpoint: 4,
		RequestTimeout:      10 * time.Second,
		RateLimit:           rate.Inf,
		UserAgent:           "graphview",
	}
}

func WithProvider(p EndpointProvider) Option    { return func(o *Options) { o.Provider = p } }
func WithMaxConnsPerEndpoint(n int) Option      { return func(o *Options) { o.MaxConnsPerEndpoint = n } }
func WithRequestTimeout(d time.Duration) Option { return func(o *Options) { o.RequestTimeout = d } }
func WithHTTPClient(c *http.Client) Option      { return func(o *Options) { o.HTTPClient = c } }
func WithUserAgent(ua string) Option            { return func(o *Options) { o.UserAgent = ua } }
func WithBasicAuth(username, password string) Option {
	return func(o *Options) { o.Username, o.Password = username, password }
}

// WithRateLimit bounds outgoing queries to rps per second with the given
// burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		if rps <= 0 {
			o.RateLimit = rate.Inf
			return
		}
		o.RateLimit = rate.Limit(rps)
		o.Burst = burst
	}
}
