// Package metrics exports Prometheus counters and histograms fed by eventbus
// view and query events.
package metrics

import (
	"context"
	"errors"

	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/events"
	"github.com/hanpama/graphview/internal/views"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors registered by New.
type Metrics struct {
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	ViewsTotal    *prometheus.CounterVec
	ViewDuration  *prometheus.HistogramVec
	HTTPTotal     *prometheus.CounterVec
}

// New creates the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		QueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graphview_queries_total",
			Help: "Backend queries by backend and outcome",
		}, []string{"backend", "outcome"}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphview_query_duration_seconds",
			Help:    "Backend query latency",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"backend"}),
		ViewsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graphview_views_total",
			Help: "View renders by view and outcome",
		}, []string{"view", "outcome"}),
		ViewDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphview_view_duration_seconds",
			Help:    "End-to-end view render latency",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"view"}),
		HTTPTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graphview_http_requests_total",
			Help: "HTTP requests by status code class",
		}, []string{"code"}),
	}
}

// Register subscribes m to the global bus.
func (m *Metrics) Register() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.QueryFinish) {
			m.QueriesTotal.WithLabelValues(e.Backend, outcome(e.Err)).Inc()
			m.QueryDuration.WithLabelValues(e.Backend).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.ViewFinish) {
			// Unknown names stay out of the label set.
			view := e.View
			if errors.Is(e.Err, views.ErrViewNotFound) {
				view = ""
			}
			m.ViewsTotal.WithLabelValues(view, outcome(e.Err)).Inc()
			m.ViewDuration.WithLabelValues(view).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			m.HTTPTotal.WithLabelValues(codeClass(e.Status)).Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func codeClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
