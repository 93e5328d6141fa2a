// Package logging builds the process logger and logs view and query events.
package logging

import (
	"context"

	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/events"
	"github.com/hanpama/graphview/internal/reqid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production logger, at debug level when verbose is set.
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// Register logs events from the global bus to log. Successful queries and
// views are logged at debug level, failures at warn.
func Register(log *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.QueryFinish) {
			fields := append(requestFields(ctx),
				zap.String("backend", e.Backend),
				zap.String("node", e.Node),
				zap.Int("rows", e.Rows),
				zap.Duration("duration", e.Duration),
			)
			if e.Target != "" {
				fields = append(fields, zap.String("target", e.Target))
			}
			if e.Err != nil {
				log.Warn("query failed", append(fields, zap.Error(e.Err), zap.Int("status", e.Status))...)
				return
			}
			log.Debug("query", fields...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.ViewFinish) {
			fields := append(requestFields(ctx),
				zap.String("view", e.View),
				zap.String("media_type", e.MediaType),
				zap.Int("queries", e.Queries),
				zap.Duration("duration", e.Duration),
			)
			if e.Err != nil {
				log.Warn("view failed", append(fields, zap.Error(e.Err))...)
				return
			}
			log.Debug("view", fields...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			log.Info("http",
				append(requestFields(ctx),
					zap.String("method", e.Request.Method),
					zap.String("path", e.Request.URL.Path),
					zap.Int("status", e.Status),
					zap.Int("bytes", e.Bytes),
					zap.Duration("duration", e.Duration),
				)...)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func requestFields(ctx context.Context) []zap.Field {
	if id, ok := reqid.FromContext(ctx); ok {
		return []zap.Field{zap.String("request_id", id)}
	}
	return nil
}
