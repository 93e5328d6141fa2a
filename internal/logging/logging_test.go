package logging

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/events"
	"github.com/hanpama/graphview/internal/reqid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegisterLogsEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	core, logs := observer.New(zapcore.DebugLevel)
	defer Register(zap.New(core))()

	ctx, id := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, events.QueryFinish{Backend: "sqlstore", Node: "fields", Rows: 3})
	eventbus.Publish(ctx, events.ViewFinish{View: "fields", Err: errors.New("boom")})
	eventbus.Publish(ctx, events.HTTPFinish{Request: httptest.NewRequest("GET", "/fields", nil), Status: 500})

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	require.Equal(t, "query", entries[0].Message)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, int64(3), entries[0].ContextMap()["rows"])
	require.Equal(t, id, entries[0].ContextMap()["request_id"])

	require.Equal(t, "view failed", entries[1].Message)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "boom", entries[1].ContextMap()["error"])

	require.Equal(t, "http", entries[2].Message)
	require.Equal(t, "/fields", entries[2].ContextMap()["path"])
}

func TestNewVerbose(t *testing.T) {
	log, err := New(true)
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New(false)
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
