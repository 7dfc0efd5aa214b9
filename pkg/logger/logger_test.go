package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "txprop/internal/core/context"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestWithComponent(t *testing.T) {
	l, logs := observed()

	l.WithComponent("http").Infow("request completed", "status", 200)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "http", fields["component"])
	assert.EqualValues(t, 200, fields["status"])
}

func TestFromContext_AddsTraceAndOperation(t *testing.T) {
	l, logs := observed()

	ctx := WithLogger(context.Background(), l.WithComponent("coordinator"))
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithOperation(ctx, "Join")

	Warn(ctx, "transaction completed out of order")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "coordinator", fields["component"])
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "Join", fields["operation"])
}

func TestFromContext_DefaultsWithoutLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}
