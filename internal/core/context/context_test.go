package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTraceContext_GeneratesIDs(t *testing.T) {
	tc := NewTraceContext(context.Background(), "")
	assert.NotEmpty(t, tc.TraceID)
	assert.NotEmpty(t, tc.RequestID)
	assert.NotEqual(t, tc.TraceID, tc.RequestID)
}

func TestNewTraceContext_KeepsRequestID(t *testing.T) {
	tc := NewTraceContext(context.Background(), "req-1")
	assert.Equal(t, "req-1", tc.RequestID)
}

func TestNewTraceContext_UsesSpanTraceID(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tc := NewTraceContext(ctx, "req-1")
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", tc.TraceID)
}

func TestTraceRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetTrace(ctx))
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithTrace(ctx, &TraceContext{TraceID: "t", RequestID: "r"})
	assert.Equal(t, "r", GetRequestID(ctx))
	assert.Equal(t, "t", GetTrace(ctx).TraceID)
}

func TestOperation(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetOperation(ctx))
	assert.Equal(t, "member.join", GetOperation(WithOperation(ctx, "member.join")))
}
