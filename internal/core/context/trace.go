package context

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceContext identifies one request across logs and spans.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext builds the TraceContext for a request. The trace ID is
// taken from the active span when there is one. An empty requestID is
// replaced by a generated one.
func NewTraceContext(ctx context.Context, requestID string) *TraceContext {
	tc := &TraceContext{RequestID: requestID}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		tc.TraceID = sc.TraceID().String()
	} else {
		tc.TraceID = uuid.NewString()
	}
	if tc.RequestID == "" {
		tc.RequestID = uuid.NewString()
	}
	return tc
}
