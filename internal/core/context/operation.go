// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

type operationKey struct{}

// WithOperation names the operation a call chain is executing
// (e.g. "member.join", a scenario name). It shows up in every log line.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationKey{}, name)
}

// GetOperation returns the operation name from context or empty string.
func GetOperation(ctx context.Context) string {
	if v, ok := ctx.Value(operationKey{}).(string); ok {
		return v
	}
	return ""
}
