package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "txprop/internal/core/context"
	"txprop/pkg/logger"
)

const HeaderRequestID = "X-Request-ID"
const HeaderTraceID = "X-Trace-ID"

// Trace attaches a TraceContext and the request logger to the request
// context, so everything logged below (including coordinator debug lines)
// carries the request and trace IDs.
func Trace(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		trace := appctx.NewTraceContext(ctx, c.GetHeader(HeaderRequestID))

		ctx = appctx.WithTrace(ctx, trace)
		ctx = appctx.WithOperation(ctx, c.Request.Method+" "+c.FullPath())
		if log != nil {
			ctx = logger.WithLogger(ctx, log)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()
	}
}
