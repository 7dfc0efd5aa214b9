// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"txprop/internal/core/apperror"
	appctx "txprop/internal/core/context"
	"txprop/internal/infrastructure/http/v1/dto"
	"txprop/pkg/logger"
)

// Recovery middleware recovers from panics and returns 500 error.
// Transactional code has already rolled back by the time a panic gets here.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := c.Request.Context()
				logger.Error(ctx, "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				// The panic unwound past ErrorHandler, so respond here.
				appErr := apperror.NewInternal(fmt.Errorf("panic: %v", err))
				_ = c.Error(appErr)
				c.AbortWithStatusJSON(appErr.HTTPStatus, dto.ErrorResponse{
					Code:    appErr.Code,
					Message: appErr.Message,
					Details: map[string]any{"request_id": appctx.GetRequestID(ctx)},
				})
			}
		}()
		c.Next()
	}
}
