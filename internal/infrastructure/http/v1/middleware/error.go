package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"txprop/internal/core/apperror"
	appctx "txprop/internal/core/context"
	"txprop/internal/core/tx"
	"txprop/internal/infrastructure/http/v1/dto"
	"txprop/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		appErr := ToAppError(c.Errors.Last().Err)
		if appErr.Err != nil {
			logger.Error(ctx, "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}

		details := appErr.Details
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			details = map[string]any{"request_id": appctx.GetRequestID(ctx)}
		}

		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		})
	}
}

// ToAppError maps err to the AppError returned to clients. Transaction
// sentinels take precedence over AppErrors further down the chain.
func ToAppError(err error) *apperror.AppError {
	switch {
	case errors.Is(err, tx.ErrUnexpectedRollback):
		return apperror.NewUnexpectedRollback(err)
	case errors.Is(err, tx.ErrResourceAcquisition):
		return apperror.NewUnavailable(err)
	case errors.Is(err, tx.ErrPropagationOrder),
		errors.Is(err, tx.ErrTransactionCompleted),
		errors.Is(err, tx.ErrNoTransaction):
		return apperror.NewTransactionState(err)
	}
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr
	}
	return apperror.NewInternal(err)
}
