// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"mercator/internal/core/apperror"
	appctx "mercator/internal/core/context"
	"mercator/pkg/logger"
)

// Recovery middleware recovers from panics and converts them into a 500
// error envelope. The stack trace goes to the log, never to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				ctx := c.Request.Context()
				logger.Error(ctx, "panic recovered",
					"error", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				// Recovery sits outside ErrorHandler, so the panic has
				// already unwound past it: render the envelope here.
				appErr := apperror.NewInternal(fmt.Errorf("panic: %v", r))
				_ = c.Error(appErr)
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
						"code":    appErr.Code,
						"message": appErr.Message,
						"details": map[string]any{
							"request_id": appctx.GetRequestID(ctx),
						},
					})
				} else {
					c.Abort()
				}
			}
		}()
		c.Next()
	}
}
