package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/ahlanjobb/api/internal/constants"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextMiddleware stamps every request with a request id, the caller
// address and a start time, and echoes the id in X-Request-ID.
func ContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.WithRequestInfo(c.Request.Context(), requestID, c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Set(constants.GinKeyRequestID, requestID)
		c.Header(constants.HeaderXRequestID, requestID)

		logger.DebugWithContext(ctx, "Request started").
			Method(c.Request.Method).
			Path(c.Request.URL.Path).
			Log()

		c.Next()
	}
}

// RequestTimeoutMiddleware bounds the request context by timeout.
func RequestTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		select {
		case <-ctx.Done():
			logger.WarnWithContext(ctx, "Request timeout before processing").
				Duration(timeout).
				Log()
			c.AbortWithStatusJSON(http.StatusRequestTimeout, constants.BuildErrorResponse("Request timeout", timeout.String()))
			return
		default:
			c.Next()
		}
	}
}
