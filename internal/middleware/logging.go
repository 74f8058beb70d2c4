package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/ahlanjobb/api/internal/constants"
	apperrors "github.com/ahlanjobb/api/internal/errors"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/ahlanjobb/api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestResponseMiddleware logs every finished request and records the
// HTTP metrics. Request bodies are never logged.
func RequestResponseMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		ctx := c.Request.Context()
		fields := []zap.Field{
			zap.String("request_id", ctxutil.GetRequestID(ctx)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("status_code", status),
			zap.Duration("latency", latency),
			zap.Int("response_size", c.Writer.Size()),
		}
		if userID, ok := ctxutil.GetUserID(ctx); ok {
			fields = append(fields, zap.Uint("user_id", userID))
		}

		switch {
		case status >= 500:
			logger.GetLogger().Error("Server error", fields...)
		case status >= 400:
			logger.GetLogger().Warn("Client error", fields...)
		case latency > time.Second*2:
			logger.GetLogger().Warn("Slow request", fields...)
		default:
			logger.GetLogger().Info("Request completed", fields...)
		}
	}
}

// RecoveryMiddleware recovers from panics and logs them
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.LogPanic(recovered)

		c.AbortWithStatusJSON(500, constants.BuildCodedErrorResponse(apperrors.ErrInternal.Code, constants.MsgInternalError))
	})
}

// SecurityLoggingMiddleware logs scanner user agents and sign in attempts.
func SecurityLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		userAgent := c.Request.UserAgent()

		if isSuspiciousUserAgent(userAgent) {
			logger.GetLogger().Warn("Suspicious user agent detected",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", userAgent),
				zap.String("path", c.Request.URL.Path),
			)
		}

		if c.Request.URL.Path == "/api/auth/login" && c.Request.Method == "POST" {
			logger.GetLogger().Info("Login attempt",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", userAgent),
			)
		}

		c.Next()
	}
}

func isSuspiciousUserAgent(userAgent string) bool {
	suspiciousPatterns := []string{
		"sqlmap", "nikto", "nmap", "masscan", "burp", "scanner",
	}

	ua := strings.ToLower(userAgent)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}

	return false
}
