package middleware

import (
	"time"

	"aroti/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with a short id, exposes a request-scoped logger to
// handlers and logs the request once it completes.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()[:8]
		}
		c.Set(utils.RequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		reqLogger := logger.With(zap.String("requestId", requestID))
		c.Set(utils.LoggerKey, reqLogger)

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIp", c.ClientIP()),
		}
		if uid := c.GetString(utils.UserIDKey); uid != "" {
			fields = append(fields, zap.String("userId", uid))
		}
		switch {
		case c.Writer.Status() >= 500:
			reqLogger.Error("Request completed", fields...)
		case c.Writer.Status() >= 400:
			reqLogger.Warn("Request completed", fields...)
		default:
			reqLogger.Info("Request completed", fields...)
		}
	}
}
