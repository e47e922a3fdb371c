package handlers

import (
	"aroti/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger returns the request-scoped logger set by the request middleware, or fallback.
func getLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if l, exists := c.Get(utils.LoggerKey); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return fallback
}

// userID is set by the bearer middleware on every protected route.
func userID(c *gin.Context) string {
	return c.GetString(utils.UserIDKey)
}
