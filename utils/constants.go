// File: utils/constants.go
package utils

// Gin context keys shared by middleware and handlers.
const (
	RequestIDKey = "requestID"
	UserIDKey    = "userID"
	LoggerKey    = "logger"
)

// Date and time layouts used on the wire for sessions.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
