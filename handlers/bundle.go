package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups the endpoint handlers and the middleware routes need.
type HandlerBundle struct {
	Specialists *SpecialistHandler
	Sessions    *SessionHandler
	Bookings    *BookingHandler
	Users       *UserHandler
	Insights    *InsightHandler
	Health      *HealthHandler

	// Auth rejects requests without a valid bearer token.
	Auth gin.HandlerFunc
	// RateLimit runs after Auth so authenticated callers are limited per user.
	RateLimit gin.HandlerFunc
}
