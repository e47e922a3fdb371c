package routes

import (
	"time"

	"aroti/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterCatalogRoutes registers specialist and review endpoints.
func RegisterCatalogRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/specialists", hb.Specialists.ListSpecialists)
	api.GET("/specialists/:id", hb.Specialists.GetSpecialist)
	api.GET("/reviews/:specialistId", hb.Specialists.ListReviews)
}

// RegisterSessionRoutes registers the caller's session endpoints, including synchronous booking.
func RegisterSessionRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	sessions := api.Group("/sessions")
	{
		sessions.GET("", hb.Sessions.ListSessions)
		sessions.POST("", hb.Bookings.CreateSession)
		sessions.GET("/:id", hb.Sessions.GetSession)
		sessions.PUT("/:id", hb.Sessions.RescheduleSession)
		sessions.DELETE("/:id", hb.Sessions.CancelSession)
	}
}

// RegisterBookingRoutes registers the queued booking endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bookings := api.Group("/bookings")
	{
		bookings.POST("", hb.Bookings.SubmitBooking)
		bookings.GET("/:id", hb.Bookings.GetBooking)
	}
}

// RegisterUserRoutes registers the caller's contact details, profile and account endpoints.
func RegisterUserRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/users/me", hb.Users.GetMe)
	api.PUT("/users/me", hb.Users.UpdateMe)

	user := api.Group("/user")
	{
		user.GET("/profile", hb.Users.GetProfile)
		user.PUT("/profile", hb.Users.UpdateProfile)
		user.DELETE("/account", hb.Users.DeleteAccount)
	}
}

// RegisterHomeRoutes registers the home screen content.
func RegisterHomeRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/daily-insights", hb.Insights.DailyInsights)
}

// RegisterHealthRoutes registers the unauthenticated health, readiness and metrics endpoints.
func RegisterHealthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health.Health)
	r.GET("/ready", hb.Health.Ready)
	r.GET("/metrics", hb.Health.Metrics())
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoutes(r, hb)

	api := r.Group("/api", hb.Auth, hb.RateLimit)
	RegisterCatalogRoutes(api, hb)
	RegisterSessionRoutes(api, hb)
	RegisterBookingRoutes(api, hb)
	RegisterUserRoutes(api, hb)
	RegisterHomeRoutes(api, hb)
}
