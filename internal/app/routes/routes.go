package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ekene/classpulse/internal/app/controllers"
	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	attendanceController *controllers.AttendanceController,
	notificationController *controllers.NotificationController,
	healthController *controllers.HealthController,
	authMiddleware *middleware.AuthMiddleware,
	checkInLimiter *middleware.RateLimiter,
) {
	// Operational endpoints live outside the API version group.
	router.GET("/healthz", healthController.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	// Students validate a code before committing to a scan; no token needed.
	v1.GET("/attendance/session/:code", attendanceController.ValidateSession)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", authController.Profile)

		attendance := authenticated.Group("/attendance")
		{
			// Check-in endpoints take the burst of a lecture hall scanning
			// at once; the limiter caps abuse without blocking that.
			attendance.POST("/check-in", checkInLimiter.Handler(), attendanceController.CheckIn)
			attendance.POST("/mark", checkInLimiter.Handler(), attendanceController.Mark)

			staffOnly := attendance.Group("")
			staffOnly.Use(authMiddleware.RoleRequired(string(models.RoleLecturer), string(models.RoleAdmin)))
			{
				staffOnly.POST("/generate-session", attendanceController.GenerateSession)
				staffOnly.GET("/active-session", attendanceController.ActiveSession)
				staffOnly.GET("/lecturer/:lecturerId", attendanceController.Dashboard)
				staffOnly.DELETE("/reset", attendanceController.Reset)
			}
		}

		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", notificationController.List)
			notifications.PATCH("/:id/read", notificationController.MarkRead)
		}
	}
}
