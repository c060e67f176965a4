package routes

import (
	"review-publish-api/controllers"
	"review-publish-api/middleware"
	"review-publish-api/monitor"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Review Publish API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Reviewer evaluations
			applications := protected.Group("/applications")
			{
				applications.PUT("/:id/reviews", controllers.UpsertReview)
				applications.GET("/:id/reviews/mine", controllers.GetMyReview)
				applications.GET("/:id/reviews", controllers.GetApplicationReviews)
			}

			// Publishing and program workflow
			programs := protected.Group("/programs")
			{
				programs.GET("/:id/publish-queue", controllers.GetPublishQueue)
				programs.POST("/:id/publish", controllers.PublishAllFinalized)
				programs.POST("/:id/status", controllers.TransitionProgramStatus)
				programs.GET("/:id/status-history", controllers.GetProgramStatusHistory)
			}

			// Role grants (super admin only, enforced in the service)
			admin := protected.Group("/admin")
			{
				admin.POST("/grants", controllers.CreateRoleGrant)
				admin.POST("/grants/:id/revoke", controllers.RevokeRoleGrant)
			}

			monitor.RegisterMonitorRoutes(protected)
		}
	}
}
