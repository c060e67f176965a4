package main

import (
	"log"
	"os"

	"review-publish-api/config"
	"review-publish-api/controllers"
	"review-publish-api/middleware"
	"review-publish-api/routes"
	"review-publish-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, logger := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	defer logger.Sync()

	// Initialize database
	config.InitDB()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = config.LogWriter

	// Create Gin router
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	router.Use(middleware.CORSMiddleware())

	if config.MailConfigured() {
		controllers.PublishNotifier = services.NewMailPublishNotifier(config.DB, logger)
	} else {
		logger.Infow("SMTP not configured, publish receipts disabled")
	}

	// Setup routes
	routes.SetupRoutes(router)

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	logger.Infow("Server starting", "port", port, "gin_mode", gin.Mode())

	if err := router.Run(":" + port); err != nil {
		logger.Fatalw("Failed to start server", "error", err)
	}
}
