// Command migrate creates or updates the review/publication schema.
package main

import (
	"log"

	"review-publish-api/config"
	"review-publish-api/models"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	_, logger := config.InitLogging()
	defer logger.Sync()

	// Initialize database
	config.InitDB()

	if err := models.AutoMigrate(config.DB); err != nil {
		logger.Fatalw("Schema migration failed", "error", err)
	}

	logger.Infow("Schema migration completed", "tables", len(models.All()))
}
