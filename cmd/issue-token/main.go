// Command issue-token mints a bearer token for an existing user. Intended for local
// development and smoke tests; login itself lives outside this service.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"review-publish-api/config"
	"review-publish-api/middleware"
	"review-publish-api/models"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var (
		userID int
		ttl    time.Duration
	)
	flag.IntVar(&userID, "user-id", 0, "user to issue the token for")
	flag.DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if userID <= 0 {
		log.Fatal("user-id is required")
	}

	config.InitDB()

	var user models.User
	if err := config.DB.Where("user_id = ? AND deleted_at IS NULL", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("user %d not found", userID)
		}
		log.Fatalf("failed to load user %d: %v", userID, err)
	}

	token, err := middleware.GenerateToken(user.UserID, user.Email, ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
