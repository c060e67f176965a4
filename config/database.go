package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB() {
	var err error

	// Configure GORM
	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	debugSQL := strings.ToLower(os.Getenv("DEBUG_SQL"))

	// In production, suppress SQL logs unless explicitly re-enabled via DEBUG_SQL=true.
	logLevel := logger.Info
	if environment == "production" && debugSQL != "true" {
		logLevel = logger.Warn
	}

	config := &gorm.Config{
		Logger: logger.New(
			zap.NewStdLog(Logger().Desugar()),
			logger.Config{LogLevel: logLevel, IgnoreRecordNotFoundError: true},
		),
		TranslateError: true,
	}

	DB, err = gorm.Open(dialector(), config)
	if err != nil {
		Logger().Fatalw("Failed to connect to database", "error", err)
	}

	Logger().Infow("Database connected successfully", "driver", DB.Dialector.Name())
}

func dialector() gorm.Dialector {
	if strings.ToLower(os.Getenv("DB_DRIVER")) == "sqlite" {
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "review-api.db"
		}
		return sqlite.Open(path)
	}

	// Get database credentials from environment variables
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		os.Getenv("DB_USERNAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_DATABASE"),
	)
	return mysql.Open(dsn)
}
