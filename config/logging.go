package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogWriter is the writer used for application, request and database logs.
var LogWriter io.Writer = os.Stdout

var appLogger = zap.NewNop().Sugar()

// LogFilePath returns the path to the backend log file.
func LogFilePath() string {
	return filepath.Join("logs", "review-api.log")
}

// InitLogging prepares the log file and builds the shared zap logger on top of it.
func InitLogging() (*os.File, *zap.SugaredLogger) {
	logPath := filepath.Dir(LogFilePath())
	if err := os.MkdirAll(logPath, os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
	}

	logFile, err := os.OpenFile(LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		LogWriter = os.Stdout
		logFile = nil
	} else {
		LogWriter = io.MultiWriter(os.Stdout, logFile)
	}

	appLogger = NewLogger(os.Getenv("ENVIRONMENT"), LogWriter)
	log.SetOutput(LogWriter)
	return logFile, appLogger
}

// NewLogger builds a sugared zap logger writing to w. Production mode emits JSON at info level,
// anything else emits console output at debug level.
func NewLogger(mode string, w io.Writer) *zap.SugaredLogger {
	var (
		encoder zapcore.Encoder
		level   zapcore.Level
	)
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		level = zapcore.InfoLevel
	default:
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core, zap.AddCaller()).Sugar()
}

// Logger returns the process-wide logger. It is a no-op logger until InitLogging runs.
func Logger() *zap.SugaredLogger {
	return appLogger
}
