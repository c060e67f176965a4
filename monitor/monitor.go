package monitor

import (
	"bufio"
	"errors"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"review-publish-api/config"
	"review-publish-api/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultLogLines = 200
	maxLogLines     = 5000
)

var startedAt = time.Now()

// RegisterMonitorRoutes mounts the operator endpoints. rg must already run AuthMiddleware.
func RegisterMonitorRoutes(rg *gin.RouterGroup) {
	mon := rg.Group("/monitor")
	mon.Use(requireSuperAdmin())
	mon.GET("/status", statusHandler)
	mon.GET("/logs", logsHandler)
}

func requireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("userID")
		if userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		access, err := services.NewAuthorizationService(nil, nil).ResolveAccess(c.Request.Context(), nil, userID)
		if err != nil {
			config.Logger().Errorw("resolve access for monitor", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Unable to resolve access"})
			return
		}
		if err := services.RequireSuperAdmin(access); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.Next()
	}
}

// GET /api/v1/monitor/status
func statusHandler(c *gin.Context) {
	dbStatus := "ok"
	if sqlDB, err := config.DB.DB(); err != nil {
		dbStatus = err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		"started_at":     startedAt.UTC(),
		"database":       dbStatus,
		"db_driver":      config.DB.Dialector.Name(),
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
	})
}

// GET /api/v1/monitor/logs?lines=N
func logsHandler(c *gin.Context) {
	lines := defaultLogLines
	if raw := c.Query("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid lines"})
			return
		}
		lines = n
	}
	if lines > maxLogLines {
		lines = maxLogLines
	}

	tail, err := tailFile(config.LogFilePath(), lines)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Log file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Unable to read log"})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", tail)
}

// tailFile returns the last n lines of path.
func tailFile(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, n)
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[count%n] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	start := 0
	kept := count
	if count > n {
		start = count % n
		kept = n
	}
	out := make([]byte, 0, kept*80)
	for i := 0; i < kept; i++ {
		out = append(out, ring[(start+i)%n]...)
		out = append(out, '\n')
	}
	return out, nil
}
