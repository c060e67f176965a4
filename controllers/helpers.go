package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"review-publish-api/config"
	"review-publish-api/services"

	"github.com/gin-gonic/gin"
)

func getUserIDFromContext(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		switch t := v.(type) {
		case int:
			if t > 0 {
				return t, true
			}
		case int64:
			if t > 0 {
				return int(t), true
			}
		case string:
			if id, err := strconv.Atoi(t); err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}

// requestContext carries the authenticated user into the service layer.
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if userID, ok := getUserIDFromContext(c); ok {
		ctx = services.WithPrincipal(ctx, userID)
	}
	return ctx
}

func parseIDParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses and surfaces the message verbatim.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		config.Logger().Errorw("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
