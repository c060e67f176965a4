package controllers

import (
	"net/http"

	"review-publish-api/services"

	"github.com/gin-gonic/gin"
)

// POST /api/v1/admin/grants
func CreateRoleGrant(c *gin.Context) {
	var req struct {
		UserID    int    `json:"user_id" binding:"required"`
		Role      string `json:"role" binding:"required"`
		ScopeType string `json:"scope_type"`
		ScopeID   *int   `json:"scope_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	svc := services.NewAuthorizationService(nil, nil)
	grant, err := svc.GrantRole(requestContext(c), services.GrantInput{
		UserID:    req.UserID,
		Role:      req.Role,
		ScopeType: req.ScopeType,
		ScopeID:   req.ScopeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "grant": grant})
}

// POST /api/v1/admin/grants/:id/revoke
func RevokeRoleGrant(c *gin.Context) {
	grantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewAuthorizationService(nil, nil)
	grant, err := svc.RevokeGrant(requestContext(c), grantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "grant": grant})
}
