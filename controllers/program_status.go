package controllers

import (
	"net/http"

	"review-publish-api/services"

	"github.com/gin-gonic/gin"
)

// POST /api/v1/programs/:id/status
func TransitionProgramStatus(c *gin.Context) {
	programID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Action string  `json:"action" binding:"required"`
		Note   *string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	svc := services.NewProgramStatusService(nil, nil, nil)
	program, err := svc.TransitionProgram(requestContext(c), programID, req.Action, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "program": program})
}

// GET /api/v1/programs/:id/status-history
func GetProgramStatusHistory(c *gin.Context) {
	programID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewProgramStatusService(nil, nil, nil)
	history, err := svc.ProgramHistory(requestContext(c), programID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "history": history, "total": len(history)})
}
