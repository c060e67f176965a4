package controllers

import (
	"net/http"
	"time"

	"review-publish-api/services"

	"github.com/gin-gonic/gin"
)

// PublishNotifier receives committed publish batches. It is nil unless SMTP is configured.
var PublishNotifier services.PublishNotifier

type publishRequest struct {
	Visibility      *services.VisibilityInput `json:"visibility" binding:"required"`
	OnlyUnpublished *bool                     `json:"only_unpublished"`
	AcceptanceTag   *string                   `json:"acceptance_tag"`
	ClaimDeadline   *time.Time                `json:"claim_deadline"`
}

// GET /api/v1/programs/:id/publish-queue
func GetPublishQueue(c *gin.Context) {
	programID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := requestContext(c)

	auth := services.NewAuthorizationService(nil, nil)
	if _, _, err := auth.AuthorizeProgram(ctx, nil, programID); err != nil {
		respondError(c, err)
		return
	}

	svc := services.NewStalenessService(nil, nil)
	queue, err := svc.GetPublishQueue(ctx, programID)
	if err != nil {
		respondError(c, err)
		return
	}

	pending := 0
	for _, entry := range queue {
		if !entry.AlreadyPublished {
			pending++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"queue":   queue,
		"total":   len(queue),
		"pending": pending,
	})
}

// POST /api/v1/programs/:id/publish
func PublishAllFinalized(c *gin.Context) {
	programID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	svc := services.NewPublishService(nil, nil, nil, nil, PublishNotifier, nil)
	records, err := svc.PublishAllFinalized(requestContext(c), services.PublishRequest{
		ProgramID:       programID,
		Visibility:      *req.Visibility,
		OnlyUnpublished: req.OnlyUnpublished,
		AcceptanceTag:   req.AcceptanceTag,
		ClaimDeadline:   req.ClaimDeadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"publications": records,
		"total":        len(records),
	})
}
