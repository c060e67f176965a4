package controllers

import (
	"net/http"

	"review-publish-api/services"

	"github.com/gin-gonic/gin"
)

type upsertReviewRequest struct {
	Ratings  map[string]interface{} `json:"ratings"`
	Comments string                 `json:"comments"`
	Score    *float64               `json:"score"`
	Status   string                 `json:"status"`
	Decision *string                `json:"decision"`
}

// PUT /api/v1/applications/:id/reviews
func UpsertReview(c *gin.Context) {
	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req upsertReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	svc := services.NewReviewService(nil, nil, nil)
	review, err := svc.UpsertReview(requestContext(c), services.UpsertReviewInput{
		ApplicationID: applicationID,
		Ratings:       req.Ratings,
		Comments:      req.Comments,
		Score:         req.Score,
		Status:        req.Status,
		Decision:      req.Decision,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
}

// GET /api/v1/applications/:id/reviews/mine
func GetMyReview(c *gin.Context) {
	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewReviewService(nil, nil, nil)
	review, err := svc.GetReview(requestContext(c), applicationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
}

// GET /api/v1/applications/:id/reviews
func GetApplicationReviews(c *gin.Context) {
	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewReviewService(nil, nil, nil)
	reviews, err := svc.ListReviewsForApplication(requestContext(c), applicationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "reviews": reviews, "total": len(reviews)})
}
