package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ReviewStatus is the finalization state of one reviewer's evaluation.
type ReviewStatus string

const (
	ReviewStatusDraft     ReviewStatus = "draft"
	ReviewStatusSubmitted ReviewStatus = "submitted"
)

// LegacyDecisionKey is the ratings key older clients stored the decision under.
const LegacyDecisionKey = "decision"

// ReviewRecord is one reviewer's evaluation of one application. There is exactly one row per
// (application_id, reviewer_id).
type ReviewRecord struct {
	ReviewID      int               `gorm:"primaryKey;column:review_id" json:"review_id"`
	ApplicationID int               `gorm:"column:application_id;not null;uniqueIndex:uq_review_application_reviewer,priority:1" json:"application_id"`
	ReviewerID    int               `gorm:"column:reviewer_id;not null;uniqueIndex:uq_review_application_reviewer,priority:2" json:"reviewer_id"`
	Ratings       datatypes.JSONMap `gorm:"column:ratings" json:"ratings"`
	Comments      string            `gorm:"column:comments;type:text" json:"comments"`
	Score         *float64          `gorm:"column:score" json:"score"`
	Status        ReviewStatus      `gorm:"column:status;size:16;not null;default:draft" json:"status"`
	Decision      *string           `gorm:"column:decision;size:64" json:"decision"`
	SubmittedAt   *time.Time        `gorm:"column:submitted_at" json:"submitted_at"`
	CreatedAt     time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (ReviewRecord) TableName() string {
	return "review_records"
}

// FinalizedAt is submitted_at when present, otherwise updated_at.
func (r *ReviewRecord) FinalizedAt() time.Time {
	if r.SubmittedAt != nil {
		return *r.SubmittedAt
	}
	return r.UpdatedAt
}

// ResolvedDecision prefers the decision column and falls back to the legacy ratings key.
func (r *ReviewRecord) ResolvedDecision() *string {
	return ResolveDecision(r.Decision, r.Ratings)
}

// ResolveDecision returns field when it is non-empty, else the string stored in
// ratings[LegacyDecisionKey], else nil.
func ResolveDecision(field *string, ratings map[string]interface{}) *string {
	if field != nil && strings.TrimSpace(*field) != "" {
		v := *field
		return &v
	}
	if ratings == nil {
		return nil
	}
	raw, ok := ratings[LegacyDecisionKey]
	if !ok || raw == nil {
		return nil
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
