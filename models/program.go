package models

import "time"

// ProgramReviewStatus is the review/publication state of a program.
type ProgramReviewStatus string

const (
	ProgramStatusDraft            ProgramReviewStatus = "draft"
	ProgramStatusSubmitted        ProgramReviewStatus = "submitted"
	ProgramStatusPendingChanges   ProgramReviewStatus = "pending_changes"
	ProgramStatusChangesRequested ProgramReviewStatus = "changes_requested"
	ProgramStatusPublished        ProgramReviewStatus = "published"
	ProgramStatusUnpublished      ProgramReviewStatus = "unpublished"
)

// Valid reports whether s is one of the known program states.
func (s ProgramReviewStatus) Valid() bool {
	switch s {
	case ProgramStatusDraft, ProgramStatusSubmitted, ProgramStatusPendingChanges,
		ProgramStatusChangesRequested, ProgramStatusPublished, ProgramStatusUnpublished:
		return true
	}
	return false
}

// Program is an evaluation program run by one organization.
type Program struct {
	ProgramID        int                 `gorm:"primaryKey;column:program_id" json:"program_id"`
	OrganizationID   int                 `gorm:"column:organization_id;index" json:"organization_id"`
	Name             string              `gorm:"column:name;size:255" json:"name"`
	ReviewStatus     ProgramReviewStatus `gorm:"column:review_status;size:32;default:draft" json:"review_status"`
	ReviewNote       *string             `gorm:"column:review_note" json:"review_note,omitempty"`
	RequiresApproval bool                `gorm:"column:requires_approval" json:"requires_approval"`
	CreatedAt        time.Time           `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"column:updated_at" json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Program) TableName() string {
	return "programs"
}
