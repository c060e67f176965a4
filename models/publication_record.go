package models

import (
	"time"

	"gorm.io/datatypes"
)

// Visibility controls which parts of the evaluation an applicant can see.
type Visibility struct {
	Decision      bool    `json:"decision"`
	Score         bool    `json:"score"`
	Comments      bool    `json:"comments"`
	CustomMessage *string `json:"customMessage"`
}

// PublicationRecord is a published result for one application.
type PublicationRecord struct {
	PublicationID int                            `gorm:"primaryKey;column:publication_id" json:"publication_id"`
	ApplicationID int                            `gorm:"column:application_id;index" json:"application_id"`
	BatchID       string                         `gorm:"column:batch_id;size:36;index" json:"batch_id"`
	PublishedBy   int                            `gorm:"column:published_by" json:"published_by"`
	PublishedAt   time.Time                      `gorm:"column:published_at" json:"published_at"`
	UnpublishedAt *time.Time                     `gorm:"column:unpublished_at" json:"unpublished_at,omitempty"`
	Visibility    datatypes.JSONType[Visibility] `gorm:"column:visibility" json:"visibility"`
	AcceptanceTag *string                        `gorm:"column:acceptance_tag;size:64" json:"acceptance_tag,omitempty"`
	ClaimDeadline *time.Time                     `gorm:"column:claim_deadline" json:"claim_deadline,omitempty"`
	CreatedAt     time.Time                      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time                      `gorm:"column:updated_at" json:"updated_at"`
}

func (PublicationRecord) TableName() string {
	return "publication_records"
}
