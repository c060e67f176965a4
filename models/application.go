package models

import "time"

// Application is the subject under review. CurrentPublicationID points at the publication
// applicants currently see, if any.
type Application struct {
	ApplicationID        int       `gorm:"primaryKey;column:application_id" json:"application_id"`
	ProgramID            int       `gorm:"column:program_id;index" json:"program_id"`
	ApplicantID          int       `gorm:"column:applicant_id;index" json:"applicant_id"`
	ApplicantName        string    `gorm:"column:applicant_name;size:255" json:"applicant_name"`
	CurrentPublicationID *int      `gorm:"column:current_publication_id" json:"current_publication_id,omitempty"`
	CreatedAt            time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at" json:"updated_at"`

	Program            *Program           `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
	CurrentPublication *PublicationRecord `gorm:"foreignKey:CurrentPublicationID" json:"current_publication,omitempty"`
}

func (Application) TableName() string {
	return "applications"
}
