package models

import "time"

// ProgramStatusHistory tracks review status changes for programs.
type ProgramStatusHistory struct {
	HistoryID int                 `gorm:"primaryKey;column:history_id" json:"history_id"`
	ProgramID int                 `gorm:"column:program_id;index" json:"program_id"`
	OldStatus ProgramReviewStatus `gorm:"column:old_status;size:32" json:"old_status"`
	NewStatus ProgramReviewStatus `gorm:"column:new_status;size:32" json:"new_status"`
	Action    string              `gorm:"column:action;size:32" json:"action"`
	ChangedBy int                 `gorm:"column:changed_by" json:"changed_by"`
	Note      *string             `gorm:"column:note" json:"note"`
	CreatedAt time.Time           `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table for ProgramStatusHistory.
func (ProgramStatusHistory) TableName() string {
	return "program_status_history"
}
