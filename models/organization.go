package models

import "time"

// Coalition groups organizations under one manager scope.
type Coalition struct {
	CoalitionID int       `gorm:"primaryKey;column:coalition_id" json:"coalition_id"`
	Name        string    `gorm:"column:name;size:255" json:"name"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// Organization owns programs. CoalitionID is set when the organization belongs to a coalition.
type Organization struct {
	OrganizationID int       `gorm:"primaryKey;column:organization_id" json:"organization_id"`
	Name           string    `gorm:"column:name;size:255" json:"name"`
	CoalitionID    *int      `gorm:"column:coalition_id;index" json:"coalition_id,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`

	Coalition *Coalition `gorm:"foreignKey:CoalitionID" json:"coalition,omitempty"`
}

func (Coalition) TableName() string {
	return "coalitions"
}

func (Organization) TableName() string {
	return "organizations"
}
