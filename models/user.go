package models

import (
	"time"
)

// User is the principal table checked by the auth middleware.
type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Name      string     `gorm:"column:name;size:255" json:"name"`
	Email     string     `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}
