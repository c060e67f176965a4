package models

import "gorm.io/gorm"

// All lists every table owned by the service in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Coalition{},
		&Organization{},
		&Program{},
		&ProgramStatusHistory{},
		&PublicationRecord{},
		&Application{},
		&ReviewRecord{},
		&RoleGrant{},
	}
}

// AutoMigrate creates or updates the schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
