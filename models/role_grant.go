package models

import "time"

const (
	GrantRoleReviewer         = "reviewer"
	GrantRoleOrgAdmin         = "org_admin"
	GrantRoleCoalitionManager = "coalition_manager"
	GrantRoleSuperAdmin       = "super_admin"

	GrantScopeOrganization = "organization"
	GrantScopeCoalition    = "coalition"
	GrantScopePlatform     = "platform"

	GrantStatusActive   = "active"
	GrantStatusRevoked  = "revoked"
	GrantStatusInactive = "inactive"
)

// RoleGrant gives a user a role within a scope. Grants are revoked by status, never deleted.
type RoleGrant struct {
	GrantID   int       `gorm:"primaryKey;column:grant_id" json:"grant_id"`
	UserID    int       `gorm:"column:user_id;index" json:"user_id"`
	Role      string    `gorm:"column:role;size:32" json:"role"`
	ScopeType string    `gorm:"column:scope_type;size:32" json:"scope_type"`
	ScopeID   *int      `gorm:"column:scope_id" json:"scope_id,omitempty"`
	Status    string    `gorm:"column:status;size:16;default:active" json:"status"`
	GrantedBy *int      `gorm:"column:granted_by" json:"granted_by,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (RoleGrant) TableName() string {
	return "role_grants"
}

// IsActive reports whether the grant may authorize anything.
func (g *RoleGrant) IsActive() bool {
	return g.Status == GrantStatusActive
}
