package services

import (
	"context"
	"fmt"
	"strings"

	"review-publish-api/config"
	"review-publish-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Role is the resolved form of a grant row. Business logic switches on these types instead of
// raw role and scope strings.
type Role interface {
	RoleName() string
}

type ApplicantRole struct{}

type ReviewerRole struct{}

type OrgAdminRole struct {
	OrganizationID int
}

type CoalitionManagerRole struct {
	CoalitionID int
}

type SuperAdminRole struct{}

func (ApplicantRole) RoleName() string        { return "applicant" }
func (ReviewerRole) RoleName() string         { return models.GrantRoleReviewer }
func (OrgAdminRole) RoleName() string         { return models.GrantRoleOrgAdmin }
func (CoalitionManagerRole) RoleName() string { return models.GrantRoleCoalitionManager }
func (SuperAdminRole) RoleName() string       { return models.GrantRoleSuperAdmin }

// Access is the set of roles a principal holds, computed once per request.
type Access struct {
	UserID int
	Roles  []Role
}

// IsSuperAdmin reports whether the principal holds the platform-wide role.
func (a *Access) IsSuperAdmin() bool {
	if a == nil {
		return false
	}
	for _, role := range a.Roles {
		if _, ok := role.(SuperAdminRole); ok {
			return true
		}
	}
	return false
}

// CanManage reports whether the principal is authorized for resources owned by org.
func (a *Access) CanManage(org *models.Organization) bool {
	if a == nil || org == nil {
		return false
	}
	for _, role := range a.Roles {
		switch r := role.(type) {
		case SuperAdminRole:
			return true
		case OrgAdminRole:
			if r.OrganizationID == org.OrganizationID {
				return true
			}
		case CoalitionManagerRole:
			if org.CoalitionID != nil && r.CoalitionID == *org.CoalitionID {
				return true
			}
		}
	}
	return false
}

// RoleNames lists the resolved role names, mostly for logs and API responses.
func (a *Access) RoleNames() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Roles))
	for _, role := range a.Roles {
		names = append(names, role.RoleName())
	}
	return names
}

// GrantInput describes a new role grant.
type GrantInput struct {
	UserID    int
	Role      string
	ScopeType string
	ScopeID   *int
}

type AuthorizationService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewAuthorizationService(db *gorm.DB, log *zap.SugaredLogger) *AuthorizationService {
	if db == nil {
		db = config.DB
	}
	if log == nil {
		log = config.Logger()
	}
	return &AuthorizationService{db: db, log: log.With("service", "AuthorizationService")}
}

func (s *AuthorizationService) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = s.db
	}
	return tx.WithContext(ctx)
}

// ResolveAccess loads the principal's active grants and turns them into roles. Revoked and
// inactive grants are ignored. A principal without grants is an applicant.
func (s *AuthorizationService) ResolveAccess(ctx context.Context, tx *gorm.DB, userID int) (*Access, error) {
	var grants []models.RoleGrant
	if err := s.conn(ctx, tx).
		Where("user_id = ? AND status = ?", userID, models.GrantStatusActive).
		Order("grant_id ASC").
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("load role grants: %w", err)
	}

	access := &Access{UserID: userID}
	for i := range grants {
		role, ok := roleFromGrant(&grants[i])
		if !ok {
			s.log.Warnw("ignoring malformed role grant",
				"grant_id", grants[i].GrantID,
				"role", grants[i].Role,
				"scope_type", grants[i].ScopeType,
			)
			continue
		}
		access.Roles = append(access.Roles, role)
	}
	if len(access.Roles) == 0 {
		access.Roles = []Role{ApplicantRole{}}
	}
	return access, nil
}

func roleFromGrant(g *models.RoleGrant) (Role, bool) {
	if !g.IsActive() {
		return nil, false
	}
	switch strings.TrimSpace(g.Role) {
	case models.GrantRoleSuperAdmin:
		return SuperAdminRole{}, true
	case models.GrantRoleReviewer:
		return ReviewerRole{}, true
	case models.GrantRoleOrgAdmin:
		if g.ScopeType != models.GrantScopeOrganization || g.ScopeID == nil {
			return nil, false
		}
		return OrgAdminRole{OrganizationID: *g.ScopeID}, true
	case models.GrantRoleCoalitionManager:
		if g.ScopeType != models.GrantScopeCoalition || g.ScopeID == nil {
			return nil, false
		}
		return CoalitionManagerRole{CoalitionID: *g.ScopeID}, true
	}
	return nil, false
}

// OrganizationForProgram resolves the organization owning programID.
func (s *AuthorizationService) OrganizationForProgram(ctx context.Context, tx *gorm.DB, programID int) (*models.Organization, error) {
	var program models.Program
	if err := s.conn(ctx, tx).
		Preload("Organization").
		Where("program_id = ?", programID).
		First(&program).Error; err != nil {
		return nil, translateNotFound(err, "program %d", programID)
	}
	if program.Organization == nil {
		return nil, notFound("organization of program %d", programID)
	}
	return program.Organization, nil
}

// AuthorizeOrganization fails with ErrForbidden unless access covers org.
func (s *AuthorizationService) AuthorizeOrganization(access *Access, org *models.Organization) error {
	if access.CanManage(org) {
		return nil
	}
	return forbidden("user %d has no active grant for organization %d", access.UserID, org.OrganizationID)
}

// AuthorizeProgram resolves the principal, the program's organization and the principal's
// access, and checks that the principal may manage the program.
func (s *AuthorizationService) AuthorizeProgram(ctx context.Context, tx *gorm.DB, programID int) (*Access, *models.Organization, error) {
	userID, err := requirePrincipal(ctx)
	if err != nil {
		return nil, nil, err
	}
	org, err := s.OrganizationForProgram(ctx, tx, programID)
	if err != nil {
		return nil, nil, err
	}
	access, err := s.ResolveAccess(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.AuthorizeOrganization(access, org); err != nil {
		s.log.Infow("program access denied", "user_id", userID, "program_id", programID, "roles", access.RoleNames())
		return nil, nil, err
	}
	return access, org, nil
}

// RequireSuperAdmin fails with ErrForbidden unless access holds the platform role.
func RequireSuperAdmin(access *Access) error {
	if access.IsSuperAdmin() {
		return nil
	}
	userID := 0
	if access != nil {
		userID = access.UserID
	}
	return forbidden("user %d is not a super admin", userID)
}

// GrantRole creates an active grant. Only super admins may grant roles.
func (s *AuthorizationService) GrantRole(ctx context.Context, input GrantInput) (*models.RoleGrant, error) {
	actorID, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	grant := &models.RoleGrant{
		UserID:    input.UserID,
		Role:      strings.TrimSpace(input.Role),
		ScopeType: strings.TrimSpace(input.ScopeType),
		ScopeID:   input.ScopeID,
		Status:    models.GrantStatusActive,
		GrantedBy: &actorID,
	}
	if grant.ScopeType == "" {
		grant.ScopeType = defaultScopeType(grant.Role)
	}
	if input.UserID <= 0 {
		return nil, invalid("user_id is required")
	}
	if _, ok := roleFromGrant(grant); !ok {
		return nil, invalid("role %q with scope %q is not a valid grant", grant.Role, grant.ScopeType)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		access, err := s.ResolveAccess(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := RequireSuperAdmin(access); err != nil {
			return err
		}
		return tx.Create(grant).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("role granted", "grant_id", grant.GrantID, "user_id", grant.UserID, "role", grant.Role, "granted_by", actorID)
	return grant, nil
}

// RevokeGrant flips a grant to revoked. The row stays for audit.
func (s *AuthorizationService) RevokeGrant(ctx context.Context, grantID int) (*models.RoleGrant, error) {
	actorID, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	var grant models.RoleGrant
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		access, err := s.ResolveAccess(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := RequireSuperAdmin(access); err != nil {
			return err
		}
		if err := tx.Where("grant_id = ?", grantID).First(&grant).Error; err != nil {
			return translateNotFound(err, "grant %d", grantID)
		}
		if grant.Status == models.GrantStatusRevoked {
			return nil
		}
		grant.Status = models.GrantStatusRevoked
		return tx.Model(&grant).Update("status", models.GrantStatusRevoked).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("role revoked", "grant_id", grant.GrantID, "user_id", grant.UserID, "revoked_by", actorID)
	return &grant, nil
}

func defaultScopeType(role string) string {
	switch role {
	case models.GrantRoleOrgAdmin:
		return models.GrantScopeOrganization
	case models.GrantRoleCoalitionManager:
		return models.GrantScopeCoalition
	default:
		return models.GrantScopePlatform
	}
}
