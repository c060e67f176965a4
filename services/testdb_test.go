package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"review-publish-api/models"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start.UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// fixture seeds one coalition, two organizations, one program per organization and users with
// every kind of grant.
type fixture struct {
	db    *gorm.DB
	clock *fakeClock

	coalitionID int
	orgID       int
	otherOrgID  int
	programID   int
	otherProgID int
	appA        int
	appB        int

	superAdmin   int
	orgAdmin     int
	manager      int
	revokedAdmin int
	otherAdmin   int
	reviewer1    int
	reviewer2    int
}

func seedFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db, clock: newFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}

	mustCreate := func(value interface{}) {
		t.Helper()
		if err := db.Create(value).Error; err != nil {
			t.Fatalf("seed %T: %v", value, err)
		}
	}

	users := map[string]*int{
		"super":    &f.superAdmin,
		"admin":    &f.orgAdmin,
		"manager":  &f.manager,
		"revoked":  &f.revokedAdmin,
		"other":    &f.otherAdmin,
		"reviewer": &f.reviewer1,
		"second":   &f.reviewer2,
	}
	for _, key := range []string{"super", "admin", "manager", "revoked", "other", "reviewer", "second"} {
		u := models.User{Name: key, Email: key + "@example.org"}
		mustCreate(&u)
		*users[key] = u.UserID
	}

	coalition := models.Coalition{Name: "North Coalition"}
	mustCreate(&coalition)
	f.coalitionID = coalition.CoalitionID

	org := models.Organization{Name: "Arts Council", CoalitionID: &f.coalitionID}
	mustCreate(&org)
	f.orgID = org.OrganizationID

	other := models.Organization{Name: "Science Trust"}
	mustCreate(&other)
	f.otherOrgID = other.OrganizationID

	program := models.Program{OrganizationID: f.orgID, Name: "Spring Grants", ReviewStatus: models.ProgramStatusDraft}
	mustCreate(&program)
	f.programID = program.ProgramID

	otherProgram := models.Program{OrganizationID: f.otherOrgID, Name: "Lab Fellowships", ReviewStatus: models.ProgramStatusDraft}
	mustCreate(&otherProgram)
	f.otherProgID = otherProgram.ProgramID

	a := models.Application{ProgramID: f.programID, ApplicantID: 900, ApplicantName: "Ada"}
	mustCreate(&a)
	f.appA = a.ApplicationID
	b := models.Application{ProgramID: f.programID, ApplicantID: 901, ApplicantName: "Ben"}
	mustCreate(&b)
	f.appB = b.ApplicationID

	grant := func(userID int, role, scopeType string, scopeID *int, status string) {
		mustCreate(&models.RoleGrant{UserID: userID, Role: role, ScopeType: scopeType, ScopeID: scopeID, Status: status})
	}
	grant(f.superAdmin, models.GrantRoleSuperAdmin, models.GrantScopePlatform, nil, models.GrantStatusActive)
	grant(f.orgAdmin, models.GrantRoleOrgAdmin, models.GrantScopeOrganization, &f.orgID, models.GrantStatusActive)
	grant(f.manager, models.GrantRoleCoalitionManager, models.GrantScopeCoalition, &f.coalitionID, models.GrantStatusActive)
	grant(f.revokedAdmin, models.GrantRoleOrgAdmin, models.GrantScopeOrganization, &f.orgID, models.GrantStatusRevoked)
	grant(f.otherAdmin, models.GrantRoleOrgAdmin, models.GrantScopeOrganization, &f.otherOrgID, models.GrantStatusActive)
	grant(f.reviewer1, models.GrantRoleReviewer, models.GrantScopePlatform, nil, models.GrantStatusActive)

	return f
}

func (f *fixture) as(userID int) context.Context {
	return WithPrincipal(context.Background(), userID)
}

func (f *fixture) auth() *AuthorizationService {
	return NewAuthorizationService(f.db, zap.NewNop().Sugar())
}

func (f *fixture) reviews() *ReviewService {
	svc := NewReviewService(f.db, f.auth(), zap.NewNop().Sugar())
	svc.now = f.clock.Now
	return svc
}

func (f *fixture) staleness() *StalenessService {
	return NewStalenessService(f.db, zap.NewNop().Sugar())
}

func (f *fixture) publisher(writer PublicationWriter, notifier PublishNotifier) *PublishService {
	svc := NewPublishService(f.db, f.auth(), f.staleness(), writer, notifier, zap.NewNop().Sugar())
	svc.now = f.clock.Now
	return svc
}

func (f *fixture) programs() *ProgramStatusService {
	svc := NewProgramStatusService(f.db, f.auth(), zap.NewNop().Sugar())
	svc.now = f.clock.Now
	return svc
}

func (f *fixture) submit(t *testing.T, applicationID, reviewerID int, score float64) *models.ReviewRecord {
	t.Helper()
	review, err := f.reviews().UpsertReview(f.as(reviewerID), UpsertReviewInput{
		ApplicationID: applicationID,
		Ratings:       map[string]interface{}{"impact": score},
		Score:         &score,
		Status:        "submitted",
	})
	if err != nil {
		t.Fatalf("submit review app=%d reviewer=%d: %v", applicationID, reviewerID, err)
	}
	return review
}

func boolPtr(v bool) *bool {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func fullVisibility() VisibilityInput {
	return VisibilityInput{Decision: boolPtr(true), Score: boolPtr(true), Comments: boolPtr(false)}
}
