package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"review-publish-api/config"
	"review-publish-api/models"
	"review-publish-api/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertReviewInput is one reviewer save. ReviewerID defaults to the calling principal.
// A nil Decision keeps whatever decision is already stored.
type UpsertReviewInput struct {
	ApplicationID int
	ReviewerID    int
	Ratings       map[string]interface{}
	Comments      string
	Score         *float64
	Status        string
	Decision      *string
}

type ReviewService struct {
	db   *gorm.DB
	auth *AuthorizationService
	log  *zap.SugaredLogger
	now  func() time.Time
}

func NewReviewService(db *gorm.DB, auth *AuthorizationService, log *zap.SugaredLogger) *ReviewService {
	if db == nil {
		db = config.DB
	}
	if log == nil {
		log = config.Logger()
	}
	if auth == nil {
		auth = NewAuthorizationService(db, log)
	}
	return &ReviewService{
		db:   db,
		auth: auth,
		log:  log.With("service", "ReviewService"),
		now:  utcNow,
	}
}

// UpsertReview creates or updates the review keyed by (application, reviewer) with a single
// INSERT ... ON CONFLICT statement and returns the stored row.
//
// submitted_at is stamped on insert when the status is submitted, and on update only when the
// stored status is not yet submitted. Reverting to draft leaves it in place so a later
// resubmission is seen as a new finalization.
func (s *ReviewService) UpsertReview(ctx context.Context, input UpsertReviewInput) (*models.ReviewRecord, error) {
	principalID, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	status, ok := utils.NormalizeReviewStatus(input.Status)
	if !ok {
		return nil, invalid("status %q must be draft or submitted", input.Status)
	}
	if input.ApplicationID <= 0 {
		return nil, invalid("application_id is required")
	}

	reviewerID := input.ReviewerID
	if reviewerID == 0 {
		reviewerID = principalID
	}

	now := s.now()
	ratings := make(map[string]interface{}, len(input.Ratings)+1)
	for k, v := range input.Ratings {
		ratings[k] = v
	}
	decision := utils.SanitizeOptional(input.Decision)
	if decision != nil {
		ratings[models.LegacyDecisionKey] = *decision
	}

	record := models.ReviewRecord{
		ApplicationID: input.ApplicationID,
		ReviewerID:    reviewerID,
		Ratings:       datatypes.JSONMap(ratings),
		Comments:      utils.SanitizeInput(input.Comments),
		Score:         input.Score,
		Status:        status,
		Decision:      decision,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == models.ReviewStatusSubmitted {
		record.SubmittedAt = &now
	}

	var saved models.ReviewRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if reviewerID != principalID {
			access, err := s.auth.ResolveAccess(ctx, tx, principalID)
			if err != nil {
				return err
			}
			if !access.IsSuperAdmin() {
				return forbidden("user %d cannot write reviews for reviewer %d", principalID, reviewerID)
			}
		}

		var app models.Application
		if err := tx.Select("application_id").
			Where("application_id = ?", input.ApplicationID).
			First(&app).Error; err != nil {
			return translateNotFound(err, "application %d", input.ApplicationID)
		}

		if err := tx.Clauses(reviewUpsertClause(tx)).Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: review for application %d reviewer %d", ErrConflict, input.ApplicationID, reviewerID)
			}
			return fmt.Errorf("upsert review: %w", err)
		}

		return tx.Where("application_id = ? AND reviewer_id = ?", input.ApplicationID, reviewerID).
			First(&saved).Error
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.log.Errorw("review upsert raced past the unique key",
				"application_id", input.ApplicationID,
				"reviewer_id", reviewerID,
				"error", err,
			)
		}
		return nil, err
	}

	s.log.Infow("review saved",
		"review_id", saved.ReviewID,
		"application_id", saved.ApplicationID,
		"reviewer_id", saved.ReviewerID,
		"status", saved.Status,
	)
	return &saved, nil
}

// reviewUpsertClause builds the ON CONFLICT clause for review_records. MySQL reads the proposed
// row through VALUES(col), SQLite and Postgres through excluded.col. Assignments run in order,
// so submitted_at must be computed before status is overwritten and decision before ratings.
// A save without a decision keeps the stored one, including a decision that only exists under
// the legacy ratings key.
func reviewUpsertClause(db *gorm.DB) clause.OnConflict {
	incoming := func(column string) string {
		if db.Dialector.Name() == "mysql" {
			return "VALUES(" + column + ")"
		}
		return "excluded." + column
	}
	existing := func(column string) string {
		return models.ReviewRecord{}.TableName() + "." + column
	}
	// Rows written by older clients keep the decision only inside ratings.
	var legacyDecision string
	switch db.Dialector.Name() {
	case "mysql":
		legacyDecision = fmt.Sprintf("NULLIF(JSON_UNQUOTE(JSON_EXTRACT(%s, '$.%s')), 'null')", existing("ratings"), models.LegacyDecisionKey)
	case "postgres":
		legacyDecision = fmt.Sprintf("(%s ->> '%s')", existing("ratings"), models.LegacyDecisionKey)
	default:
		legacyDecision = fmt.Sprintf("json_extract(%s, '$.%s')", existing("ratings"), models.LegacyDecisionKey)
	}

	return clause.OnConflict{
		Columns: []clause.Column{{Name: "application_id"}, {Name: "reviewer_id"}},
		DoUpdates: clause.Set{
			{
				Column: clause.Column{Name: "submitted_at"},
				Value: gorm.Expr(
					fmt.Sprintf("CASE WHEN %s = ? AND %s <> ? THEN %s ELSE %s END",
						incoming("status"), existing("status"), incoming("submitted_at"), existing("submitted_at")),
					string(models.ReviewStatusSubmitted), string(models.ReviewStatusSubmitted),
				),
			},
			{
				Column: clause.Column{Name: "decision"},
				Value: gorm.Expr(fmt.Sprintf("COALESCE(%s, %s, NULLIF(%s, ''))",
					incoming("decision"), existing("decision"), legacyDecision)),
			},
			{Column: clause.Column{Name: "ratings"}, Value: gorm.Expr(incoming("ratings"))},
			{Column: clause.Column{Name: "comments"}, Value: gorm.Expr(incoming("comments"))},
			{Column: clause.Column{Name: "score"}, Value: gorm.Expr(incoming("score"))},
			{Column: clause.Column{Name: "status"}, Value: gorm.Expr(incoming("status"))},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr(incoming("updated_at"))},
		},
	}
}

// GetReview returns the caller's own review for an application.
func (s *ReviewService) GetReview(ctx context.Context, applicationID int) (*models.ReviewRecord, error) {
	principalID, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	var review models.ReviewRecord
	if err := s.db.WithContext(ctx).
		Where("application_id = ? AND reviewer_id = ?", applicationID, principalID).
		First(&review).Error; err != nil {
		return nil, translateNotFound(err, "review for application %d", applicationID)
	}
	return &review, nil
}

// ListReviewsForApplication returns every reviewer's record for an application. Only principals
// who manage the owning organization may list them.
func (s *ReviewService) ListReviewsForApplication(ctx context.Context, applicationID int) ([]models.ReviewRecord, error) {
	var app models.Application
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		First(&app).Error; err != nil {
		return nil, translateNotFound(err, "application %d", applicationID)
	}
	if _, _, err := s.auth.AuthorizeProgram(ctx, nil, app.ProgramID); err != nil {
		return nil, err
	}

	var reviews []models.ReviewRecord
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("reviewer_id ASC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}
