package services

import (
	"context"
	"fmt"
	"time"

	"review-publish-api/config"
	"review-publish-api/models"
	"review-publish-api/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type transitionActor int

const (
	// actorOrganization is anyone who manages the owning organization.
	actorOrganization transitionActor = iota
	actorSuperAdmin
	// actorUnpublisher is a super admin, or an organization manager when the program
	// requires approval.
	actorUnpublisher
)

type transitionKey struct {
	from   models.ProgramReviewStatus
	action string
}

type programTransition struct {
	to       models.ProgramReviewStatus
	actor    transitionActor
	noteOnly bool
}

var programTransitions = map[transitionKey]programTransition{
	{models.ProgramStatusDraft, utils.ProgramActionSubmit}:            {to: models.ProgramStatusSubmitted, actor: actorOrganization},
	{models.ProgramStatusUnpublished, utils.ProgramActionSubmit}:      {to: models.ProgramStatusSubmitted, actor: actorOrganization},
	{models.ProgramStatusChangesRequested, utils.ProgramActionSubmit}: {to: models.ProgramStatusSubmitted, actor: actorOrganization},
	{models.ProgramStatusPublished, utils.ProgramActionSubmit}:        {to: models.ProgramStatusPendingChanges, actor: actorOrganization},
	{models.ProgramStatusPendingChanges, utils.ProgramActionSubmit}:   {to: models.ProgramStatusPendingChanges, actor: actorOrganization, noteOnly: true},

	{models.ProgramStatusSubmitted, utils.ProgramActionRequestChanges}:      {to: models.ProgramStatusChangesRequested, actor: actorSuperAdmin},
	{models.ProgramStatusPendingChanges, utils.ProgramActionRequestChanges}: {to: models.ProgramStatusChangesRequested, actor: actorSuperAdmin},
	{models.ProgramStatusSubmitted, utils.ProgramActionPublish}:             {to: models.ProgramStatusPublished, actor: actorSuperAdmin},
	{models.ProgramStatusPendingChanges, utils.ProgramActionPublish}:        {to: models.ProgramStatusPublished, actor: actorSuperAdmin},

	{models.ProgramStatusPublished, utils.ProgramActionUnpublish}: {to: models.ProgramStatusUnpublished, actor: actorUnpublisher},
}

// NextProgramStatus looks up the transition table. ok is false when the action is not allowed
// from the current state.
func NextProgramStatus(from models.ProgramReviewStatus, action string) (models.ProgramReviewStatus, bool) {
	t, ok := programTransitions[transitionKey{from: from, action: action}]
	if !ok {
		return "", false
	}
	return t.to, true
}

type ProgramStatusService struct {
	db   *gorm.DB
	auth *AuthorizationService
	log  *zap.SugaredLogger
	now  func() time.Time
}

func NewProgramStatusService(db *gorm.DB, auth *AuthorizationService, log *zap.SugaredLogger) *ProgramStatusService {
	if db == nil {
		db = config.DB
	}
	if log == nil {
		log = config.Logger()
	}
	if auth == nil {
		auth = NewAuthorizationService(db, log)
	}
	return &ProgramStatusService{
		db:   db,
		auth: auth,
		log:  log.With("service", "ProgramStatusService"),
		now:  utcNow,
	}
}

// TransitionProgram applies action to the program's review status. A resubmission while
// changes are pending only replaces the note.
func (s *ProgramStatusService) TransitionProgram(ctx context.Context, programID int, rawAction string, note *string) (*models.Program, error) {
	principalID, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	action, ok := utils.NormalizeProgramAction(rawAction)
	if !ok {
		return nil, invalid("unknown program action %q", rawAction)
	}
	note = utils.SanitizeOptional(note)

	var program models.Program
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Organization").
			Where("program_id = ?", programID).
			First(&program).Error; err != nil {
			return translateNotFound(err, "program %d", programID)
		}
		if program.Organization == nil {
			return notFound("organization of program %d", programID)
		}

		access, err := s.auth.ResolveAccess(ctx, tx, principalID)
		if err != nil {
			return err
		}
		if err := s.auth.AuthorizeOrganization(access, program.Organization); err != nil {
			return err
		}

		from := program.ReviewStatus
		if from == "" {
			from = models.ProgramStatusDraft
		}
		if !from.Valid() {
			return invalid("program %d has unknown review status %q", programID, from)
		}
		t, ok := programTransitions[transitionKey{from: from, action: action}]
		if !ok {
			return invalid("cannot %s a program that is %s", action, from)
		}
		if err := checkTransitionActor(t.actor, access, &program); err != nil {
			return err
		}

		now := s.now()
		if t.noteOnly {
			if note == nil {
				return nil
			}
			program.ReviewNote = note
			program.UpdatedAt = now
			return tx.Model(&models.Program{}).
				Where("program_id = ?", programID).
				Updates(map[string]interface{}{"review_note": note, "updated_at": now}).Error
		}

		updates := map[string]interface{}{
			"review_status": string(t.to),
			"updated_at":    now,
		}
		if note != nil {
			updates["review_note"] = *note
		}
		res := tx.Model(&models.Program{}).
			Where("program_id = ? AND review_status = ?", programID, string(program.ReviewStatus)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invalid("program %d changed state concurrently", programID)
		}

		history := models.ProgramStatusHistory{
			ProgramID: programID,
			OldStatus: from,
			NewStatus: t.to,
			Action:    action,
			ChangedBy: principalID,
			Note:      note,
			CreatedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("log program status history: %w", err)
		}

		program.ReviewStatus = t.to
		if note != nil {
			program.ReviewNote = note
		}
		program.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("program status updated",
		"program_id", programID,
		"action", action,
		"review_status", program.ReviewStatus,
		"user_id", principalID,
	)
	return &program, nil
}

func checkTransitionActor(actor transitionActor, access *Access, program *models.Program) error {
	switch actor {
	case actorSuperAdmin:
		return RequireSuperAdmin(access)
	case actorUnpublisher:
		if access.IsSuperAdmin() {
			return nil
		}
		if program.RequiresApproval && access.CanManage(program.Organization) {
			return nil
		}
		return forbidden("user %d cannot unpublish program %d", access.UserID, program.ProgramID)
	default:
		if access.CanManage(program.Organization) {
			return nil
		}
		return forbidden("user %d cannot manage program %d", access.UserID, program.ProgramID)
	}
}

// ProgramHistory lists status changes of a program, oldest first.
func (s *ProgramStatusService) ProgramHistory(ctx context.Context, programID int) ([]models.ProgramStatusHistory, error) {
	if _, _, err := s.auth.AuthorizeProgram(ctx, nil, programID); err != nil {
		return nil, err
	}
	var rows []models.ProgramStatusHistory
	if err := s.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("created_at ASC, history_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
