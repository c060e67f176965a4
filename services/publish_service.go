package services

import (
	"context"
	"time"

	"review-publish-api/config"
	"review-publish-api/models"
	"review-publish-api/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VisibilityInput is the visibility config as sent by clients. Decision, score and comments are
// required keys; customMessage may be null.
type VisibilityInput struct {
	Decision      *bool   `json:"decision"`
	Score         *bool   `json:"score"`
	Comments      *bool   `json:"comments"`
	CustomMessage *string `json:"customMessage"`
}

func (v VisibilityInput) resolve() (models.Visibility, error) {
	missing := make([]string, 0, 3)
	if v.Decision == nil {
		missing = append(missing, "decision")
	}
	if v.Score == nil {
		missing = append(missing, "score")
	}
	if v.Comments == nil {
		missing = append(missing, "comments")
	}
	if len(missing) > 0 {
		return models.Visibility{}, invalid("visibility config is missing %v", missing)
	}
	return models.Visibility{
		Decision:      *v.Decision,
		Score:         *v.Score,
		Comments:      *v.Comments,
		CustomMessage: utils.SanitizeOptional(v.CustomMessage),
	}, nil
}

// PublishRequest is a bulk publish of a program's finalized reviews. OnlyUnpublished defaults
// to true when nil.
type PublishRequest struct {
	ProgramID       int
	Visibility      VisibilityInput
	OnlyUnpublished *bool
	AcceptanceTag   *string
	ClaimDeadline   *time.Time
}

// PublishReceipt summarises a committed publish batch.
type PublishReceipt struct {
	BatchID      string
	ProgramID    int
	PublishedBy  int
	PublishedAt  time.Time
	Publications []models.PublicationRecord
}

// PublishNotifier is told about a batch after it has been committed.
type PublishNotifier interface {
	PublicationsReleased(ctx context.Context, receipt PublishReceipt) error
}

type PublishService struct {
	db        *gorm.DB
	auth      *AuthorizationService
	staleness *StalenessService
	writer    PublicationWriter
	notifier  PublishNotifier
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewPublishService(db *gorm.DB, auth *AuthorizationService, staleness *StalenessService, writer PublicationWriter, notifier PublishNotifier, log *zap.SugaredLogger) *PublishService {
	if db == nil {
		db = config.DB
	}
	if log == nil {
		log = config.Logger()
	}
	if auth == nil {
		auth = NewAuthorizationService(db, log)
	}
	if staleness == nil {
		staleness = NewStalenessService(db, log)
	}
	if writer == nil {
		writer = NewGormPublicationWriter()
	}
	return &PublishService{
		db:        db,
		auth:      auth,
		staleness: staleness,
		writer:    writer,
		notifier:  notifier,
		log:       log.With("service", "PublishService"),
		now:       utcNow,
	}
}

// PublishAllFinalized publishes every eligible application of a program in one transaction.
// Eligibility uses the same staleness test as the publish queue. When nothing is eligible no
// write happens and an empty slice is returned.
func (s *PublishService) PublishAllFinalized(ctx context.Context, req PublishRequest) ([]models.PublicationRecord, error) {
	principalID, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	visibility, err := req.Visibility.resolve()
	if err != nil {
		return nil, err
	}
	onlyUnpublished := true
	if req.OnlyUnpublished != nil {
		onlyUnpublished = *req.OnlyUnpublished
	}

	batch := PublicationBatch{
		BatchID:       uuid.NewString(),
		ProgramID:     req.ProgramID,
		Visibility:    visibility,
		AcceptanceTag: utils.SanitizeOptional(req.AcceptanceTag),
		ClaimDeadline: req.ClaimDeadline,
		PublishedBy:   principalID,
		PublishedAt:   s.now(),
	}

	records := []models.PublicationRecord{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, _, err := s.auth.AuthorizeProgram(ctx, tx, req.ProgramID); err != nil {
			return err
		}

		ids, err := s.staleness.candidateApplications(ctx, tx, req.ProgramID, onlyUnpublished)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		batch.ApplicationIDs = ids

		written, err := s.writer.WritePublications(ctx, tx, batch)
		if err != nil {
			return err
		}
		records = written
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		s.log.Infow("nothing to publish", "program_id", req.ProgramID, "only_unpublished", onlyUnpublished, "user_id", principalID)
		return records, nil
	}

	s.log.Infow("publications released",
		"batch_id", batch.BatchID,
		"program_id", req.ProgramID,
		"count", len(records),
		"only_unpublished", onlyUnpublished,
		"user_id", principalID,
	)

	if s.notifier != nil {
		receipt := PublishReceipt{
			BatchID:      batch.BatchID,
			ProgramID:    req.ProgramID,
			PublishedBy:  principalID,
			PublishedAt:  batch.PublishedAt,
			Publications: records,
		}
		if err := s.notifier.PublicationsReleased(persistentContext(ctx), receipt); err != nil {
			s.log.Warnw("publish receipt not delivered", "batch_id", batch.BatchID, "error", err)
		}
	}

	return records, nil
}
