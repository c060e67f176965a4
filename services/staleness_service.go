package services

import (
	"context"
	"sort"
	"time"

	"review-publish-api/config"
	"review-publish-api/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PublishQueueEntry is one finalized review as seen by the publish queue. It is derived on
// every request and never stored.
type PublishQueueEntry struct {
	ApplicationID     int       `json:"application_id"`
	ReviewID          int       `json:"review_id"`
	ReviewerID        int       `json:"reviewer_id"`
	ProgramName       string    `json:"program_name"`
	ApplicantName     string    `json:"applicant_name"`
	Decision          *string   `json:"decision"`
	Score             *float64  `json:"score"`
	Comments          string    `json:"comments"`
	AlreadyPublished  bool      `json:"already_published"`
	ReviewFinalizedAt time.Time `json:"review_finalized_at"`
}

// finalizedReview is a submitted review joined to its application's current publication.
type finalizedReview struct {
	ReviewID      int               `gorm:"column:review_id"`
	ApplicationID int               `gorm:"column:application_id"`
	ReviewerID    int               `gorm:"column:reviewer_id"`
	ProgramName   string            `gorm:"column:program_name"`
	ApplicantName string            `gorm:"column:applicant_name"`
	Decision      *string           `gorm:"column:decision"`
	Ratings       datatypes.JSONMap `gorm:"column:ratings"`
	Score         *float64          `gorm:"column:score"`
	Comments      string            `gorm:"column:comments"`
	SubmittedAt   *time.Time        `gorm:"column:submitted_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
	PublicationID *int              `gorm:"column:publication_id"`
	PublishedAt   *time.Time        `gorm:"column:published_at"`
}

func (r *finalizedReview) finalizedAt() time.Time {
	if r.SubmittedAt != nil {
		return *r.SubmittedAt
	}
	return r.UpdatedAt
}

// alreadyPublished is the staleness test shared by the queue and bulk publish: a review is
// reflected in a publication when one exists and the review was not finalized after it.
func (r *finalizedReview) alreadyPublished() bool {
	return r.PublicationID != nil && r.PublishedAt != nil && !r.finalizedAt().After(*r.PublishedAt)
}

type StalenessService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewStalenessService(db *gorm.DB, log *zap.SugaredLogger) *StalenessService {
	if db == nil {
		db = config.DB
	}
	if log == nil {
		log = config.Logger()
	}
	return &StalenessService{db: db, log: log.With("service", "StalenessService")}
}

// GetPublishQueue lists every submitted review in the program, newest finalization first, with
// already_published computed against the application's current publication.
func (s *StalenessService) GetPublishQueue(ctx context.Context, programID int) ([]PublishQueueEntry, error) {
	var rows []finalizedReview
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProgramExists(ctx, tx, programID); err != nil {
			return err
		}
		var err error
		rows, err = s.loadFinalizedReviews(ctx, tx, programID)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]PublishQueueEntry, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		entries = append(entries, PublishQueueEntry{
			ApplicationID:     row.ApplicationID,
			ReviewID:          row.ReviewID,
			ReviewerID:        row.ReviewerID,
			ProgramName:       row.ProgramName,
			ApplicantName:     row.ApplicantName,
			Decision:          models.ResolveDecision(row.Decision, row.Ratings),
			Score:             row.Score,
			Comments:          row.Comments,
			AlreadyPublished:  row.alreadyPublished(),
			ReviewFinalizedAt: row.finalizedAt(),
		})
	}

	s.log.Debugw("publish queue computed", "program_id", programID, "entries", len(entries))
	return entries, nil
}

// candidateApplications returns the application ids eligible for publishing, in queue order.
// With onlyUnpublished, an application qualifies when at least one of its submitted reviews
// is not already published.
func (s *StalenessService) candidateApplications(ctx context.Context, tx *gorm.DB, programID int, onlyUnpublished bool) ([]int, error) {
	rows, err := s.loadFinalizedReviews(ctx, tx, programID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(rows))
	ids := make([]int, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		if onlyUnpublished && row.alreadyPublished() {
			continue
		}
		if _, ok := seen[row.ApplicationID]; ok {
			continue
		}
		seen[row.ApplicationID] = struct{}{}
		ids = append(ids, row.ApplicationID)
	}
	return ids, nil
}

func (s *StalenessService) loadFinalizedReviews(ctx context.Context, tx *gorm.DB, programID int) ([]finalizedReview, error) {
	if tx == nil {
		tx = s.db
	}

	var rows []finalizedReview
	if err := tx.WithContext(ctx).
		Table("review_records AS r").
		Select(`r.review_id, r.application_id, r.reviewer_id, r.decision, r.ratings, r.score,
			r.comments, r.submitted_at, r.updated_at, a.applicant_name, pg.name AS program_name,
			p.publication_id, p.published_at`).
		Joins("JOIN applications AS a ON a.application_id = r.application_id").
		Joins("JOIN programs AS pg ON pg.program_id = a.program_id").
		Joins("LEFT JOIN publication_records AS p ON p.publication_id = a.current_publication_id AND p.unpublished_at IS NULL").
		Where("a.program_id = ? AND r.status = ?", programID, string(models.ReviewStatusSubmitted)).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		fi, fj := rows[i].finalizedAt(), rows[j].finalizedAt()
		if !fi.Equal(fj) {
			return fi.After(fj)
		}
		if rows[i].ApplicationID != rows[j].ApplicationID {
			return rows[i].ApplicationID < rows[j].ApplicationID
		}
		return rows[i].ReviewID < rows[j].ReviewID
	})
	return rows, nil
}

func ensureProgramExists(ctx context.Context, tx *gorm.DB, programID int) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&models.Program{}).
		Where("program_id = ?", programID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("program %d", programID)
	}
	return nil
}
