package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"review-publish-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PublicationBatch is everything a PublicationWriter needs to publish one bulk request.
type PublicationBatch struct {
	BatchID        string
	ProgramID      int
	ApplicationIDs []int
	Visibility     models.Visibility
	AcceptanceTag  *string
	ClaimDeadline  *time.Time
	PublishedBy    int
	PublishedAt    time.Time
}

// PublicationWriter persists publications for a batch inside the caller's transaction and
// repoints each application's current publication. Implementations must refresh published_at
// on every written record.
type PublicationWriter interface {
	WritePublications(ctx context.Context, tx *gorm.DB, batch PublicationBatch) ([]models.PublicationRecord, error)
}

// GormPublicationWriter refreshes the live publication of an application in place, or creates
// one when the application has none (or only a withdrawn one).
type GormPublicationWriter struct{}

func NewGormPublicationWriter() *GormPublicationWriter {
	return &GormPublicationWriter{}
}

func (w *GormPublicationWriter) WritePublications(ctx context.Context, tx *gorm.DB, batch PublicationBatch) ([]models.PublicationRecord, error) {
	tx = tx.WithContext(ctx)
	records := make([]models.PublicationRecord, 0, len(batch.ApplicationIDs))

	for _, applicationID := range batch.ApplicationIDs {
		var app models.Application
		if err := tx.Where("application_id = ?", applicationID).First(&app).Error; err != nil {
			return nil, translateNotFound(err, "application %d", applicationID)
		}

		var current *models.PublicationRecord
		if app.CurrentPublicationID != nil {
			var existing models.PublicationRecord
			err := tx.Where("publication_id = ?", *app.CurrentPublicationID).First(&existing).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("load publication %d: %w", *app.CurrentPublicationID, err)
			}
			if err == nil && existing.UnpublishedAt == nil {
				current = &existing
			}
		}

		record := models.PublicationRecord{
			ApplicationID: applicationID,
			CreatedAt:     batch.PublishedAt,
		}
		if current != nil {
			record = *current
		}
		record.BatchID = batch.BatchID
		record.PublishedBy = batch.PublishedBy
		record.PublishedAt = batch.PublishedAt
		record.Visibility = datatypes.NewJSONType(batch.Visibility)
		record.AcceptanceTag = batch.AcceptanceTag
		record.ClaimDeadline = batch.ClaimDeadline
		record.UpdatedAt = batch.PublishedAt

		if err := tx.Save(&record).Error; err != nil {
			return nil, fmt.Errorf("save publication for application %d: %w", applicationID, err)
		}

		if err := tx.Model(&models.Application{}).
			Where("application_id = ?", applicationID).
			Updates(map[string]interface{}{
				"current_publication_id": record.PublicationID,
				"updated_at":             batch.PublishedAt,
			}).Error; err != nil {
			return nil, fmt.Errorf("repoint application %d: %w", applicationID, err)
		}

		records = append(records, record)
	}

	return records, nil
}
