package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"review-publish-api/models"

	"gorm.io/gorm"
)

type countingWriter struct {
	inner   PublicationWriter
	calls   int
	batches []PublicationBatch
	failErr error
}

func (w *countingWriter) WritePublications(ctx context.Context, tx *gorm.DB, batch PublicationBatch) ([]models.PublicationRecord, error) {
	w.calls++
	w.batches = append(w.batches, batch)
	records, err := w.inner.WritePublications(ctx, tx, batch)
	if err != nil {
		return nil, err
	}
	if w.failErr != nil {
		return nil, w.failErr
	}
	return records, nil
}

type recordingNotifier struct {
	receipts []PublishReceipt
}

func (n *recordingNotifier) PublicationsReleased(_ context.Context, receipt PublishReceipt) error {
	n.receipts = append(n.receipts, receipt)
	return nil
}

func countPublications(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.PublicationRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count publications: %v", err)
	}
	return count
}

func TestPublishAllFinalizedScenario(t *testing.T) {
	f := seedFixture(t)
	writer := &countingWriter{inner: NewGormPublicationWriter()}
	svc := f.publisher(writer, nil)
	queueSvc := f.staleness()
	ctx := context.Background()

	// T1 = 2024-01-01T00:00:00Z
	t1 := f.clock.Now()
	f.submit(t, f.appA, f.reviewer1, 8)

	queue, err := queueSvc.GetPublishQueue(ctx, f.programID)
	if err != nil {
		t.Fatalf("GetPublishQueue: %v", err)
	}
	if len(queue) != 1 || queue[0].ApplicationID != f.appA || queue[0].AlreadyPublished {
		t.Fatalf("expected one unpublished entry for A, got %+v", queue)
	}

	f.clock.Advance(time.Minute)
	records, err := svc.PublishAllFinalized(f.as(f.orgAdmin), PublishRequest{ProgramID: f.programID, Visibility: fullVisibility()})
	if err != nil {
		t.Fatalf("PublishAllFinalized: %v", err)
	}
	if len(records) != 1 || records[0].ApplicationID != f.appA {
		t.Fatalf("expected a publication for A, got %+v", records)
	}
	p1 := records[0]
	if p1.PublishedAt.Before(t1) {
		t.Fatalf("expected published_at >= %v, got %v", t1, p1.PublishedAt)
	}
	if p1.PublishedBy != f.orgAdmin || p1.BatchID == "" {
		t.Fatalf("expected publisher and batch id to be recorded, got %+v", p1)
	}
	if vis := p1.Visibility.Data(); !vis.Decision || !vis.Score || vis.Comments {
		t.Fatalf("unexpected visibility: %+v", vis)
	}

	var app models.Application
	if err := f.db.First(&app, f.appA).Error; err != nil {
		t.Fatalf("load application: %v", err)
	}
	if app.CurrentPublicationID == nil || *app.CurrentPublicationID != p1.PublicationID {
		t.Fatalf("expected application to point at publication %d, got %v", p1.PublicationID, app.CurrentPublicationID)
	}

	queue, err = queueSvc.GetPublishQueue(ctx, f.programID)
	if err != nil {
		t.Fatalf("GetPublishQueue: %v", err)
	}
	if entry, _ := findEntry(queue, f.appA); !entry.AlreadyPublished {
		t.Fatalf("expected already_published=true after publish, got %+v", entry)
	}

	// Repeating the publish is a no-op.
	again, err := svc.PublishAllFinalized(f.as(f.orgAdmin), PublishRequest{ProgramID: f.programID, Visibility: fullVisibility()})
	if err != nil {
		t.Fatalf("second PublishAllFinalized: %v", err)
	}
	if len(again) != 0 || writer.calls != 1 {
		t.Fatalf("expected idempotent no-op, got %d records and %d writer calls", len(again), writer.calls)
	}

	// Reviewer refinalizes after P1.
	f.clock.Advance(time.Hour)
	if _, err := f.reviews().UpsertReview(f.as(f.reviewer1), UpsertReviewInput{ApplicationID: f.appA, Status: "draft"}); err != nil {
		t.Fatalf("revert: %v", err)
	}
	f.clock.Advance(time.Hour)
	f.submit(t, f.appA, f.reviewer1, 9)

	queue, err = queueSvc.GetPublishQueue(ctx, f.programID)
	if err != nil {
		t.Fatalf("GetPublishQueue: %v", err)
	}
	if entry, _ := findEntry(queue, f.appA); entry.AlreadyPublished {
		t.Fatalf("expected A to resurface after refinalization, got %+v", entry)
	}

	f.clock.Advance(time.Minute)
	republished, err := svc.PublishAllFinalized(f.as(f.orgAdmin), PublishRequest{ProgramID: f.programID, Visibility: fullVisibility()})
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if len(republished) != 1 || republished[0].ApplicationID != f.appA {
		t.Fatalf("expected exactly A to be republished, got %+v", republished)
	}
	if republished[0].PublicationID != p1.PublicationID {
		t.Fatalf("expected live publication %d to be refreshed, got %d", p1.PublicationID, republished[0].PublicationID)
	}
	if !republished[0].PublishedAt.After(p1.PublishedAt) {
		t.Fatalf("expected published_at to advance past %v, got %v", p1.PublishedAt, republished[0].PublishedAt)
	}
}

func TestPublishAllFinalizedOnlyStaleApplications(t *testing.T) {
	f := seedFixture(t)
	writer := &countingWriter{inner: NewGormPublicationWriter()}
	svc := f.publisher(writer, nil)

	f.submit(t, f.appA, f.reviewer1, 8)
	f.submit(t, f.appB, f.reviewer1, 6)
	f.clock.Advance(time.Minute)
	if _, err := svc.PublishAllFinalized(f.as(f.superAdmin), PublishRequest{ProgramID: f.programID, Visibility: fullVisibility()}); err != nil {
		t.Fatalf("initial publish: %v", err)
	}

	// Second reviewer finalizes on B only.
	f.clock.Advance(time.Hour)
	f.submit(t, f.appB, f.reviewer2, 4)

	f.clock.Advance(time.Minute)
	records, err := svc.PublishAllFinalized(f.as(f.superAdmin), PublishRequest{ProgramID: f.programID, Visibility: fullVisibility()})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(records) != 1 || records[0].ApplicationID != f.appB {
		t.Fatalf("expected only B, got %+v", records)
	}

	// only_unpublished=false takes every application with a submitted review.
	all, err := svc.PublishAllFinalized(f.as(f.superAdmin), PublishRequest{
		ProgramID:       f.programID,
		Visibility:      fullVisibility(),
		OnlyUnpublished: boolPtr(false),
		AcceptanceTag:   strPtr("cohort-1"),
	})
	if err != nil {
		t.Fatalf("publish all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 publications, got %d", len(all))
	}
	for _, rec := range all {
		if rec.AcceptanceTag == nil || *rec.AcceptanceTag != "cohort-1" {
			t.Fatalf("expected acceptance tag on %+v", rec)
		}
	}
	if got := countPublications(t, f.db); got != 2 {
		t.Fatalf("expected live publications to be refreshed in place, got %d rows", got)
	}
}

func TestPublishAllFinalizedNoCandidatesIsNoop(t *testing.T) {
	f := seedFixture(t)
	writer := &countingWriter{inner: NewGormPublicationWriter()}
	notifier := &recordingNotifier{}
	svc := f.publisher(writer, notifier)

	// Only a draft exists.
	if _, err := f.reviews().UpsertReview(f.as(f.reviewer1), UpsertReviewInput{ApplicationID: f.appA}); err != nil {
		t.Fatalf("draft save: %v", err)
	}

	records, err := svc.PublishAllFinalized(f.as(f.orgAdmin), PublishRequest{ProgramID: f.programID, Visibility: fullVisibility()})
	if err != nil {
		t.Fatalf("PublishAllFinalized: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected an empty list, got %#v", records)
	}
	if writer.calls != 0 {
		t.Fatalf("expected no writer calls, got %d", writer.calls)
	}
	if len(notifier.receipts) != 0 {
		t.Fatalf("expected no receipts, got %d", len(notifier.receipts))
	}
	if got := countPublications(t, f.db); got != 0 {
		t.Fatalf("expected no publications, got %d", got)
	}
}

func TestPublishAllFinalizedAuthorization(t *testing.T) {
	f := seedFixture(t)
	f.submit(t, f.appA, f.reviewer1, 8)

	cases := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"unauthenticated", context.Background(), ErrNotAuthenticated},
		{"revoked grant", f.as(f.revokedAdmin), ErrForbidden},
		{"other organization", f.as(f.otherAdmin), ErrForbidden},
		{"reviewer", f.as(f.reviewer1), ErrForbidden},
		{"applicant", f.as(f.reviewer2), ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			writer := &countingWriter{inner: NewGormPublicationWriter()}
			_, err := f.publisher(writer, nil).PublishAllFinalized(tc.ctx, PublishRequest{ProgramID: f.programID, Visibility: fullVisibility()})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if writer.calls != 0 {
				t.Fatalf("expected no writes, got %d writer calls", writer.calls)
			}
		})
	}
	if got := countPublications(t, f.db); got != 0 {
		t.Fatalf("expected no publications, got %d", got)
	}

	records, err := f.publisher(nil, nil).PublishAllFinalized(f.as(f.manager), PublishRequest{ProgramID: f.programID, Visibility: fullVisibility()})
	if err != nil {
		t.Fatalf("coalition manager publish: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 publication, got %d", len(records))
	}
}

func TestPublishAllFinalizedUnknownProgram(t *testing.T) {
	f := seedFixture(t)

	_, err := f.publisher(nil, nil).PublishAllFinalized(f.as(f.superAdmin), PublishRequest{ProgramID: 777, Visibility: fullVisibility()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPublishAllFinalizedValidatesVisibility(t *testing.T) {
	f := seedFixture(t)
	f.submit(t, f.appA, f.reviewer1, 8)

	_, err := f.publisher(nil, nil).PublishAllFinalized(f.as(f.orgAdmin), PublishRequest{
		ProgramID:  f.programID,
		Visibility: VisibilityInput{Decision: boolPtr(true), Score: boolPtr(true)},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPublishAllFinalizedRollsBackOnWriterFailure(t *testing.T) {
	f := seedFixture(t)
	f.submit(t, f.appA, f.reviewer1, 8)
	f.submit(t, f.appB, f.reviewer1, 7)

	boom := errors.New("writer exploded")
	writer := &countingWriter{inner: NewGormPublicationWriter(), failErr: boom}
	_, err := f.publisher(writer, nil).PublishAllFinalized(f.as(f.orgAdmin), PublishRequest{ProgramID: f.programID, Visibility: fullVisibility()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
	if got := countPublications(t, f.db); got != 0 {
		t.Fatalf("expected rollback to leave no publications, got %d", got)
	}

	var pointed int64
	if err := f.db.Model(&models.Application{}).Where("current_publication_id IS NOT NULL").Count(&pointed).Error; err != nil {
		t.Fatalf("count applications: %v", err)
	}
	if pointed != 0 {
		t.Fatalf("expected no repointed applications, got %d", pointed)
	}
}

func TestPublishAllFinalizedSendsReceipt(t *testing.T) {
	f := seedFixture(t)
	f.submit(t, f.appA, f.reviewer1, 8)
	notifier := &recordingNotifier{}
	deadline := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	records, err := f.publisher(nil, notifier).PublishAllFinalized(f.as(f.orgAdmin), PublishRequest{
		ProgramID:     f.programID,
		Visibility:    fullVisibility(),
		ClaimDeadline: &deadline,
	})
	if err != nil {
		t.Fatalf("PublishAllFinalized: %v", err)
	}
	if len(notifier.receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(notifier.receipts))
	}
	receipt := notifier.receipts[0]
	if receipt.PublishedBy != f.orgAdmin || receipt.ProgramID != f.programID || len(receipt.Publications) != len(records) {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if records[0].ClaimDeadline == nil || !records[0].ClaimDeadline.Equal(deadline) {
		t.Fatalf("expected claim deadline %v, got %v", deadline, records[0].ClaimDeadline)
	}
}
