package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

type trackerSubmitterStore interface {
	GetByID(ctx context.Context, id string) (*models.Submitter, error)
	GetBySlug(ctx context.Context, slug string) (*models.Submitter, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]models.Submitter, error)
	MarkOpened(ctx context.Context, id string, at time.Time) error
	Complete(ctx context.Context, id string, values models.JSONMap, at time.Time) (bool, error)
}

type trackerSubmissionStore interface {
	GetByID(ctx context.Context, id string) (*models.Submission, error)
}

type trackerTemplateStore interface {
	GetByID(ctx context.Context, id string) (*models.Template, error)
}

type eventAppender interface {
	Append(ctx context.Context, event *models.SubmissionEvent) error
}

type artifactEnsurer interface {
	EnsureSubmitterDocuments(ctx context.Context, template *models.Template, submitter *models.Submitter) ([]models.Document, error)
	EnsureAuditTrail(ctx context.Context, submission *models.Submission, submitters []models.Submitter) (*models.Document, error)
}

type completionNotifier interface {
	NotifySubmitterCompleted(ctx context.Context, submitter *models.Submitter)
}

// TrackerService records submitter lifecycle progress: form opens and
// completion signals. Lifecycle timestamps only move forward, completion is
// accepted at most once per submitter, and sequential signing order is
// enforced for submissions created with preserved ordering.
type TrackerService struct {
	submitters        trackerSubmitterStore
	submissions       trackerSubmissionStore
	templates         trackerTemplateStore
	events            eventAppender
	artifacts         artifactEnsurer
	notifier          completionNotifier
	logger            *zap.Logger
	enforceCompletion bool
}

// NewTrackerService constructs the lifecycle tracker. enforceCompletion
// extends the sequential-order gate from form opens to completion writes.
func NewTrackerService(submitters trackerSubmitterStore, submissions trackerSubmissionStore, templates trackerTemplateStore, events eventAppender, artifacts artifactEnsurer, notifier completionNotifier, logger *zap.Logger, enforceCompletion bool) *TrackerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackerService{
		submitters:        submitters,
		submissions:       submissions,
		templates:         templates,
		events:            events,
		artifacts:         artifacts,
		notifier:          notifier,
		logger:            logger,
		enforceCompletion: enforceCompletion,
	}
}

// Open records a form view for the submitter behind slug. The opened
// timestamp is set only on the first view; every view appends an event.
func (s *TrackerService) Open(ctx context.Context, slug string, evCtx dto.EventContext) (*models.Submitter, error) {
	submitter, err := s.submitters.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err, "submitter")
	}

	submission, err := s.submissions.GetByID(ctx, submitter.SubmissionID)
	if err != nil {
		return nil, notFoundOr(err, "submission")
	}
	if err := s.checkOrder(ctx, submission, submitter); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.submitters.MarkOpened(ctx, submitter.ID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record form open")
	}
	if submitter.OpenedAt == nil {
		submitter.OpenedAt = &now
	}

	s.appendEvent(ctx, submitter, models.EventViewForm, now, evCtx, nil)
	return submitter, nil
}

// Complete records a completion signal for the submitter behind slug. A
// repeated signal is rejected with ALREADY_COMPLETED and changes nothing.
// When this completion finishes the submission, the audit trail is
// materialized before returning so the caller observes a fully completed
// submission.
func (s *TrackerService) Complete(ctx context.Context, slug string, req dto.CompleteFormRequest, evCtx dto.EventContext) (*models.Submitter, error) {
	submitter, err := s.submitters.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err, "submitter")
	}
	if submitter.Completed() {
		return nil, appErrors.ErrAlreadyCompleted
	}

	submission, err := s.submissions.GetByID(ctx, submitter.SubmissionID)
	if err != nil {
		return nil, notFoundOr(err, "submission")
	}
	if s.enforceCompletion {
		if err := s.checkOrder(ctx, submission, submitter); err != nil {
			return nil, err
		}
	}

	values := submitter.Values
	if values == nil {
		values = models.JSONMap{}
	}
	for key, value := range req.Values {
		values[key] = value
	}

	now := time.Now().UTC()
	completed, err := s.submitters.Complete(ctx, submitter.ID, values, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record completion")
	}
	if !completed {
		// Lost the race with another completion signal.
		return nil, appErrors.ErrAlreadyCompleted
	}
	submitter.Values = values
	submitter.CompletedAt = &now
	if submitter.OpenedAt == nil {
		submitter.OpenedAt = &now
	}

	s.appendEvent(ctx, submitter, models.EventCompleteForm, now, evCtx, nil)
	s.finalizeCompletion(ctx, submission, submitter, true)
	return submitter, nil
}

// ProcessCompletedSubmitter runs the deferred artifact work for a submitter
// that was already completed when its row was created. The completion event
// was recorded in the creation transaction; this only materializes artifacts.
// Safe to run repeatedly.
func (s *TrackerService) ProcessCompletedSubmitter(ctx context.Context, submitterID string) error {
	submitter, err := s.submitters.GetByID(ctx, submitterID)
	if err != nil {
		return err
	}
	if !submitter.Completed() {
		return nil
	}

	submission, err := s.submissions.GetByID(ctx, submitter.SubmissionID)
	if err != nil {
		return err
	}

	s.finalizeCompletion(ctx, submission, submitter, false)
	return nil
}

// finalizeCompletion materializes the submitter's result documents, the
// audit trail when the submission just became fully completed, and hands the
// submitter to the notifier. Artifact failures are logged, not surfaced: the
// completion itself is already durable and generation retries on next read.
func (s *TrackerService) finalizeCompletion(ctx context.Context, submission *models.Submission, submitter *models.Submitter, notify bool) {
	template, err := s.templates.GetByID(ctx, submission.TemplateID)
	if err != nil {
		s.logger.Sugar().Warnw("failed to load template after completion", "submitter_id", submitter.ID, "error", err)
	} else if _, err := s.artifacts.EnsureSubmitterDocuments(ctx, template, submitter); err != nil {
		s.logger.Sugar().Warnw("failed to generate result documents after completion", "submitter_id", submitter.ID, "error", err)
	}

	submitters, err := s.submitters.ListBySubmission(ctx, submission.ID)
	if err != nil {
		s.logger.Sugar().Warnw("failed to list submitters after completion", "submission_id", submission.ID, "error", err)
		return
	}
	if _, err := s.artifacts.EnsureAuditTrail(ctx, submission, submitters); err != nil {
		s.logger.Sugar().Warnw("failed to generate audit trail after completion", "submission_id", submission.ID, "error", err)
	}

	if notify && s.notifier != nil {
		s.notifier.NotifySubmitterCompleted(ctx, submitter)
	}
}

// checkOrder rejects access for a submitter whose predecessors in a
// preserved-order submission have not all completed yet.
func (s *TrackerService) checkOrder(ctx context.Context, submission *models.Submission, submitter *models.Submitter) error {
	if submission.SubmittersOrder != models.OrderPreserved {
		return nil
	}
	submitters, err := s.submitters.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return err
	}
	for i := range submitters {
		if submitters[i].Position >= submitter.Position {
			continue
		}
		if !submitters[i].Completed() {
			return appErrors.ErrOrderingViolation
		}
	}
	return nil
}

func (s *TrackerService) appendEvent(ctx context.Context, submitter *models.Submitter, eventType models.EventType, at time.Time, evCtx dto.EventContext, extra models.JSONMap) {
	data := models.JSONMap{}
	for key, value := range extra {
		data[key] = value
	}
	if evCtx.IP != "" {
		data["ip"] = evCtx.IP
	}
	if evCtx.UserAgent != "" {
		data["user_agent"] = evCtx.UserAgent
	}
	if evCtx.RequestID != "" {
		data["request_id"] = evCtx.RequestID
	}

	event := &models.SubmissionEvent{
		ID:             uuid.NewString(),
		SubmissionID:   submitter.SubmissionID,
		SubmitterID:    submitter.ID,
		EventType:      eventType,
		EventTimestamp: at,
		Data:           data,
	}
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Sugar().Warnw("failed to append submission event", "submitter_id", submitter.ID, "event_type", eventType, "error", err)
	}
}
