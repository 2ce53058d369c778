package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sealbase/sealbase-api/internal/models"
	"github.com/sealbase/sealbase-api/pkg/jobs"
)

// Job types handled by the notification queue.
const (
	JobSignatureRequest   = "signature_request"
	JobSubmitterCompleted = "submitter_completed"
)

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type submitterSender interface {
	MarkSent(ctx context.Context, id string, at time.Time) error
}

// NotificationService dispatches signature requests through the background
// queue. Dispatch is fire-and-forget: enqueue failures are logged and never
// roll back submission creation.
type NotificationService struct {
	queue      jobDispatcher
	submitters submitterSender
	logger     *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(queue jobDispatcher, submitters submitterSender, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, submitters: submitters, logger: logger}
}

// DispatchSignatureRequests enqueues one notification per pending submitter.
func (s *NotificationService) DispatchSignatureRequests(submitters []*models.Submitter) {
	for _, submitter := range submitters {
		if submitter.Completed() || !submitter.SendEmail {
			continue
		}
		job := jobs.Job{ID: submitter.ID, Type: JobSignatureRequest, Payload: submitter.Slug}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Sugar().Warnw("signature request enqueue failed", "submitter_id", submitter.ID, "error", err)
		}
	}
}

// HandleSignatureRequest processes a queued notification. Actual delivery is
// a collaborator concern; the engine records the send and stops at the queue
// boundary.
func (s *NotificationService) HandleSignatureRequest(ctx context.Context, job jobs.Job) error {
	now := time.Now().UTC()
	if err := s.submitters.MarkSent(ctx, job.ID, now); err != nil {
		return err
	}
	s.logger.Sugar().Infow("signature request dispatched", "submitter_id", job.ID)
	return nil
}

// NotifySubmitterCompleted enqueues a completion notification for the
// submission creator. Enqueue failures are logged and dropped.
func (s *NotificationService) NotifySubmitterCompleted(ctx context.Context, submitter *models.Submitter) {
	job := jobs.Job{ID: submitter.ID, Type: JobSubmitterCompleted, Payload: submitter.Slug}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Sugar().Warnw("completion notification enqueue failed", "submitter_id", submitter.ID, "error", err)
	}
}

// HandleSubmitterCompleted processes a queued completion notification.
func (s *NotificationService) HandleSubmitterCompleted(ctx context.Context, job jobs.Job) error {
	s.logger.Sugar().Infow("submitter completion notified", "submitter_id", job.ID)
	return nil
}
