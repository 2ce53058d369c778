package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sealbase/sealbase-api/internal/models"
	"github.com/sealbase/sealbase-api/internal/repository"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

type artifactStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListBySubmitter(ctx context.Context, submitterID string) ([]models.Document, error)
	WithSubmitterLock(ctx context.Context, submitterID string, fn func(scope repository.ArtifactScope) error) error
	WithSubmissionLock(ctx context.Context, submissionID string, fn func(scope repository.ArtifactScope) error) error
}

type resultRenderer interface {
	Render(ctx context.Context, template *models.Template, submitter *models.Submitter) ([][]byte, error)
}

type auditTrailRenderer interface {
	Render(ctx context.Context, submission *models.Submission, submitters []models.Submitter, events []models.SubmissionEvent) ([]byte, error)
}

type artifactFileStore interface {
	Save(filename string, data []byte) (string, error)
}

type submissionEventLister interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]models.SubmissionEvent, error)
}

type artifactMetrics interface {
	CountArtifact(kind, outcome string)
}

// ArtifactService lazily materializes derived artifacts exactly once per
// entity. Concurrent callers are serialized by a per-entity advisory lock;
// losers observe the winner's artifact instead of erroring. A failed or
// timed-out attempt persists nothing and stays retryable.
type ArtifactService struct {
	store   artifactStore
	events  submissionEventLister
	results resultRenderer
	audits  auditTrailRenderer
	files   artifactFileStore
	metrics artifactMetrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewArtifactService constructs the materializer.
func NewArtifactService(store artifactStore, events submissionEventLister, results resultRenderer, audits auditTrailRenderer, files artifactFileStore, metrics artifactMetrics, logger *zap.Logger, timeout time.Duration) *ArtifactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ArtifactService{
		store:   store,
		events:  events,
		results: results,
		audits:  audits,
		files:   files,
		metrics: metrics,
		logger:  logger,
		timeout: timeout,
	}
}

// EnsureSubmitterDocuments generates the submitter's result documents if the
// submitter is completed and none exist yet, and returns the stored set
// either way. An incomplete submitter yields an empty set without error.
func (s *ArtifactService) EnsureSubmitterDocuments(ctx context.Context, template *models.Template, submitter *models.Submitter) ([]models.Document, error) {
	if !submitter.Completed() {
		return nil, nil
	}

	existing, err := s.store.ListBySubmitter(ctx, submitter.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submitter documents")
	}
	if len(existing) > 0 {
		return existing, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result []models.Document
	err = s.store.WithSubmitterLock(ctx, submitter.ID, func(scope repository.ArtifactScope) error {
		docs, err := scope.ListSubmitterDocuments(ctx, submitter.ID)
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			result = docs
			return nil
		}

		rendered, err := s.results.Render(ctx, template, submitter)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for i, data := range rendered {
			doc := &models.Document{
				ID:          newDocumentID(),
				SubmitterID: &submitter.ID,
				Kind:        models.DocumentResult,
				Filename:    fmt.Sprintf("submitters/%s/result-%d.pdf", submitter.ID, i+1),
				ContentType: "application/pdf",
				ByteSize:    int64(len(data)),
				Checksum:    checksum(data),
				CreatedAt:   now,
			}
			if _, err := s.files.Save(doc.Filename, data); err != nil {
				return err
			}
			if err := scope.InsertDocument(ctx, doc); err != nil {
				return err
			}
			result = append(result, *doc)
		}
		return nil
	})
	if err != nil {
		s.countArtifact("result", "error")
		s.logger.Sugar().Warnw("result document generation failed", "submitter_id", submitter.ID, "error", err)
		return nil, appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, "failed to generate result documents")
	}
	s.countArtifact("result", "ok")
	return result, nil
}

var errAuditTrailRaced = errors.New("audit trail attached by concurrent writer")

// EnsureAuditTrail generates the submission audit trail if every submitter is
// completed and none exists yet. When the submission is not yet fully
// completed it returns nil without error: absence is a valid state distinct
// from "failed".
func (s *ArtifactService) EnsureAuditTrail(ctx context.Context, submission *models.Submission, submitters []models.Submitter) (*models.Document, error) {
	for i := range submitters {
		if !submitters[i].Completed() {
			return nil, nil
		}
	}
	if len(submitters) == 0 {
		return nil, nil
	}

	if submission.AuditTrailDocumentID != nil {
		return s.fetchAuditTrail(ctx, *submission.AuditTrailDocumentID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *models.Document
	err := s.store.WithSubmissionLock(ctx, submission.ID, func(scope repository.ArtifactScope) error {
		existingID, err := scope.AuditTrailDocumentID(ctx, submission.ID)
		if err != nil {
			return err
		}
		if existingID != nil {
			submission.AuditTrailDocumentID = existingID
			return errAuditTrailRaced
		}

		events, err := s.events.ListBySubmission(ctx, submission.ID)
		if err != nil {
			return err
		}

		data, err := s.audits.Render(ctx, submission, submitters, events)
		if err != nil {
			return err
		}

		doc := &models.Document{
			ID:           newDocumentID(),
			SubmissionID: &submission.ID,
			Kind:         models.DocumentAuditTrail,
			Filename:     fmt.Sprintf("submissions/%s/audit-trail.pdf", submission.ID),
			ContentType:  "application/pdf",
			ByteSize:     int64(len(data)),
			Checksum:     checksum(data),
			CreatedAt:    time.Now().UTC(),
		}
		if _, err := s.files.Save(doc.Filename, data); err != nil {
			return err
		}
		if err := scope.InsertDocument(ctx, doc); err != nil {
			return err
		}
		attached, err := scope.AttachAuditTrail(ctx, submission.ID, doc.ID)
		if err != nil {
			return err
		}
		if !attached {
			return errAuditTrailRaced
		}
		submission.AuditTrailDocumentID = &doc.ID
		result = doc
		return nil
	})
	if errors.Is(err, errAuditTrailRaced) {
		// A concurrent caller won; surface its artifact.
		if submission.AuditTrailDocumentID != nil {
			return s.fetchAuditTrail(ctx, *submission.AuditTrailDocumentID)
		}
		return s.reloadAuditTrail(ctx, submission)
	}
	if err != nil {
		s.countArtifact("audit_trail", "error")
		s.logger.Sugar().Warnw("audit trail generation failed", "submission_id", submission.ID, "error", err)
		return nil, appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, "failed to generate audit trail")
	}
	s.countArtifact("audit_trail", "ok")
	return result, nil
}

func (s *ArtifactService) fetchAuditTrail(ctx context.Context, documentID string) (*models.Document, error) {
	doc, err := s.store.GetByID(ctx, documentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}
	return doc, nil
}

func (s *ArtifactService) reloadAuditTrail(ctx context.Context, submission *models.Submission) (*models.Document, error) {
	var winnerID *string
	err := s.store.WithSubmissionLock(ctx, submission.ID, func(scope repository.ArtifactScope) error {
		id, err := scope.AuditTrailDocumentID(ctx, submission.ID)
		if err != nil {
			return err
		}
		winnerID = id
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload audit trail reference")
	}
	if winnerID == nil {
		return nil, nil
	}
	submission.AuditTrailDocumentID = winnerID
	return s.fetchAuditTrail(ctx, *winnerID)
}

func (s *ArtifactService) countArtifact(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.CountArtifact(kind, outcome)
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newDocumentID() string {
	return uuid.NewString()
}
