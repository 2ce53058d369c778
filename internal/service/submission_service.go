package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

type submissionStore interface {
	CreateWithSubmitters(ctx context.Context, submission *models.Submission, submitters []*models.Submitter, attachments []*models.Attachment, events []*models.SubmissionEvent) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	GetWithSubmitters(ctx context.Context, id string) (*models.Submission, []models.Submitter, error)
	List(ctx context.Context, accountID string, filter dto.SubmissionFilter) ([]models.Submission, *models.Pagination, error)
	Archive(ctx context.Context, id string) (*time.Time, error)
}

type submitterReader interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]models.Submitter, error)
}

type documentReader interface {
	ListBySubmitters(ctx context.Context, submitterIDs []string) (map[string][]models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

type specNormalizer interface {
	Normalize(req dto.CreateSubmissionRequest, template *models.Template) ([]dto.SubmitterSpec, []dto.SpecAttachment, error)
}

type submissionSerializer interface {
	SerializeSubmission(ctx context.Context, submission *models.Submission, template *models.Template, submitters []models.Submitter, events []models.SubmissionEvent, documentsBySubmitter map[string][]models.Document, auditTrail *models.Document, includeEvents bool) (*dto.SubmissionSnapshot, error)
	SerializeSubmitter(ctx context.Context, template *models.Template, submitter *models.Submitter, documents []models.Document) (*dto.SubmitterSnapshot, error)
}

type signatureDispatcher interface {
	DispatchSignatureRequests(submitters []*models.Submitter)
	NotifySubmitterCompleted(ctx context.Context, submitter *models.Submitter)
}

type formTracker interface {
	Open(ctx context.Context, slug string, evCtx dto.EventContext) (*models.Submitter, error)
	Complete(ctx context.Context, slug string, req dto.CompleteFormRequest, evCtx dto.EventContext) (*models.Submitter, error)
}

// SubmissionService orchestrates submission creation, reads and archival.
// Creation normalizes either request form into per-submitter specs, persists
// each resulting submission atomically and hands pending parties to the
// notification queue. Reads lazily materialize missing artifacts before
// serialization.
type SubmissionService struct {
	submissions submissionStore
	submitters  submitterReader
	templates   trackerTemplateStore
	events      submissionEventLister
	documents   documentReader
	normalizer  specNormalizer
	serializer  submissionSerializer
	artifacts   artifactEnsurer
	notifier    signatureDispatcher
	tracker     formTracker
	ability     Ability
	logger      *zap.Logger
}

// NewSubmissionService constructs the orchestrator.
func NewSubmissionService(
	submissions submissionStore,
	submitters submitterReader,
	templates trackerTemplateStore,
	events submissionEventLister,
	documents documentReader,
	normalizer specNormalizer,
	serializer submissionSerializer,
	artifacts artifactEnsurer,
	notifier signatureDispatcher,
	tracker formTracker,
	ability Ability,
	logger *zap.Logger,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissions: submissions,
		submitters:  submitters,
		templates:   templates,
		events:      events,
		documents:   documents,
		normalizer:  normalizer,
		serializer:  serializer,
		artifacts:   artifacts,
		notifier:    notifier,
		tracker:     tracker,
		ability:     ability,
		logger:      logger,
	}
}

// Create instantiates one or more submissions from a template and returns
// the created parties as a single flat list. The emails form yields one
// submission per group of template roles; the submitters form always yields
// exactly one.
func (s *SubmissionService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateSubmissionRequest, evCtx dto.EventContext) ([]*dto.SubmitterSnapshot, error) {
	template, err := s.templates.GetByID(ctx, req.TemplateID)
	if err != nil {
		return nil, notFoundOr(err, "template")
	}
	if !s.ability.Can(claims, ActionRead, template) {
		return nil, appErrors.ErrForbidden
	}
	if len(template.Fields) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "template has no fields to fill")
	}

	specs, attachments, err := s.normalizer.Normalize(req, template)
	if err != nil {
		return nil, err
	}

	order := models.OrderPreserved
	if req.SubmittersOrder == string(models.OrderRandom) {
		order = models.OrderRandom
	}

	groups := groupSpecs(specs, len(template.Submitters), len(req.Emails) > 0)

	snapshots := make([]*dto.SubmitterSnapshot, 0, len(specs))
	for _, group := range groups {
		created, err := s.createOne(ctx, claims, template, order, group, attachments, evCtx)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, created...)
	}
	return snapshots, nil
}

func (s *SubmissionService) createOne(ctx context.Context, claims *models.JWTClaims, template *models.Template, order models.SubmittersOrder, specs []dto.SubmitterSpec, attachments []dto.SpecAttachment, evCtx dto.EventContext) ([]*dto.SubmitterSnapshot, error) {
	now := time.Now().UTC()
	submission := &models.Submission{
		ID:              uuid.NewString(),
		TemplateID:      template.ID,
		AccountID:       claims.AccountID,
		CreatedByUserID: claims.UserID,
		Source:          models.SourceAPI,
		SubmittersOrder: order,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	rows := make([]*models.Submitter, 0, len(specs))
	var events []*models.SubmissionEvent
	for i, spec := range specs {
		submitter := &models.Submitter{
			ID:           uuid.NewString(),
			SubmissionID: submission.ID,
			UUID:         spec.RoleUUID,
			Slug:         newSlug(),
			Name:         spec.Name,
			Email:        spec.Email,
			Phone:        spec.Phone,
			Position:     i,
			Values:       spec.Values,
			Metadata:     spec.Metadata,
			SendEmail:    spec.SendEmail,
			SendSMS:      spec.SendSMS,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if spec.ExternalID != "" {
			submitter.ExternalID = &spec.ExternalID
		}
		if spec.Completed {
			completedAt := now
			submitter.CompletedAt = &completedAt
			events = append(events, completionEvent(submission.ID, submitter.ID, now, evCtx))
		}
		rows = append(rows, submitter)
	}

	attachmentRows := make([]*models.Attachment, 0, len(attachments))
	for _, att := range attachments {
		if att.SubmitterIndex < 0 || att.SubmitterIndex >= len(rows) {
			continue
		}
		attachmentRows = append(attachmentRows, &models.Attachment{
			ID:          uuid.NewString(),
			SubmitterID: rows[att.SubmitterIndex].ID,
			FieldName:   att.FieldName,
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Data:        att.Data,
			CreatedAt:   now,
		})
	}

	if err := s.submissions.CreateWithSubmitters(ctx, submission, rows, attachmentRows, events); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	s.notifier.DispatchSignatureRequests(rows)
	for _, submitter := range rows {
		if submitter.Completed() {
			s.notifier.NotifySubmitterCompleted(ctx, submitter)
		}
	}

	snapshots := make([]*dto.SubmitterSnapshot, 0, len(rows))
	for _, submitter := range rows {
		snapshot, err := s.serializer.SerializeSubmitter(ctx, template, submitter, nil)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// Get loads a submission with a consistent submitter set, materializes any
// missing artifacts and returns the serialized snapshot. Generation failures
// degrade to a snapshot without the affected artifact.
func (s *SubmissionService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*dto.SubmissionSnapshot, error) {
	submission, submitters, err := s.submissions.GetWithSubmitters(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "submission")
	}
	if !s.ability.Can(claims, ActionRead, submission) {
		return nil, appErrors.ErrForbidden
	}

	template, err := s.templates.GetByID(ctx, submission.TemplateID)
	if err != nil {
		return nil, notFoundOr(err, "template")
	}

	for i := range submitters {
		if !submitters[i].Completed() {
			continue
		}
		if _, err := s.artifacts.EnsureSubmitterDocuments(ctx, template, &submitters[i]); err != nil {
			s.logger.Sugar().Warnw("serving submission without result documents", "submission_id", id, "submitter_id", submitters[i].ID, "error", err)
		}
	}
	var auditTrail *models.Document
	if doc, err := s.artifacts.EnsureAuditTrail(ctx, submission, submitters); err != nil {
		s.logger.Sugar().Warnw("serving submission without audit trail", "submission_id", id, "error", err)
	} else {
		auditTrail = doc
	}

	documents, err := s.loadDocuments(ctx, submitters)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListBySubmission(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission events")
	}

	return s.serializer.SerializeSubmission(ctx, submission, template, submitters, events, documents, auditTrail, true)
}

// List returns account submissions matching the filter. Listing never
// triggers artifact generation.
func (s *SubmissionService) List(ctx context.Context, claims *models.JWTClaims, filter dto.SubmissionFilter) ([]*dto.SubmissionSnapshot, *models.Pagination, error) {
	rows, pagination, err := s.submissions.List(ctx, claims.AccountID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	snapshots := make([]*dto.SubmissionSnapshot, 0, len(rows))
	for i := range rows {
		submission := &rows[i]
		template, err := s.templates.GetByID(ctx, submission.TemplateID)
		if err != nil {
			return nil, nil, err
		}
		submitters, err := s.submitters.ListBySubmission(ctx, submission.ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submitters")
		}
		documents, err := s.loadDocuments(ctx, submitters)
		if err != nil {
			return nil, nil, err
		}
		var auditTrail *models.Document
		if submission.AuditTrailDocumentID != nil {
			if doc, err := s.documents.GetByID(ctx, *submission.AuditTrailDocumentID); err == nil {
				auditTrail = doc
			}
		}
		snapshot, err := s.serializer.SerializeSubmission(ctx, submission, template, submitters, nil, documents, auditTrail, false)
		if err != nil {
			return nil, nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, pagination, nil
}

// Archive soft deletes a submission. Archiving again returns the original
// timestamp.
func (s *SubmissionService) Archive(ctx context.Context, claims *models.JWTClaims, id string) (*dto.ArchiveResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "submission")
	}
	if !s.ability.Can(claims, ActionManage, submission) {
		return nil, appErrors.ErrForbidden
	}

	archivedAt, err := s.submissions.Archive(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive submission")
	}
	return &dto.ArchiveResponse{ID: id, ArchivedAt: archivedAt.UTC().Format(time.RFC3339)}, nil
}

// ShowSubmitter records a form view for the party behind slug and returns
// its serialized view.
func (s *SubmissionService) ShowSubmitter(ctx context.Context, slug string, evCtx dto.EventContext) (*dto.SubmitterSnapshot, error) {
	submitter, err := s.tracker.Open(ctx, slug, evCtx)
	if err != nil {
		return nil, err
	}
	return s.serializeSubmitter(ctx, submitter)
}

// CompleteSubmitter records a completion signal for the party behind slug
// and returns its serialized view including freshly generated documents.
func (s *SubmissionService) CompleteSubmitter(ctx context.Context, slug string, req dto.CompleteFormRequest, evCtx dto.EventContext) (*dto.SubmitterSnapshot, error) {
	submitter, err := s.tracker.Complete(ctx, slug, req, evCtx)
	if err != nil {
		return nil, err
	}
	return s.serializeSubmitter(ctx, submitter)
}

func (s *SubmissionService) serializeSubmitter(ctx context.Context, submitter *models.Submitter) (*dto.SubmitterSnapshot, error) {
	submission, err := s.submissions.GetByID(ctx, submitter.SubmissionID)
	if err != nil {
		return nil, notFoundOr(err, "submission")
	}
	template, err := s.templates.GetByID(ctx, submission.TemplateID)
	if err != nil {
		return nil, notFoundOr(err, "template")
	}
	documents, err := s.documents.ListBySubmitters(ctx, []string{submitter.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submitter documents")
	}
	return s.serializer.SerializeSubmitter(ctx, template, submitter, documents[submitter.ID])
}

func (s *SubmissionService) loadDocuments(ctx context.Context, submitters []models.Submitter) (map[string][]models.Document, error) {
	ids := make([]string, 0, len(submitters))
	for i := range submitters {
		ids = append(ids, submitters[i].ID)
	}
	documents, err := s.documents.ListBySubmitters(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}
	return documents, nil
}

// groupSpecs splits email-form specs into one group per role cycle; the
// submitters form keeps all specs in a single group.
func groupSpecs(specs []dto.SubmitterSpec, roleCount int, fromEmails bool) [][]dto.SubmitterSpec {
	if !fromEmails || roleCount <= 0 {
		return [][]dto.SubmitterSpec{specs}
	}
	var groups [][]dto.SubmitterSpec
	for start := 0; start < len(specs); start += roleCount {
		end := start + roleCount
		if end > len(specs) {
			end = len(specs)
		}
		groups = append(groups, specs[start:end])
	}
	return groups
}

func completionEvent(submissionID, submitterID string, at time.Time, evCtx dto.EventContext) *models.SubmissionEvent {
	data := models.JSONMap{}
	if evCtx.IP != "" {
		data["ip"] = evCtx.IP
	}
	if evCtx.UserAgent != "" {
		data["user_agent"] = evCtx.UserAgent
	}
	if evCtx.RequestID != "" {
		data["request_id"] = evCtx.RequestID
	}
	return &models.SubmissionEvent{
		ID:             uuid.NewString(),
		SubmissionID:   submissionID,
		SubmitterID:    submitterID,
		EventType:      models.EventAPICompleteForm,
		EventTimestamp: at,
		Data:           data,
	}
}

func newSlug() string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}

// notFoundOr maps a missing row to the not-found sentinel and anything else
// to an internal error. Already-typed errors pass through untouched.
func notFoundOr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
}
