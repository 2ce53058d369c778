package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

type documentSigner interface {
	Generate(documentID, relPath string) (string, time.Time, error)
}

// SerializerService builds the canonical external views of submissions and
// submitters. Serialization is pure read: it never triggers generation and
// never writes.
type SerializerService struct {
	baseURL baseURLResolver
	signer  documentSigner
	users   userStore
	logger  *zap.Logger
}

// NewSerializerService constructs the serializer.
func NewSerializerService(baseURL baseURLResolver, signer documentSigner, users userStore, logger *zap.Logger) *SerializerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerializerService{baseURL: baseURL, signer: signer, users: users, logger: logger}
}

// SerializeSubmitter builds the external view of one signing party. The
// submitter's role is resolved against the template's declared roles; a
// missing role is a data integrity fault and fails loudly.
func (s *SerializerService) SerializeSubmitter(ctx context.Context, template *models.Template, submitter *models.Submitter, documents []models.Document) (*dto.SubmitterSnapshot, error) {
	role, ok := template.RoleByUUID(submitter.UUID)
	if !ok {
		return nil, appErrors.Wrap(
			fmt.Errorf("template %s declares no role %s referenced by submitter %s", template.ID, submitter.UUID, submitter.ID),
			appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "submitter references unknown template role")
	}

	snapshot := &dto.SubmitterSnapshot{
		ID:           submitter.ID,
		SubmissionID: submitter.SubmissionID,
		UUID:         submitter.UUID,
		Slug:         submitter.Slug,
		Name:         submitter.Name,
		Email:        submitter.Email,
		Phone:        submitter.Phone,
		Role:         role.Name,
		Status:       string(submitter.Status()),
		Values:       submitter.Values,
		Metadata:     submitter.Metadata,
		ExternalID:   submitter.ExternalID,
		EmbedSrc:     s.embedSrc(ctx, submitter.Slug),
		Documents:    s.documentSnapshots(ctx, documents),
		SentAt:       submitter.SentAt,
		OpenedAt:     submitter.OpenedAt,
		CompletedAt:  submitter.CompletedAt,
		CreatedAt:    submitter.CreatedAt,
		UpdatedAt:    submitter.UpdatedAt,
	}
	if snapshot.Values == nil {
		snapshot.Values = map[string]interface{}{}
	}
	if snapshot.Metadata == nil {
		snapshot.Metadata = map[string]interface{}{}
	}
	return snapshot, nil
}

// SerializeSubmission builds the external view of a submission from an
// already loaded consistent row set. documentsBySubmitter maps submitter id
// to its generated result documents; auditTrail may be nil when the
// submission is not completed or generation has not happened yet.
func (s *SerializerService) SerializeSubmission(ctx context.Context, submission *models.Submission, template *models.Template, submitters []models.Submitter, events []models.SubmissionEvent, documentsBySubmitter map[string][]models.Document, auditTrail *models.Document, includeEvents bool) (*dto.SubmissionSnapshot, error) {
	snapshot := &dto.SubmissionSnapshot{
		ID:              submission.ID,
		Source:          string(submission.Source),
		SubmittersOrder: string(submission.SubmittersOrder),
		Status:          string(models.SubmissionPending),
		ArchivedAt:      submission.ArchivedAt,
		CreatedAt:       submission.CreatedAt,
		UpdatedAt:       submission.UpdatedAt,
		Template: dto.TemplateRef{
			ID:        template.ID,
			Name:      template.Name,
			CreatedAt: template.CreatedAt,
			UpdatedAt: template.UpdatedAt,
		},
		Documents:  []dto.DocumentSnapshot{},
		Submitters: make([]dto.SubmitterSnapshot, 0, len(submitters)),
	}

	if user, err := s.users.FindByID(ctx, submission.CreatedByUserID); err == nil {
		snapshot.CreatedBy = &dto.UserRef{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		}
	} else {
		s.logger.Sugar().Warnw("failed to load submission creator", "submission_id", submission.ID, "error", err)
	}

	allCompleted := len(submitters) > 0
	var completedAt *time.Time
	var lastCompleted *models.Submitter
	for i := range submitters {
		submitter := &submitters[i]
		view, err := s.SerializeSubmitter(ctx, template, submitter, documentsBySubmitter[submitter.ID])
		if err != nil {
			return nil, err
		}
		snapshot.Submitters = append(snapshot.Submitters, *view)

		if !submitter.Completed() {
			allCompleted = false
			continue
		}
		if completedAt == nil || submitter.CompletedAt.After(*completedAt) {
			completedAt = submitter.CompletedAt
			lastCompleted = submitter
		}
	}

	if allCompleted {
		snapshot.Status = string(models.SubmissionCompleted)
		snapshot.CompletedAt = completedAt
		// The last party's result documents reflect every collected value.
		if lastCompleted != nil {
			snapshot.Documents = s.documentSnapshots(ctx, documentsBySubmitter[lastCompleted.ID])
		}
	}

	if auditTrail != nil {
		if url, ok := s.signedURL(ctx, auditTrail); ok {
			snapshot.AuditLogURL = &url
		}
	}

	if includeEvents {
		snapshot.Events = make([]dto.EventSnapshot, 0, len(events))
		for _, event := range events {
			snapshot.Events = append(snapshot.Events, dto.EventSnapshot{
				ID:             event.ID,
				SubmitterID:    event.SubmitterID,
				EventType:      string(event.EventType),
				EventTimestamp: event.EventTimestamp,
			})
		}
	}
	return snapshot, nil
}

func (s *SerializerService) documentSnapshots(ctx context.Context, documents []models.Document) []dto.DocumentSnapshot {
	snapshots := make([]dto.DocumentSnapshot, 0, len(documents))
	for i := range documents {
		url, ok := s.signedURL(ctx, &documents[i])
		if !ok {
			continue
		}
		snapshots = append(snapshots, dto.DocumentSnapshot{
			Name: documentName(documents[i].Filename),
			URL:  url,
		})
	}
	return snapshots
}

func (s *SerializerService) signedURL(ctx context.Context, document *models.Document) (string, bool) {
	token, _, err := s.signer.Generate(document.ID, document.Filename)
	if err != nil {
		s.logger.Sugar().Warnw("failed to sign document url", "document_id", document.ID, "error", err)
		return "", false
	}
	return fmt.Sprintf("%s/documents/%s", s.baseURL.Resolve(ctx), token), true
}

func (s *SerializerService) embedSrc(ctx context.Context, slug string) string {
	return fmt.Sprintf("%s/s/%s", s.baseURL.Resolve(ctx), slug)
}

func documentName(filename string) string {
	base := path.Base(filename)
	return strings.TrimSuffix(base, path.Ext(base))
}
