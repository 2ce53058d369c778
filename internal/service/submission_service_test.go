package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

type mockSubmissionRepo struct {
	submissions map[string]*models.Submission
	submitters  map[string][]models.Submitter
	attachments []models.Attachment
	events      []models.SubmissionEvent
	createCalls int
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{
		submissions: map[string]*models.Submission{},
		submitters:  map[string][]models.Submitter{},
	}
}

func (m *mockSubmissionRepo) CreateWithSubmitters(_ context.Context, submission *models.Submission, submitters []*models.Submitter, attachments []*models.Attachment, events []*models.SubmissionEvent) error {
	m.createCalls++
	m.submissions[submission.ID] = submission
	for _, row := range submitters {
		m.submitters[submission.ID] = append(m.submitters[submission.ID], *row)
	}
	for _, att := range attachments {
		m.attachments = append(m.attachments, *att)
	}
	for _, ev := range events {
		m.events = append(m.events, *ev)
	}
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return nil, fmt.Errorf("get submission: %w", sql.ErrNoRows)
	}
	copied := *submission
	return &copied, nil
}

func (m *mockSubmissionRepo) GetWithSubmitters(ctx context.Context, id string) (*models.Submission, []models.Submitter, error) {
	submission, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return submission, m.submitters[id], nil
}

func (m *mockSubmissionRepo) List(_ context.Context, accountID string, _ dto.SubmissionFilter) ([]models.Submission, *models.Pagination, error) {
	var rows []models.Submission
	for _, submission := range m.submissions {
		if submission.AccountID == accountID && submission.ArchivedAt == nil {
			rows = append(rows, *submission)
		}
	}
	return rows, &models.Pagination{Count: len(rows)}, nil
}

func (m *mockSubmissionRepo) Archive(_ context.Context, id string) (*time.Time, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return nil, fmt.Errorf("get submission: %w", sql.ErrNoRows)
	}
	if submission.ArchivedAt == nil {
		now := time.Now().UTC()
		submission.ArchivedAt = &now
	}
	return submission.ArchivedAt, nil
}

func (m *mockSubmissionRepo) ListBySubmission(_ context.Context, submissionID string) ([]models.Submitter, error) {
	return m.submitters[submissionID], nil
}

type mockDocumentReader struct {
	bySubmitter map[string][]models.Document
}

func (m *mockDocumentReader) ListBySubmitters(_ context.Context, ids []string) (map[string][]models.Document, error) {
	out := map[string][]models.Document{}
	for _, id := range ids {
		if docs, ok := m.bySubmitter[id]; ok {
			out[id] = docs
		}
	}
	return out, nil
}

func (m *mockDocumentReader) GetByID(_ context.Context, id string) (*models.Document, error) {
	for _, docs := range m.bySubmitter {
		for i := range docs {
			if docs[i].ID == id {
				return &docs[i], nil
			}
		}
	}
	return nil, appErrors.ErrNotFound
}

type mockDispatcher struct {
	dispatched []string
	completed  []string
}

func (m *mockDispatcher) DispatchSignatureRequests(submitters []*models.Submitter) {
	for _, submitter := range submitters {
		if !submitter.Completed() && submitter.SendEmail {
			m.dispatched = append(m.dispatched, submitter.Email)
		}
	}
}

func (m *mockDispatcher) NotifySubmitterCompleted(_ context.Context, submitter *models.Submitter) {
	m.completed = append(m.completed, submitter.Email)
}

type submissionFixture struct {
	svc        *SubmissionService
	repo       *mockSubmissionRepo
	templates  *mockTemplateStore
	artifacts  *mockArtifactEnsurer
	dispatcher *mockDispatcher
}

func newSubmissionFixture() *submissionFixture {
	repo := newMockSubmissionRepo()
	templates := &mockTemplateStore{template: twoRoleTemplate()}
	artifacts := &mockArtifactEnsurer{}
	dispatcher := &mockDispatcher{}
	documents := &mockDocumentReader{bySubmitter: map[string][]models.Document{}}
	serializer := NewSerializerService(stubBaseURL{}, stubSigner{}, &stubUserStore{user: &models.User{ID: "usr-1", Email: "creator@example.com"}}, nil)
	svc := NewSubmissionService(
		repo, repo, templates, stubEventLister{}, documents,
		NewNormalizerService(nil), serializer, artifacts, dispatcher, nil,
		NewRuleAbility(), nil,
	)
	return &submissionFixture{svc: svc, repo: repo, templates: templates, artifacts: artifacts, dispatcher: dispatcher}
}

func creatorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "usr-1", AccountID: "acc-1", Email: "creator@example.com", Role: models.RoleUser}
}

func TestCreateFromEmailsChunksByRoleCount(t *testing.T) {
	fx := newSubmissionFixture()
	req := dto.CreateSubmissionRequest{
		TemplateID: "tpl-1",
		Emails:     []string{"a@example.com", "b@example.com", "c@example.com"},
	}

	snapshots, err := fx.svc.Create(context.Background(), creatorClaims(), req, dto.EventContext{})

	require.NoError(t, err)
	require.Len(t, snapshots, 3, "every created party appears once in the flat list")
	assert.Equal(t, 2, fx.repo.createCalls, "three emails over two roles yield two submissions")
	assert.Equal(t, "First Party", snapshots[0].Role)
	assert.Equal(t, "Second Party", snapshots[1].Role)
	assert.Equal(t, "First Party", snapshots[2].Role)
	assert.Equal(t, snapshots[0].SubmissionID, snapshots[1].SubmissionID)
	assert.NotEqual(t, snapshots[0].SubmissionID, snapshots[2].SubmissionID)
	assert.Equal(t, "pending", snapshots[0].Status)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com", "c@example.com"}, fx.dispatcher.dispatched)
}

func TestCreateRejectsTemplateWithoutFields(t *testing.T) {
	fx := newSubmissionFixture()
	fx.templates.template.Fields = nil
	req := dto.CreateSubmissionRequest{TemplateID: "tpl-1", Emails: []string{"a@example.com"}}

	_, err := fx.svc.Create(context.Background(), creatorClaims(), req, dto.EventContext{})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, 422, appErr.Status)
	assert.Zero(t, fx.repo.createCalls)
}

func TestCreateDeniedForForeignAccount(t *testing.T) {
	fx := newSubmissionFixture()
	claims := &models.JWTClaims{UserID: "usr-9", AccountID: "acc-other", Role: models.RoleUser}
	req := dto.CreateSubmissionRequest{TemplateID: "tpl-1", Emails: []string{"a@example.com"}}

	_, err := fx.svc.Create(context.Background(), claims, req, dto.EventContext{})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCreatePreCompletedSubmitterRecordsEventAndNotifies(t *testing.T) {
	fx := newSubmissionFixture()
	req := dto.CreateSubmissionRequest{
		TemplateID: "tpl-1",
		Submitters: []dto.SubmitterParams{
			{UUID: "role-first", Email: "a@example.com", Completed: true},
			{UUID: "role-second", Email: "b@example.com"},
		},
	}

	snapshots, err := fx.svc.Create(context.Background(), creatorClaims(), req, dto.EventContext{IP: "10.0.0.9", RequestID: "req-7"})

	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "completed", snapshots[0].Status)
	assert.Equal(t, "pending", snapshots[1].Status)

	require.Len(t, fx.repo.events, 1, "completion event persists with the creation")
	assert.Equal(t, models.EventAPICompleteForm, fx.repo.events[0].EventType)
	assert.Equal(t, "10.0.0.9", fx.repo.events[0].Data["ip"])
	assert.Equal(t, "req-7", fx.repo.events[0].Data["request_id"])

	assert.Equal(t, []string{"a@example.com"}, fx.dispatcher.completed)
	assert.Equal(t, []string{"b@example.com"}, fx.dispatcher.dispatched, "completed party gets no signature request")
}

func TestCreatePersistsDefaultValueAttachments(t *testing.T) {
	fx := newSubmissionFixture()
	req := dto.CreateSubmissionRequest{
		TemplateID: "tpl-1",
		Submitters: []dto.SubmitterParams{
			{
				UUID:  "role-first",
				Email: "a@example.com",
				Fields: []dto.FieldParams{
					{Name: "stamp", DefaultValue: "data:image/png;base64,iVBORw0KGgo="},
				},
			},
		},
	}

	_, err := fx.svc.Create(context.Background(), creatorClaims(), req, dto.EventContext{})

	require.NoError(t, err)
	require.Len(t, fx.repo.attachments, 1)
	assert.Equal(t, "stamp", fx.repo.attachments[0].FieldName)
	assert.Equal(t, "image/png", fx.repo.attachments[0].ContentType)
	assert.NotEmpty(t, fx.repo.attachments[0].SubmitterID)
}

func TestGetMaterializesArtifactsAndSerializes(t *testing.T) {
	fx := newSubmissionFixture()
	now := time.Now().UTC()
	fx.repo.submissions["sm-1"] = &models.Submission{
		ID: "sm-1", TemplateID: "tpl-1", AccountID: "acc-1",
		CreatedByUserID: "usr-1", Source: models.SourceAPI,
		SubmittersOrder: models.OrderPreserved,
	}
	fx.repo.submitters["sm-1"] = []models.Submitter{
		{ID: "sub-1", SubmissionID: "sm-1", UUID: "role-first", CompletedAt: &now},
		{ID: "sub-2", SubmissionID: "sm-1", UUID: "role-second", CompletedAt: &now},
	}

	view, err := fx.svc.Get(context.Background(), creatorClaims(), "sm-1")

	require.NoError(t, err)
	assert.Equal(t, "completed", view.Status)
	assert.Equal(t, 2, fx.artifacts.resultCalls, "completed submitters get their documents materialized")
	assert.Equal(t, 1, fx.artifacts.auditCalls)
}

func TestGetDeniedForForeignAccount(t *testing.T) {
	fx := newSubmissionFixture()
	fx.repo.submissions["sm-1"] = &models.Submission{
		ID: "sm-1", TemplateID: "tpl-1", AccountID: "acc-1", CreatedByUserID: "usr-1",
	}

	_, err := fx.svc.Get(context.Background(), &models.JWTClaims{UserID: "usr-9", AccountID: "acc-other", Role: models.RoleUser}, "sm-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestArchiveIsIdempotent(t *testing.T) {
	fx := newSubmissionFixture()
	fx.repo.submissions["sm-1"] = &models.Submission{
		ID: "sm-1", TemplateID: "tpl-1", AccountID: "acc-1", CreatedByUserID: "usr-1",
	}

	first, err := fx.svc.Archive(context.Background(), creatorClaims(), "sm-1")
	require.NoError(t, err)

	second, err := fx.svc.Archive(context.Background(), creatorClaims(), "sm-1")
	require.NoError(t, err)
	assert.Equal(t, first.ArchivedAt, second.ArchivedAt, "repeat archive returns the original timestamp")
}

func TestGetUnknownSubmissionReturnsNotFound(t *testing.T) {
	fx := newSubmissionFixture()

	_, err := fx.svc.Get(context.Background(), creatorClaims(), "sm-missing")

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestArchiveUnknownSubmissionReturnsNotFound(t *testing.T) {
	fx := newSubmissionFixture()

	_, err := fx.svc.Archive(context.Background(), creatorClaims(), "sm-missing")

	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
