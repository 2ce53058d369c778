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

type mockSubmitterStore struct {
	rows map[string]*models.Submitter

	markOpenedCalls int
	completeCalls   int
}

func (m *mockSubmitterStore) GetByID(_ context.Context, id string) (*models.Submitter, error) {
	for _, row := range m.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockSubmitterStore) GetBySlug(_ context.Context, slug string) (*models.Submitter, error) {
	row, ok := m.rows[slug]
	if !ok {
		return nil, fmt.Errorf("get submitter by slug: %w", sql.ErrNoRows)
	}
	copied := *row
	return &copied, nil
}

func (m *mockSubmitterStore) ListBySubmission(_ context.Context, submissionID string) ([]models.Submitter, error) {
	var out []models.Submitter
	for pos := 0; pos < len(m.rows); pos++ {
		for _, row := range m.rows {
			if row.SubmissionID == submissionID && row.Position == pos {
				out = append(out, *row)
			}
		}
	}
	return out, nil
}

func (m *mockSubmitterStore) MarkOpened(_ context.Context, id string, at time.Time) error {
	m.markOpenedCalls++
	for _, row := range m.rows {
		if row.ID == id && row.OpenedAt == nil {
			opened := at
			row.OpenedAt = &opened
		}
	}
	return nil
}

func (m *mockSubmitterStore) Complete(_ context.Context, id string, values models.JSONMap, at time.Time) (bool, error) {
	m.completeCalls++
	for _, row := range m.rows {
		if row.ID != id {
			continue
		}
		if row.CompletedAt != nil {
			return false, nil
		}
		completed := at
		row.CompletedAt = &completed
		row.Values = values
		return true, nil
	}
	return false, nil
}

type mockSubmissionStore struct {
	submission *models.Submission
}

func (m *mockSubmissionStore) GetByID(_ context.Context, id string) (*models.Submission, error) {
	if m.submission == nil || m.submission.ID != id {
		return nil, appErrors.ErrNotFound
	}
	copied := *m.submission
	return &copied, nil
}

type mockTemplateStore struct {
	template *models.Template
}

func (m *mockTemplateStore) GetByID(_ context.Context, id string) (*models.Template, error) {
	if m.template == nil || m.template.ID != id {
		return nil, appErrors.ErrNotFound
	}
	return m.template, nil
}

type mockEventAppender struct {
	events []models.SubmissionEvent
}

func (m *mockEventAppender) Append(_ context.Context, event *models.SubmissionEvent) error {
	m.events = append(m.events, *event)
	return nil
}

type mockArtifactEnsurer struct {
	resultCalls int
	auditCalls  int
}

func (m *mockArtifactEnsurer) EnsureSubmitterDocuments(_ context.Context, _ *models.Template, _ *models.Submitter) ([]models.Document, error) {
	m.resultCalls++
	return nil, nil
}

func (m *mockArtifactEnsurer) EnsureAuditTrail(_ context.Context, _ *models.Submission, submitters []models.Submitter) (*models.Document, error) {
	for i := range submitters {
		if !submitters[i].Completed() {
			return nil, nil
		}
	}
	m.auditCalls++
	return &models.Document{ID: "audit-doc"}, nil
}

type mockCompletionNotifier struct {
	notified []string
}

func (m *mockCompletionNotifier) NotifySubmitterCompleted(_ context.Context, submitter *models.Submitter) {
	m.notified = append(m.notified, submitter.ID)
}

type trackerFixture struct {
	svc        *TrackerService
	submitters *mockSubmitterStore
	events     *mockEventAppender
	artifacts  *mockArtifactEnsurer
	notifier   *mockCompletionNotifier
}

func newTrackerFixture(order models.SubmittersOrder, enforceCompletion bool) *trackerFixture {
	submitters := &mockSubmitterStore{rows: map[string]*models.Submitter{
		"slug-first": {
			ID: "sub-1", SubmissionID: "sm-1", UUID: "role-first",
			Slug: "slug-first", Email: "a@example.com", Position: 0,
		},
		"slug-second": {
			ID: "sub-2", SubmissionID: "sm-1", UUID: "role-second",
			Slug: "slug-second", Email: "b@example.com", Position: 1,
		},
	}}
	submissions := &mockSubmissionStore{submission: &models.Submission{
		ID: "sm-1", TemplateID: "tpl-1", AccountID: "acc-1",
		SubmittersOrder: order,
	}}
	templates := &mockTemplateStore{template: twoRoleTemplate()}
	events := &mockEventAppender{}
	artifacts := &mockArtifactEnsurer{}
	notifier := &mockCompletionNotifier{}
	svc := NewTrackerService(submitters, submissions, templates, events, artifacts, notifier, nil, enforceCompletion)
	return &trackerFixture{svc: svc, submitters: submitters, events: events, artifacts: artifacts, notifier: notifier}
}

func TestTrackerOpenRecordsFirstViewOnly(t *testing.T) {
	fx := newTrackerFixture(models.OrderPreserved, true)

	first, err := fx.svc.Open(context.Background(), "slug-first", dto.EventContext{IP: "10.0.0.1"})
	require.NoError(t, err)
	require.NotNil(t, first.OpenedAt)
	openedAt := *fx.submitters.rows["slug-first"].OpenedAt

	_, err = fx.svc.Open(context.Background(), "slug-first", dto.EventContext{})
	require.NoError(t, err)

	assert.Equal(t, openedAt, *fx.submitters.rows["slug-first"].OpenedAt, "opened timestamp never moves")
	require.Len(t, fx.events.events, 2, "every view appends an event")
	assert.Equal(t, models.EventViewForm, fx.events.events[0].EventType)
	assert.Equal(t, "10.0.0.1", fx.events.events[0].Data["ip"])
}

func TestTrackerOpenEnforcesPreservedOrder(t *testing.T) {
	fx := newTrackerFixture(models.OrderPreserved, true)

	_, err := fx.svc.Open(context.Background(), "slug-second", dto.EventContext{})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOrderingViolation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, fx.submitters.markOpenedCalls)
}

func TestTrackerOpenRandomOrderUnrestricted(t *testing.T) {
	fx := newTrackerFixture(models.OrderRandom, true)

	_, err := fx.svc.Open(context.Background(), "slug-second", dto.EventContext{})

	require.NoError(t, err)
}

func TestTrackerCompleteRejectsRepeatedSignal(t *testing.T) {
	fx := newTrackerFixture(models.OrderPreserved, true)

	_, err := fx.svc.Complete(context.Background(), "slug-first", dto.CompleteFormRequest{}, dto.EventContext{})
	require.NoError(t, err)

	_, err = fx.svc.Complete(context.Background(), "slug-first", dto.CompleteFormRequest{}, dto.EventContext{})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyCompleted.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
	assert.Equal(t, 1, fx.submitters.completeCalls, "no second write reaches the store")
}

func TestTrackerCompleteOrderGateConfigurable(t *testing.T) {
	strict := newTrackerFixture(models.OrderPreserved, true)
	_, err := strict.svc.Complete(context.Background(), "slug-second", dto.CompleteFormRequest{}, dto.EventContext{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOrderingViolation.Code, appErrors.FromError(err).Code)

	lenient := newTrackerFixture(models.OrderPreserved, false)
	_, err = lenient.svc.Complete(context.Background(), "slug-second", dto.CompleteFormRequest{}, dto.EventContext{})
	require.NoError(t, err)
}

func TestTrackerCompleteFinalizesSubmission(t *testing.T) {
	fx := newTrackerFixture(models.OrderPreserved, true)

	_, err := fx.svc.Complete(context.Background(), "slug-first", dto.CompleteFormRequest{
		Values: map[string]interface{}{"signature": "signed"},
	}, dto.EventContext{RequestID: "req-1"})
	require.NoError(t, err)
	assert.Zero(t, fx.artifacts.auditCalls, "audit trail waits for the last party")

	second, err := fx.svc.Complete(context.Background(), "slug-second", dto.CompleteFormRequest{
		Values: map[string]interface{}{"countersign": "signed"},
	}, dto.EventContext{})
	require.NoError(t, err)

	assert.True(t, second.Completed())
	assert.Equal(t, 2, fx.artifacts.resultCalls)
	assert.Equal(t, 1, fx.artifacts.auditCalls, "audit trail generated when the last party completes")
	assert.Equal(t, []string{"sub-1", "sub-2"}, fx.notifier.notified)

	require.Len(t, fx.events.events, 2)
	assert.Equal(t, models.EventCompleteForm, fx.events.events[0].EventType)
	assert.Equal(t, "req-1", fx.events.events[0].Data["request_id"])
	assert.Equal(t, "signed", fx.submitters.rows["slug-first"].Values["signature"])
}

func TestTrackerProcessCompletedSubmitterSkipsPending(t *testing.T) {
	fx := newTrackerFixture(models.OrderPreserved, true)

	err := fx.svc.ProcessCompletedSubmitter(context.Background(), "sub-1")

	require.NoError(t, err)
	assert.Zero(t, fx.artifacts.resultCalls)
	assert.Empty(t, fx.notifier.notified)
}

func TestTrackerProcessCompletedSubmitterMaterializes(t *testing.T) {
	fx := newTrackerFixture(models.OrderPreserved, true)
	now := time.Now().UTC()
	fx.submitters.rows["slug-first"].CompletedAt = &now

	err := fx.svc.ProcessCompletedSubmitter(context.Background(), "sub-1")

	require.NoError(t, err)
	assert.Equal(t, 1, fx.artifacts.resultCalls)
	assert.Empty(t, fx.notifier.notified, "creation-time completion does not re-enqueue")
}

func TestOpenUnknownSlugReturnsNotFound(t *testing.T) {
	fx := newTrackerFixture(models.OrderPreserved, true)

	_, err := fx.svc.Open(context.Background(), "no-such-slug", dto.EventContext{})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestCompleteUnknownSlugReturnsNotFound(t *testing.T) {
	fx := newTrackerFixture(models.OrderPreserved, true)

	_, err := fx.svc.Complete(context.Background(), "no-such-slug", dto.CompleteFormRequest{}, dto.EventContext{})

	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
