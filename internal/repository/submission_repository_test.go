package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/models"
)

func TestSubmissionRepositoryCreateWithSubmittersIsAtomic(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	submission := &models.Submission{
		TemplateID: "tpl-1", AccountID: "acc-1", CreatedByUserID: "usr-1",
		Source: models.SourceAPI, SubmittersOrder: models.OrderPreserved,
	}
	submitters := []*models.Submitter{
		{UUID: "role-first", Slug: "slug-a", Email: "a@example.com", Position: 0},
		{UUID: "role-second", Slug: "slug-b", Email: "b@example.com", Position: 1},
	}
	events := []*models.SubmissionEvent{
		{SubmitterID: "ignored", EventType: models.EventAPICompleteForm, Data: models.JSONMap{}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`position, "values", metadata`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`position, "values", metadata`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submission_events")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithSubmitters(context.Background(), submission, submitters, nil, events))
	assert.NotEmpty(t, submission.ID)
	assert.Equal(t, submission.ID, submitters[0].SubmissionID)
	assert.Equal(t, submission.ID, events[0].SubmissionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	submission := &models.Submission{TemplateID: "tpl-1", AccountID: "acc-1", CreatedByUserID: "usr-1"}
	submitters := []*models.Submitter{{UUID: "role-first", Slug: "slug-a", Email: "a@example.com"}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submitters")).WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	err := repo.CreateWithSubmitters(context.Background(), submission, submitters, nil, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryGetWithSubmittersUsesConsistentRead(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM submissions WHERE id = $1")).
		WithArgs("sm-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "account_id", "created_by_user_id", "source", "submitters_order", "audit_trail_document_id", "archived_at", "created_at", "updated_at"}).
			AddRow("sm-1", "tpl-1", "acc-1", "usr-1", "api", "preserved", nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM submitters WHERE submission_id = $1 ORDER BY position ASC")).
		WithArgs("sm-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "submission_id", "uuid", "slug", "name", "email", "phone", "position", "values", "metadata", "external_id", "send_email", "send_sms", "sent_at", "opened_at", "completed_at", "created_at", "updated_at"}).
			AddRow("sub-1", "sm-1", "role-first", "slug-a", "", "a@example.com", "", 0, []byte(`{}`), []byte(`{}`), nil, true, false, nil, nil, nil, now, now))
	mock.ExpectCommit()

	submission, submitters, err := repo.GetWithSubmitters(context.Background(), "sm-1")
	require.NoError(t, err)
	assert.Equal(t, "sm-1", submission.ID)
	require.Len(t, submitters, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListBuildsFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("s.archived_at IS NULL AND s.template_id = $2")).
		WithArgs("acc-1", "tpl-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "account_id", "created_by_user_id", "source", "submitters_order", "audit_trail_document_id", "archived_at", "created_at", "updated_at"}).
			AddRow("sm-2", "tpl-1", "acc-1", "usr-1", "api", "preserved", nil, nil, now, now).
			AddRow("sm-1", "tpl-1", "acc-1", "usr-1", "api", "preserved", nil, nil, now, now))

	submissions, pagination, err := repo.List(context.Background(), "acc-1", dto.SubmissionFilter{TemplateID: "tpl-1"})
	require.NoError(t, err)
	require.Len(t, submissions, 2)
	assert.Equal(t, 2, pagination.Count)
	require.NotNil(t, pagination.Prev)
	assert.Equal(t, "sm-2", *pagination.Prev)
	require.NotNil(t, pagination.Next)
	assert.Equal(t, "sm-1", *pagination.Next)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryArchiveKeepsEarlierTimestamp(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	archived := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SET archived_at = COALESCE(archived_at, NOW())")).
		WithArgs("sm-1").
		WillReturnRows(sqlmock.NewRows([]string{"archived_at"}).AddRow(archived))

	result, err := repo.Archive(context.Background(), "sm-1")
	require.NoError(t, err)
	assert.Equal(t, archived, *result)
	require.NoError(t, mock.ExpectationsWereMet())
}
