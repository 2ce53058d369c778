package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/middleware"
	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

type submissionServiceMock struct {
	createResp []*dto.SubmitterSnapshot
	createErr  error
	createReq  *dto.CreateSubmissionRequest
	getResp    *dto.SubmissionSnapshot
	getErr     error
	listFilter *dto.SubmissionFilter
}

func (m *submissionServiceMock) Create(_ context.Context, _ *models.JWTClaims, req dto.CreateSubmissionRequest, _ dto.EventContext) ([]*dto.SubmitterSnapshot, error) {
	m.createReq = &req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResp, nil
}

func (m *submissionServiceMock) Get(_ context.Context, _ *models.JWTClaims, _ string) (*dto.SubmissionSnapshot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getResp, nil
}

func (m *submissionServiceMock) List(_ context.Context, _ *models.JWTClaims, filter dto.SubmissionFilter) ([]*dto.SubmissionSnapshot, *models.Pagination, error) {
	m.listFilter = &filter
	return []*dto.SubmissionSnapshot{}, &models.Pagination{}, nil
}

func (m *submissionServiceMock) Archive(_ context.Context, _ *models.JWTClaims, id string) (*dto.ArchiveResponse, error) {
	return &dto.ArchiveResponse{ID: id, ArchivedAt: "2026-08-29T00:00:00Z"}, nil
}

func testContext(t *testing.T, method, target string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "usr-1", AccountID: "acc-1", Role: models.RoleUser})
	return c, w
}

func TestSubmissionHandlerCreateRejectsInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubmissionHandler(&submissionServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerCreatePassesPayloadThrough(t *testing.T) {
	mock := &submissionServiceMock{createResp: []*dto.SubmitterSnapshot{{ID: "sub-1", Slug: "slug-a"}}}
	handler := NewSubmissionHandler(mock)
	c, w := testContext(t, http.MethodPost, "/submissions", dto.CreateSubmissionRequest{
		TemplateID: "tpl-1",
		Emails:     []string{"a@example.com"},
	})

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mock.createReq)
	assert.Equal(t, "tpl-1", mock.createReq.TemplateID)
	assert.Contains(t, w.Body.String(), `"slug":"slug-a"`, "created parties come back as submitter snapshots")
}

func TestSubmissionHandlerCreateSurfacesValidationStatus(t *testing.T) {
	mock := &submissionServiceMock{createErr: appErrors.Clone(appErrors.ErrValidation, "emails and submitters cannot be combined in one request")}
	handler := NewSubmissionHandler(mock)
	c, w := testContext(t, http.MethodPost, "/submissions", dto.CreateSubmissionRequest{
		TemplateID: "tpl-1",
		Emails:     []string{"a@example.com"},
		Submitters: []dto.SubmitterParams{{Email: "b@example.com"}},
	})

	handler.Create(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmissionHandlerIndexParsesFilter(t *testing.T) {
	mock := &submissionServiceMock{}
	handler := NewSubmissionHandler(mock)
	c, w := testContext(t, http.MethodGet, "/submissions?template_id=tpl-1&archived=true&limit=25&q=ada", nil)

	handler.Index(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.listFilter)
	assert.Equal(t, "tpl-1", mock.listFilter.TemplateID)
	assert.True(t, mock.listFilter.IncludeArchived)
	assert.Equal(t, 25, mock.listFilter.Limit)
	assert.Equal(t, "ada", mock.listFilter.Query)
}

func TestSubmissionHandlerIndexRejectsBadLimit(t *testing.T) {
	handler := NewSubmissionHandler(&submissionServiceMock{})
	c, w := testContext(t, http.MethodGet, "/submissions?limit=nope", nil)

	handler.Index(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmissionHandlerShowSurfacesNotFound(t *testing.T) {
	handler := NewSubmissionHandler(&submissionServiceMock{getErr: appErrors.ErrNotFound})
	c, w := testContext(t, http.MethodGet, "/submissions/sm-404", nil)
	c.Params = gin.Params{{Key: "id", Value: "sm-404"}}

	handler.Show(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
