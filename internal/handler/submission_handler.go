package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/middleware"
	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
	"github.com/sealbase/sealbase-api/pkg/response"
)

type submissionService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateSubmissionRequest, evCtx dto.EventContext) ([]*dto.SubmitterSnapshot, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*dto.SubmissionSnapshot, error)
	List(ctx context.Context, claims *models.JWTClaims, filter dto.SubmissionFilter) ([]*dto.SubmissionSnapshot, *models.Pagination, error)
	Archive(ctx context.Context, claims *models.JWTClaims, id string) (*dto.ArchiveResponse, error)
}

// SubmissionHandler exposes the submission endpoints.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler builds a new handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// Index godoc
// @Summary List submissions
// @Tags Submissions
// @Produce json
// @Param template_id query string false "Filter by template"
// @Param template_folder query string false "Filter by template folder"
// @Param q query string false "Search by submitter name, email or phone"
// @Param archived query bool false "Include only archived submissions"
// @Param limit query int false "Page size, max 100"
// @Param before query string false "Return results before this submission id"
// @Param after query string false "Return results after this submission id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions [get]
func (h *SubmissionHandler) Index(c *gin.Context) {
	filter := dto.SubmissionFilter{
		TemplateID:     c.Query("template_id"),
		TemplateFolder: c.Query("template_folder"),
		Query:          c.Query("q"),
		Slug:           c.Query("slug"),
		Before:         c.Query("before"),
		After:          c.Query("after"),
	}
	if raw := c.Query("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid archived parameter"))
			return
		}
		filter.IncludeArchived = archived
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid limit parameter"))
			return
		}
		filter.Limit = limit
	}

	snapshots, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshots, pagination)
}

// Show godoc
// @Summary Get a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Show(c *gin.Context) {
	snapshot, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Create godoc
// @Summary Create submissions from a template
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubmissionRequest true "Creation payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	snapshots, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req, middleware.EventContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, snapshots)
}

// Destroy godoc
// @Summary Archive a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Destroy(c *gin.Context) {
	result, err := h.service.Archive(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
