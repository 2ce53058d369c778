package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/middleware"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
	"github.com/sealbase/sealbase-api/pkg/response"
)

type submitterService interface {
	ShowSubmitter(ctx context.Context, slug string, evCtx dto.EventContext) (*dto.SubmitterSnapshot, error)
	CompleteSubmitter(ctx context.Context, slug string, req dto.CompleteFormRequest, evCtx dto.EventContext) (*dto.SubmitterSnapshot, error)
}

// SubmitterHandler exposes the public signing-party endpoints addressed by
// slug rather than bearer token.
type SubmitterHandler struct {
	service submitterService
}

// NewSubmitterHandler builds a new handler.
func NewSubmitterHandler(service submitterService) *SubmitterHandler {
	return &SubmitterHandler{service: service}
}

// Show godoc
// @Summary Open a signing form
// @Tags Submitters
// @Produce json
// @Param slug path string true "Submitter slug"
// @Success 200 {object} response.Envelope
// @Router /submitters/{slug} [get]
func (h *SubmitterHandler) Show(c *gin.Context) {
	snapshot, err := h.service.ShowSubmitter(c.Request.Context(), c.Param("slug"), middleware.EventContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Complete godoc
// @Summary Submit a completion signal
// @Tags Submitters
// @Accept json
// @Produce json
// @Param slug path string true "Submitter slug"
// @Param payload body dto.CompleteFormRequest true "Collected field values"
// @Success 200 {object} response.Envelope
// @Router /submitters/{slug}/complete [post]
func (h *SubmitterHandler) Complete(c *gin.Context) {
	var req dto.CompleteFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
		return
	}
	snapshot, err := h.service.CompleteSubmitter(c.Request.Context(), c.Param("slug"), req, middleware.EventContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}
