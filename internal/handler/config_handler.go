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

type appConfigService interface {
	Resolve(ctx context.Context) string
	ResolveSource(ctx context.Context) (string, bool)
	Update(ctx context.Context, url string) error
}

// ConfigHandler exposes deployment configuration endpoints.
type ConfigHandler struct {
	service appConfigService
}

// NewConfigHandler builds a new handler.
func NewConfigHandler(service appConfigService) *ConfigHandler {
	return &ConfigHandler{service: service}
}

// GetAppURL godoc
// @Summary Get the configured base URL
// @Tags Config
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /config/app-url [get]
func (h *ConfigHandler) GetAppURL(c *gin.Context) {
	url, cacheHit := h.service.ResolveSource(c.Request.Context())
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, gin.H{"url": url}, nil, middleware.ExtractMeta(c))
}

// UpdateAppURL godoc
// @Summary Update the configured base URL
// @Tags Config
// @Accept json
// @Produce json
// @Param payload body dto.UpdateAppURLRequest true "New base URL"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /config/app-url [put]
func (h *ConfigHandler) UpdateAppURL(c *gin.Context) {
	var req dto.UpdateAppURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid config payload"))
		return
	}
	if err := h.service.Update(c.Request.Context(), req.URL); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"url": h.service.Resolve(c.Request.Context())}, nil)
}
