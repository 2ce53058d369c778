package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
	"github.com/sealbase/sealbase-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error)
	GenerateMagicLink(ctx context.Context, actor *models.JWTClaims, email string) (*dto.MagicLinkResponse, error)
	ConsumeMagicLink(ctx context.Context, token string) (*dto.TokenResponse, error)
}

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	service authService
}

// NewAuthHandler builds a new handler.
func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login godoc
// @Summary Authenticate with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	token, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}

// MagicLink godoc
// @Summary Generate a one-time login link
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.MagicLinkRequest true "Target user"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/magic-link [post]
func (h *AuthHandler) MagicLink(c *gin.Context) {
	var req dto.MagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid magic link payload"))
		return
	}
	link, err := h.service.GenerateMagicLink(c.Request.Context(), claimsFromContext(c), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// MagicLogin godoc
// @Summary Exchange a one-time login token for an access token
// @Tags Auth
// @Produce json
// @Param token query string true "Login token"
// @Success 200 {object} response.Envelope
// @Router /auth/magic-login [get]
func (h *AuthHandler) MagicLogin(c *gin.Context) {
	token, err := h.service.ConsumeMagicLink(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}
