package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req dto.LoginRequest, actor service.Actor) (*dto.LoginResult, error)
	Refresh(ctx context.Context, req dto.RefreshRequest, actor service.Actor) (*dto.TokenPair, error)
	Logout(ctx context.Context, refreshToken string, actor service.Actor) error
	Me(ctx context.Context, userID string) (*dto.Profile, error)
}

// AuthHandler serves office account sign in.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Login(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Refresh godoc
// @Summary Rotate refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Refresh(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Close the session behind a refresh token
// @Tags Auth
// @Accept json
// @Param payload body dto.RefreshRequest true "Refresh token"
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if req.RefreshToken == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "refresh_token is required"))
		return
	}
	if err := h.service.Logout(c.Request.Context(), req.RefreshToken, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
