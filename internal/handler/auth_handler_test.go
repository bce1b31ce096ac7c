package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/middleware"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type fakeAuthSrv struct {
	loginActor  service.Actor
	logoutToken string
	logoutActor service.Actor
	loginErr    error
}

func (f *fakeAuthSrv) Login(_ context.Context, req dto.LoginRequest, actor service.Actor) (*dto.LoginResult, error) {
	f.loginActor = actor
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &dto.LoginResult{TokenPair: dto.TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}, User: dto.Profile{Email: req.Email}}, nil
}

func (f *fakeAuthSrv) Refresh(context.Context, dto.RefreshRequest, service.Actor) (*dto.TokenPair, error) {
	return &dto.TokenPair{AccessToken: "next"}, nil
}

func (f *fakeAuthSrv) Logout(_ context.Context, token string, actor service.Actor) error {
	f.logoutToken = token
	f.logoutActor = actor
	return nil
}

func (f *fakeAuthSrv) Me(_ context.Context, userID string) (*dto.Profile, error) {
	return &dto.Profile{ID: userID}, nil
}

func withClaims(claims *models.AccessClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, claims)
		c.Next()
	}
}

func TestAuthHandlerLoginFlattensTokenPair(t *testing.T) {
	srv := &fakeAuthSrv{}
	router := newTestRouter()
	router.POST("/auth/login", NewAuthHandler(srv).Login)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ops@example.com","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "fleet-tests")
	rec := performRequest(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Contains(t, string(body.Data), `"access_token":"access"`)
	assert.Contains(t, string(body.Data), `"user":{`)
	assert.Equal(t, "fleet-tests", srv.loginActor.UserAgent)
	assert.Nil(t, srv.loginActor.UserID)
}

func TestAuthHandlerLoginPropagatesServiceError(t *testing.T) {
	srv := &fakeAuthSrv{loginErr: appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")}
	router := newTestRouter()
	router.POST("/auth/login", NewAuthHandler(srv).Login)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ops@example.com","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := performRequest(router, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope(t, rec).Error["code"])
}

func TestAuthHandlerLogoutPassesSignedInUser(t *testing.T) {
	srv := &fakeAuthSrv{}
	router := newTestRouter()
	router.POST("/auth/logout", withClaims(&models.AccessClaims{UserID: "u1", Name: "Ops Desk"}), NewAuthHandler(srv).Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(`{"refresh_token":"r1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := performRequest(router, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "r1", srv.logoutToken)
	require.NotNil(t, srv.logoutActor.UserID)
	assert.Equal(t, "u1", *srv.logoutActor.UserID)
	assert.Equal(t, "Ops Desk", srv.logoutActor.Name)
}

func TestAuthHandlerLogoutRequiresToken(t *testing.T) {
	router := newTestRouter()
	router.POST("/auth/logout", NewAuthHandler(&fakeAuthSrv{}).Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, performRequest(router, req).Code)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	router := newTestRouter()
	h := NewAuthHandler(&fakeAuthSrv{})
	router.GET("/me", h.Me)
	router.GET("/me-signed", withClaims(&models.AccessClaims{UserID: "u7"}), h.Me)

	assert.Equal(t, http.StatusUnauthorized, performRequest(router, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)
	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/me-signed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"id":"u7"`)
}
