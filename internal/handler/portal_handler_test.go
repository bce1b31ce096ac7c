package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type fakePortalSrv struct {
	lastToken string
	lastNote  dto.VehicleNoteRequest
	lastActor service.Actor
	files     int
}

func (f *fakePortalSrv) AssistantView(_ context.Context, token string) (*dto.AssistantPortalView, error) {
	f.lastToken = token
	if token != "qr-good" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "link not found")
	}
	return &dto.AssistantPortalView{FullName: "Sam Carter", CanWork: true}, nil
}

func (f *fakePortalSrv) AssistantUpload(_ context.Context, token, _ string, files []service.UploadFile, _ service.Actor) (*dto.UploadResult, error) {
	f.lastToken, f.files = token, len(files)
	return &dto.UploadResult{Uploaded: len(files)}, nil
}

func (f *fakePortalSrv) VehicleView(_ context.Context, token string) (*dto.VehiclePortalView, error) {
	f.lastToken = token
	return &dto.VehiclePortalView{}, nil
}

func (f *fakePortalSrv) VehicleNote(_ context.Context, token string, req dto.VehicleNoteRequest, actor service.Actor) (*models.VehicleUpdate, error) {
	f.lastToken, f.lastNote, f.lastActor = token, req, actor
	return &models.VehicleUpdate{Message: req.Message}, nil
}

func (f *fakePortalSrv) VehicleStatusUpdate(ctx context.Context, token string, req dto.VehicleNoteRequest, actor service.Actor) (*models.VehicleUpdate, error) {
	return f.VehicleNote(ctx, token, req, actor)
}

func (f *fakePortalSrv) VehicleBreakdown(_ context.Context, token string, req dto.BreakdownRequest, _ service.Actor) (*models.VehicleUpdate, error) {
	f.lastToken = token
	return &models.VehicleUpdate{Message: req.Message}, nil
}

func (f *fakePortalSrv) NotificationView(_ context.Context, token string) (*dto.NotificationPortalView, error) {
	f.lastToken = token
	return nil, appErrors.Clone(appErrors.ErrTokenExpired, "link has expired")
}

func (f *fakePortalSrv) NotificationUpload(_ context.Context, token string, files []service.UploadFile, _ service.Actor) (*dto.UploadResult, error) {
	f.lastToken, f.files = token, len(files)
	return &dto.UploadResult{Uploaded: 0, Failed: len(files)}, nil
}

func portalRouter(srv *fakePortalSrv) http.Handler {
	router := newTestRouter()
	handler := NewPortalHandler(srv)
	router.GET("/portal/assistants/:qrToken", handler.Assistant)
	router.POST("/portal/assistants/:qrToken/documents", handler.AssistantUpload)
	router.POST("/portal/vehicles/:qrToken/notes", handler.VehicleNote)
	router.GET("/portal/documents/:token", handler.Document)
	router.POST("/portal/documents/:token", handler.DocumentUpload)
	return router
}

func TestPortalHandlerAssistantUnknownToken(t *testing.T) {
	srv := &fakePortalSrv{}
	rec := httptest.NewRecorder()
	portalRouter(srv).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/assistants/qr-missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "qr-missing", srv.lastToken)
}

func TestPortalHandlerAssistantView(t *testing.T) {
	rec := httptest.NewRecorder()
	portalRouter(&fakePortalSrv{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/assistants/qr-good", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"full_name":"Sam Carter"`)
}

func TestPortalHandlerAssistantUpload(t *testing.T) {
	srv := &fakePortalSrv{}
	req := multipartRequest(t, http.MethodPost, "/portal/assistants/qr-good/documents", map[string]string{"document_type": "DBS"}, map[string][]byte{"dbs.jpg": []byte("\xff\xd8")})
	rec := httptest.NewRecorder()
	portalRouter(srv).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, srv.files)
}

func TestPortalHandlerVehicleNoteIsAnonymous(t *testing.T) {
	srv := &fakePortalSrv{}
	req := httptest.NewRequest(http.MethodPost, "/portal/vehicles/veh-qr/notes", strings.NewReader(`{"message":"Tyre pressure low","submitted_by":"Garage"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "portal-test")
	rec := httptest.NewRecorder()
	portalRouter(srv).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "veh-qr", srv.lastToken)
	assert.Equal(t, "Tyre pressure low", srv.lastNote.Message)
	assert.Nil(t, srv.lastActor.UserID)
	assert.Equal(t, "portal-test", srv.lastActor.UserAgent)
}

func TestPortalHandlerVehicleNoteRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/portal/vehicles/veh-qr/notes", strings.NewReader(`{"message":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	portalRouter(&fakePortalSrv{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPortalHandlerDocumentExpiredLink(t *testing.T) {
	rec := httptest.NewRecorder()
	portalRouter(&fakePortalSrv{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/documents/tok-1", nil))

	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", decodeEnvelope(t, rec).Error["code"])
}

func TestPortalHandlerDocumentUploadAllRejected(t *testing.T) {
	srv := &fakePortalSrv{}
	req := multipartRequest(t, http.MethodPost, "/portal/documents/tok-1", nil, map[string][]byte{"renewal.docx": []byte("PK")})
	rec := httptest.NewRecorder()
	portalRouter(srv).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "tok-1", srv.lastToken)
}
