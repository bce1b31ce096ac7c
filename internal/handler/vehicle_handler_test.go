package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
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

type fakeVehicleSrv struct {
	lastFilter models.VehicleFilter
	breakdown  dto.BreakdownRequest
	actor      service.Actor
}

func (f *fakeVehicleSrv) List(_ context.Context, filter models.VehicleFilter) ([]models.Vehicle, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.Vehicle{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeVehicleSrv) Get(_ context.Context, id string) (*models.Vehicle, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
}

func (f *fakeVehicleSrv) Create(context.Context, dto.VehicleRequest, service.Actor) (*models.Vehicle, error) {
	return &models.Vehicle{}, nil
}

func (f *fakeVehicleSrv) Update(context.Context, string, dto.VehicleRequest, service.Actor) (*models.Vehicle, error) {
	return &models.Vehicle{}, nil
}

func (f *fakeVehicleSrv) Delete(context.Context, string, service.Actor) error { return nil }

func (f *fakeVehicleSrv) RotateQRToken(context.Context, string, service.Actor) (string, error) {
	return "3f9a0c", nil
}

func (f *fakeVehicleSrv) AddNote(_ context.Context, vehicleID string, req dto.VehicleNoteRequest, _ service.Actor) (*models.VehicleUpdate, error) {
	return &models.VehicleUpdate{VehicleID: vehicleID, Kind: models.VehicleUpdateNote, Message: req.Message}, nil
}

func (f *fakeVehicleSrv) ReportBreakdown(_ context.Context, vehicleID string, req dto.BreakdownRequest, actor service.Actor) (*models.VehicleUpdate, error) {
	f.breakdown = req
	f.actor = actor
	return &models.VehicleUpdate{VehicleID: vehicleID, Kind: models.VehicleUpdateBreakdown, Message: req.Message}, nil
}

func (f *fakeVehicleSrv) ListUpdates(context.Context, string) ([]models.VehicleUpdate, error) {
	return []models.VehicleUpdate{}, nil
}

func TestVehicleHandlerListFilters(t *testing.T) {
	srv := &fakeVehicleSrv{}
	router := newTestRouter()
	router.GET("/vehicles", NewVehicleHandler(srv).List)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/vehicles?off_road=true&type=+Minibus+&search=AB12", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.lastFilter.OffRoad)
	assert.True(t, *srv.lastFilter.OffRoad)
	assert.Equal(t, "Minibus", srv.lastFilter.Type)
	assert.Equal(t, "AB12", srv.lastFilter.Search)
	assert.Equal(t, 20, srv.lastFilter.PageSize)
}

func TestVehicleHandlerGetNotFound(t *testing.T) {
	router := newTestRouter()
	router.GET("/vehicles/:id", NewVehicleHandler(&fakeVehicleSrv{}).Get)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/vehicles/v-1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVehicleHandlerReportBreakdownUsesClaims(t *testing.T) {
	srv := &fakeVehicleSrv{}
	router := newTestRouter()
	router.POST("/vehicles/:id/breakdown", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.AccessClaims{UserID: "u-1", Name: "Ops Desk"})
		c.Next()
	}, NewVehicleHandler(srv).ReportBreakdown)

	req := httptest.NewRequest(http.MethodPost, "/vehicles/v-1/breakdown", bytes.NewBufferString(`{"message":"Gearbox failure","mileage":120450}`))
	req.Header.Set("Content-Type", "application/json")
	rec := performRequest(router, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Gearbox failure", srv.breakdown.Message)
	require.NotNil(t, srv.breakdown.Mileage)
	assert.Equal(t, 120450, *srv.breakdown.Mileage)
	require.NotNil(t, srv.actor.UserID)
	assert.Equal(t, "u-1", *srv.actor.UserID)
	assert.Equal(t, "Ops Desk", srv.actor.Name)
	assert.Contains(t, rec.Body.String(), `"kind":"BREAKDOWN"`)
}

func TestVehicleHandlerRotateQRToken(t *testing.T) {
	router := newTestRouter()
	router.POST("/vehicles/:id/qr-token", NewVehicleHandler(&fakeVehicleSrv{}).RotateQRToken)

	rec := performRequest(router, httptest.NewRequest(http.MethodPost, "/vehicles/v-1/qr-token", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"qr_token":"3f9a0c"`)
}
