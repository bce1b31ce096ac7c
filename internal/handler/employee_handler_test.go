package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
)

type fakeEmployeeSrv struct {
	lastFilter models.EmployeeFilter
	assistant  dto.AssistantProfileRequest
	assistantOwner string
}

func (f *fakeEmployeeSrv) List(_ context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.Employee{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeEmployeeSrv) Get(_ context.Context, id string) (*models.EmployeeDetail, error) {
	return &models.EmployeeDetail{Employee: models.Employee{ID: id}}, nil
}

func (f *fakeEmployeeSrv) Create(context.Context, dto.EmployeeRequest, service.Actor) (*models.Employee, error) {
	return &models.Employee{}, nil
}

func (f *fakeEmployeeSrv) Update(context.Context, string, dto.EmployeeRequest, service.Actor) (*models.Employee, error) {
	return &models.Employee{}, nil
}

func (f *fakeEmployeeSrv) Delete(context.Context, string, service.Actor) error { return nil }

func (f *fakeEmployeeSrv) UpsertDriver(_ context.Context, employeeID string, _ dto.DriverProfileRequest, _ service.Actor) (*models.Driver, error) {
	return &models.Driver{EmployeeID: employeeID}, nil
}

func (f *fakeEmployeeSrv) UpsertAssistant(_ context.Context, employeeID string, req dto.AssistantProfileRequest, _ service.Actor) (*models.PassengerAssistant, error) {
	f.assistantOwner = employeeID
	f.assistant = req
	return &models.PassengerAssistant{EmployeeID: employeeID}, nil
}

func (f *fakeEmployeeSrv) RotateAssistantQRToken(context.Context, string, service.Actor) (string, error) {
	return "a1b2c3", nil
}

func TestEmployeeHandlerListUppercasesEnums(t *testing.T) {
	srv := &fakeEmployeeSrv{}
	router := newTestRouter()
	router.GET("/employees", NewEmployeeHandler(srv).List)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/employees?role=driver&status=active&can_work=false", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EmployeeDriver, srv.lastFilter.Role)
	assert.Equal(t, models.EmploymentActive, srv.lastFilter.Status)
	require.NotNil(t, srv.lastFilter.CanWork)
	assert.False(t, *srv.lastFilter.CanWork)
}

func TestEmployeeHandlerUpsertAssistant(t *testing.T) {
	srv := &fakeEmployeeSrv{}
	router := newTestRouter()
	router.PUT("/employees/:id/assistant", NewEmployeeHandler(srv).UpsertAssistant)

	req := httptest.NewRequest(http.MethodPut, "/employees/e-7/assistant", bytes.NewBufferString(`{"tas_badge_expiry_date":"2026-11-01","auto_home_stop":true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := performRequest(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e-7", srv.assistantOwner)
	assert.True(t, srv.assistant.AutoHomeStop)
	require.NotNil(t, srv.assistant.TASBadgeExpiry)
	assert.Equal(t, "2026-11-01", *srv.assistant.TASBadgeExpiry)
}

func TestEmployeeHandlerRotateAssistantQRToken(t *testing.T) {
	router := newTestRouter()
	router.POST("/employees/:id/assistant/qr-token", NewEmployeeHandler(&fakeEmployeeSrv{}).RotateAssistantQRToken)

	rec := performRequest(router, httptest.NewRequest(http.MethodPost, "/employees/e-7/assistant/qr-token", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"qr_token":"a1b2c3"`)
}
