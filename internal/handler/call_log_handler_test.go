package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
)

type fakeCallLogSrv struct {
	last models.CallLogFilter
}

func (f *fakeCallLogSrv) List(_ context.Context, filter models.CallLogFilter) ([]models.CallLog, *models.Pagination, error) {
	f.last = filter
	return []models.CallLog{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeCallLogSrv) Get(context.Context, string) (*models.CallLog, error) {
	return &models.CallLog{}, nil
}

func (f *fakeCallLogSrv) Create(context.Context, dto.CallLogRequest, service.Actor) (*models.CallLog, error) {
	return &models.CallLog{}, nil
}

func (f *fakeCallLogSrv) Update(context.Context, string, dto.CallLogRequest) (*models.CallLog, error) {
	return &models.CallLog{}, nil
}

func (f *fakeCallLogSrv) Delete(context.Context, string) error { return nil }

func TestCallLogHandlerListParsesFilters(t *testing.T) {
	srv := &fakeCallLogSrv{}
	router := newTestRouter()
	router.GET("/call-logs", NewCallLogHandler(srv).List)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/call-logs?caller_type=parent&route_id=rt-9&action_required=true&from=2026-10-01&to=2026-10-16T12:00:00Z&page=2&limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PARENT", srv.last.CallerType)
	assert.Equal(t, "rt-9", srv.last.RouteID)
	require.NotNil(t, srv.last.ActionRequired)
	assert.True(t, *srv.last.ActionRequired)
	require.NotNil(t, srv.last.From)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), *srv.last.From)
	require.NotNil(t, srv.last.To)
	assert.Equal(t, 12, srv.last.To.Hour())
	assert.Equal(t, 2, srv.last.Page)
	assert.Equal(t, 5, srv.last.PageSize)
}

func TestCallLogHandlerListRejectsBadDate(t *testing.T) {
	srv := &fakeCallLogSrv{}
	router := newTestRouter()
	router.GET("/call-logs", NewCallLogHandler(srv).List)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/call-logs?from=16/10/2026", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "from must be YYYY-MM-DD or RFC3339", decodeEnvelope(t, rec).Error["message"])
}
