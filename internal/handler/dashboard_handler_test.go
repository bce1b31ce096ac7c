package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/middleware"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type fakeDashboardSrv struct {
	resp *dto.DashboardResponse
	hit  bool
	err  error
}

func (f *fakeDashboardSrv) Overview(context.Context) (*dto.DashboardResponse, bool, error) {
	return f.resp, f.hit, f.err
}

func TestDashboardHandlerOverviewReportsCacheAndUnavailable(t *testing.T) {
	router := newTestRouter()
	router.Use(middleware.WithResponseMeta())
	handler := NewDashboardHandler(&fakeDashboardSrv{
		resp: &dto.DashboardResponse{Vehicles: 12, VehiclesOffRoad: 2, Unavailable: []string{"incidents"}},
		hit:  false,
	})
	router.GET("/dashboard", handler.Overview)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
	assert.Equal(t, []interface{}{"incidents"}, envelope.Meta["unavailable"])
	assert.Contains(t, string(envelope.Data), `"vehicles_off_road":2`)
	assert.NotContains(t, string(envelope.Data), "Unavailable")
}

func TestDashboardHandlerOverviewCompleteHasNoUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{resp: &dto.DashboardResponse{}, hit: true})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Overview(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	_, present := envelope.Meta["unavailable"]
	assert.False(t, present)
}

func TestDashboardHandlerOverviewError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.Clone(appErrors.ErrInternal, "dashboard unavailable")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Overview(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "dashboard unavailable", decodeEnvelope(t, rec).Error["message"])
}
