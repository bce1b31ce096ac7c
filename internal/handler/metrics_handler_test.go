package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/fleet-ops-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(service.NewMetricsService()).
		WithCheck("postgres", func(context.Context) error { return nil }).
		WithCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	router := newTestRouter()
	router.GET("/ready", handler.Ready)
	router.GET("/health", handler.Health)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"connection refused"`)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)

	rec = performRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsHandlerSnapshotWithoutService(t *testing.T) {
	router := newTestRouter()
	router.GET("/metrics/snapshot", NewMetricsHandler(nil).Snapshot)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/metrics/snapshot", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
