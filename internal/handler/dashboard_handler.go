package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/middleware"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context) (*dto.DashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @Summary Office dashboard counts
// @Description Sections that failed to load are listed in meta.unavailable.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	overview, cacheHit, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetUnavailable(c, overview.Unavailable)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}
