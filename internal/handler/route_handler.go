package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	"github.com/noah-isme/fleet-ops-api/pkg/response"
)

type routeService interface {
	List(ctx context.Context, filter models.RouteFilter) ([]models.RouteSummary, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.RouteDetail, error)
	Create(ctx context.Context, req dto.RouteRequest, actor service.Actor) (*models.RouteDetail, error)
	Update(ctx context.Context, id string, req dto.RouteRequest, actor service.Actor) (*models.RouteDetail, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
	Plan(ctx context.Context, req dto.RoutePlanRequest) (*dto.RoutePlanResponse, error)
	FormOptions(ctx context.Context) (*models.RouteFormOptions, error)
	Geometry(ctx context.Context, id string) (*geojson.FeatureCollection, error)
}

// RouteHandler exposes route planning endpoints.
type RouteHandler struct {
	routes routeService
}

// NewRouteHandler constructs RouteHandler.
func NewRouteHandler(routes routeService) *RouteHandler {
	return &RouteHandler{routes: routes}
}

// List godoc
// @Summary List routes
// @Tags Routes
// @Produce json
// @Param school_id query string false "Filter by school"
// @Param driver_id query string false "Filter by driver"
// @Param vehicle_id query string false "Filter by vehicle"
// @Param active query bool false "Filter by active flag"
// @Param day query string false "Operating day (MON..SUN)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /routes [get]
func (h *RouteHandler) List(c *gin.Context) {
	filter := models.RouteFilter{
		SchoolID:    strings.TrimSpace(c.Query("school_id")),
		DriverID:    strings.TrimSpace(c.Query("driver_id")),
		VehicleID:   strings.TrimSpace(c.Query("vehicle_id")),
		Active:      queryBool(c, "active"),
		Day:         strings.ToUpper(strings.TrimSpace(c.Query("day"))),
		ListOptions: listOptions(c, 50),
	}
	routes, pagination, err := h.routes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routes, pagination)
}

// Get godoc
// @Summary Get route with stops and assistants
// @Tags Routes
// @Produce json
// @Param id path string true "Route ID"
// @Success 200 {object} response.Envelope
// @Router /routes/{id} [get]
func (h *RouteHandler) Get(c *gin.Context) {
	route, err := h.routes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, route, nil)
}

// Create godoc
// @Summary Create route
// @Tags Routes
// @Accept json
// @Produce json
// @Param payload body dto.RouteRequest true "Route payload"
// @Success 201 {object} response.Envelope
// @Router /routes [post]
func (h *RouteHandler) Create(c *gin.Context) {
	var req dto.RouteRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	route, err := h.routes.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, route)
}

// Update godoc
// @Summary Update route
// @Description Replaces the stop list and assistant set of the route.
// @Tags Routes
// @Accept json
// @Produce json
// @Param id path string true "Route ID"
// @Param payload body dto.RouteRequest true "Route payload"
// @Success 200 {object} response.Envelope
// @Router /routes/{id} [put]
func (h *RouteHandler) Update(c *gin.Context) {
	var req dto.RouteRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	route, err := h.routes.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, route, nil)
}

// Delete godoc
// @Summary Delete route
// @Tags Routes
// @Param id path string true "Route ID"
// @Success 204
// @Router /routes/{id} [delete]
func (h *RouteHandler) Delete(c *gin.Context) {
	if err := h.routes.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Plan godoc
// @Summary Preview a stop list
// @Description Applies manual edits and re-derives the assistant home stops without saving.
// @Tags Routes
// @Accept json
// @Produce json
// @Param payload body dto.RoutePlanRequest true "Plan payload"
// @Success 200 {object} response.Envelope
// @Router /routes/plan [post]
func (h *RouteHandler) Plan(c *gin.Context) {
	var req dto.RoutePlanRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	plan, err := h.routes.Plan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// FormOptions godoc
// @Summary Route form options
// @Description Schools, drivers, vehicles, assistants and passengers available to the route form.
// @Tags Routes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /routes/form-options [get]
func (h *RouteHandler) FormOptions(c *gin.Context) {
	opts, err := h.routes.FormOptions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opts, nil)
}

// Geometry godoc
// @Summary Route stops as GeoJSON
// @Tags Routes
// @Produce json
// @Param id path string true "Route ID"
// @Success 200 {object} map[string]interface{}
// @Router /routes/{id}/geometry [get]
func (h *RouteHandler) Geometry(c *gin.Context) {
	fc, err := h.routes.Geometry(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}
