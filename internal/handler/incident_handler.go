package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	"github.com/noah-isme/fleet-ops-api/pkg/response"
)

type incidentService interface {
	List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Incident, error)
	Create(ctx context.Context, req dto.IncidentRequest, actor service.Actor) (*models.Incident, error)
	Update(ctx context.Context, id string, req dto.IncidentRequest, actor service.Actor) (*models.Incident, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
}

// IncidentHandler exposes incident endpoints.
type IncidentHandler struct {
	incidents incidentService
}

// NewIncidentHandler constructs IncidentHandler.
func NewIncidentHandler(incidents incidentService) *IncidentHandler {
	return &IncidentHandler{incidents: incidents}
}

// List godoc
// @Summary List incidents
// @Tags Incidents
// @Produce json
// @Param status query string false "OPEN, INVESTIGATING or RESOLVED"
// @Param severity query string false "Severity"
// @Param route_id query string false "Filter by route"
// @Param vehicle_id query string false "Filter by vehicle"
// @Param from query string false "From (YYYY-MM-DD or RFC3339)"
// @Param to query string false "To (YYYY-MM-DD or RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /incidents [get]
func (h *IncidentHandler) List(c *gin.Context) {
	from, err := queryTime(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.IncidentFilter{
		Status:      models.IncidentStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Severity:    strings.ToUpper(strings.TrimSpace(c.Query("severity"))),
		RouteID:     strings.TrimSpace(c.Query("route_id")),
		VehicleID:   strings.TrimSpace(c.Query("vehicle_id")),
		From:        from,
		To:          to,
		ListOptions: listOptions(c, 20),
	}
	incidents, pagination, err := h.incidents.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incidents, pagination)
}

// Get godoc
// @Summary Get incident
// @Tags Incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} response.Envelope
// @Router /incidents/{id} [get]
func (h *IncidentHandler) Get(c *gin.Context) {
	incident, err := h.incidents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident, nil)
}

// Create godoc
// @Summary Report an incident
// @Tags Incidents
// @Accept json
// @Produce json
// @Param payload body dto.IncidentRequest true "Incident payload"
// @Success 201 {object} response.Envelope
// @Router /incidents [post]
func (h *IncidentHandler) Create(c *gin.Context) {
	var req dto.IncidentRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	incident, err := h.incidents.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, incident)
}

// Update godoc
// @Summary Update incident
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param payload body dto.IncidentRequest true "Incident payload"
// @Success 200 {object} response.Envelope
// @Router /incidents/{id} [put]
func (h *IncidentHandler) Update(c *gin.Context) {
	var req dto.IncidentRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	incident, err := h.incidents.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident, nil)
}

// Delete godoc
// @Summary Delete incident
// @Tags Incidents
// @Param id path string true "Incident ID"
// @Success 204
// @Router /incidents/{id} [delete]
func (h *IncidentHandler) Delete(c *gin.Context) {
	if err := h.incidents.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
