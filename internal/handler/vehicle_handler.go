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

type vehicleService interface {
	List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Vehicle, error)
	Create(ctx context.Context, req dto.VehicleRequest, actor service.Actor) (*models.Vehicle, error)
	Update(ctx context.Context, id string, req dto.VehicleRequest, actor service.Actor) (*models.Vehicle, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
	RotateQRToken(ctx context.Context, id string, actor service.Actor) (string, error)
	AddNote(ctx context.Context, vehicleID string, req dto.VehicleNoteRequest, actor service.Actor) (*models.VehicleUpdate, error)
	ReportBreakdown(ctx context.Context, vehicleID string, req dto.BreakdownRequest, actor service.Actor) (*models.VehicleUpdate, error)
	ListUpdates(ctx context.Context, vehicleID string) ([]models.VehicleUpdate, error)
}

// VehicleHandler exposes vehicle endpoints.
type VehicleHandler struct {
	vehicles vehicleService
}

// NewVehicleHandler constructs VehicleHandler.
func NewVehicleHandler(vehicles vehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

// List godoc
// @Summary List vehicles
// @Tags Vehicles
// @Produce json
// @Param off_road query bool false "Only vehicles on or off road"
// @Param type query string false "Vehicle type"
// @Param search query string false "Search registration, fleet number or make"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /vehicles [get]
func (h *VehicleHandler) List(c *gin.Context) {
	filter := models.VehicleFilter{
		OffRoad:     queryBool(c, "off_road"),
		Type:        strings.TrimSpace(c.Query("type")),
		ListOptions: listOptions(c, 20),
	}
	vehicles, pagination, err := h.vehicles.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicles, pagination)
}

// Get godoc
// @Summary Get vehicle
// @Tags Vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} response.Envelope
// @Router /vehicles/{id} [get]
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.vehicles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicle, nil)
}

// Create godoc
// @Summary Create vehicle
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param payload body dto.VehicleRequest true "Vehicle payload"
// @Success 201 {object} response.Envelope
// @Router /vehicles [post]
func (h *VehicleHandler) Create(c *gin.Context) {
	var req dto.VehicleRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	vehicle, err := h.vehicles.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vehicle)
}

// Update godoc
// @Summary Update vehicle
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param payload body dto.VehicleRequest true "Vehicle payload"
// @Success 200 {object} response.Envelope
// @Router /vehicles/{id} [put]
func (h *VehicleHandler) Update(c *gin.Context) {
	var req dto.VehicleRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	vehicle, err := h.vehicles.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicle, nil)
}

// Delete godoc
// @Summary Delete vehicle
// @Tags Vehicles
// @Param id path string true "Vehicle ID"
// @Success 204
// @Router /vehicles/{id} [delete]
func (h *VehicleHandler) Delete(c *gin.Context) {
	if err := h.vehicles.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RotateQRToken godoc
// @Summary Issue a new supplier portal QR token
// @Tags Vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} response.Envelope
// @Router /vehicles/{id}/qr-token [post]
func (h *VehicleHandler) RotateQRToken(c *gin.Context) {
	token, err := h.vehicles.RotateQRToken(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"qr_token": token}, nil)
}

// AddNote godoc
// @Summary Add a note or status update
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param payload body dto.VehicleNoteRequest true "Note"
// @Success 201 {object} response.Envelope
// @Router /vehicles/{id}/updates [post]
func (h *VehicleHandler) AddNote(c *gin.Context) {
	var req dto.VehicleNoteRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	update, err := h.vehicles.AddNote(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, update)
}

// ReportBreakdown godoc
// @Summary Report a breakdown and take the vehicle off road
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param payload body dto.BreakdownRequest true "Breakdown report"
// @Success 201 {object} response.Envelope
// @Router /vehicles/{id}/breakdown [post]
func (h *VehicleHandler) ReportBreakdown(c *gin.Context) {
	var req dto.BreakdownRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	update, err := h.vehicles.ReportBreakdown(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, update)
}

// ListUpdates godoc
// @Summary Recent notes, updates and breakdowns
// @Tags Vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} response.Envelope
// @Router /vehicles/{id}/updates [get]
func (h *VehicleHandler) ListUpdates(c *gin.Context) {
	updates, err := h.vehicles.ListUpdates(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updates, nil)
}
