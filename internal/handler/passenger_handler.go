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

type passengerService interface {
	List(ctx context.Context, filter models.PassengerFilter) ([]models.PassengerDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.PassengerDetail, error)
	Create(ctx context.Context, req dto.PassengerRequest, actor service.Actor) (*models.PassengerDetail, error)
	Update(ctx context.Context, id string, req dto.PassengerRequest, actor service.Actor) (*models.PassengerDetail, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
}

// PassengerHandler exposes passenger endpoints.
type PassengerHandler struct {
	passengers passengerService
}

// NewPassengerHandler constructs PassengerHandler.
func NewPassengerHandler(passengers passengerService) *PassengerHandler {
	return &PassengerHandler{passengers: passengers}
}

// List godoc
// @Summary List passengers
// @Tags Passengers
// @Produce json
// @Param school_id query string false "Filter by school"
// @Param active query bool false "Filter by active state"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /passengers [get]
func (h *PassengerHandler) List(c *gin.Context) {
	filter := models.PassengerFilter{
		SchoolID:    strings.TrimSpace(c.Query("school_id")),
		Active:      queryBool(c, "active"),
		ListOptions: listOptions(c, 20),
	}
	passengers, pagination, err := h.passengers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, passengers, pagination)
}

// Get godoc
// @Summary Get passenger with parent contacts
// @Tags Passengers
// @Produce json
// @Param id path string true "Passenger ID"
// @Success 200 {object} response.Envelope
// @Router /passengers/{id} [get]
func (h *PassengerHandler) Get(c *gin.Context) {
	passenger, err := h.passengers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, passenger, nil)
}

// Create godoc
// @Summary Create passenger
// @Tags Passengers
// @Accept json
// @Produce json
// @Param payload body dto.PassengerRequest true "Passenger payload"
// @Success 201 {object} response.Envelope
// @Router /passengers [post]
func (h *PassengerHandler) Create(c *gin.Context) {
	var req dto.PassengerRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	passenger, err := h.passengers.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, passenger)
}

// Update godoc
// @Summary Update passenger
// @Description Contacts are replaced when the contacts field is present.
// @Tags Passengers
// @Accept json
// @Produce json
// @Param id path string true "Passenger ID"
// @Param payload body dto.PassengerRequest true "Passenger payload"
// @Success 200 {object} response.Envelope
// @Router /passengers/{id} [put]
func (h *PassengerHandler) Update(c *gin.Context) {
	var req dto.PassengerRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	passenger, err := h.passengers.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, passenger, nil)
}

// Delete godoc
// @Summary Delete passenger
// @Tags Passengers
// @Param id path string true "Passenger ID"
// @Success 204
// @Router /passengers/{id} [delete]
func (h *PassengerHandler) Delete(c *gin.Context) {
	if err := h.passengers.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
