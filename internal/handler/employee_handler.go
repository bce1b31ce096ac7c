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

type employeeService interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.EmployeeDetail, error)
	Create(ctx context.Context, req dto.EmployeeRequest, actor service.Actor) (*models.Employee, error)
	Update(ctx context.Context, id string, req dto.EmployeeRequest, actor service.Actor) (*models.Employee, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
	UpsertDriver(ctx context.Context, employeeID string, req dto.DriverProfileRequest, actor service.Actor) (*models.Driver, error)
	UpsertAssistant(ctx context.Context, employeeID string, req dto.AssistantProfileRequest, actor service.Actor) (*models.PassengerAssistant, error)
	RotateAssistantQRToken(ctx context.Context, employeeID string, actor service.Actor) (string, error)
}

// EmployeeHandler exposes employee endpoints.
type EmployeeHandler struct {
	employees employeeService
}

// NewEmployeeHandler constructs EmployeeHandler.
func NewEmployeeHandler(employees employeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param role query string false "DRIVER, PASSENGER_ASSISTANT, OFFICE or MECHANIC"
// @Param status query string false "Employment status"
// @Param can_work query bool false "Filter by can-work flag"
// @Param search query string false "Search by name, email or phone"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	filter := models.EmployeeFilter{
		Role:        models.EmployeeRole(strings.ToUpper(c.Query("role"))),
		Status:      models.EmploymentStatus(strings.ToUpper(c.Query("status"))),
		CanWork:     queryBool(c, "can_work"),
		ListOptions: listOptions(c, 20),
	}
	employees, pagination, err := h.employees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// Get godoc
// @Summary Get employee with driver or assistant profile
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.employees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Create employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body dto.EmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req dto.EmployeeRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	employee, err := h.employees.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body dto.EmployeeRequest true "Employee payload"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req dto.EmployeeRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	employee, err := h.employees.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Delete godoc
// @Summary Delete employee
// @Tags Employees
// @Param id path string true "Employee ID"
// @Success 204
// @Router /employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.employees.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpsertDriver godoc
// @Summary Create or replace the driver profile
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body dto.DriverProfileRequest true "Driver profile"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/driver [put]
func (h *EmployeeHandler) UpsertDriver(c *gin.Context) {
	var req dto.DriverProfileRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	driver, err := h.employees.UpsertDriver(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, driver, nil)
}

// UpsertAssistant godoc
// @Summary Create or replace the passenger assistant profile
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body dto.AssistantProfileRequest true "Assistant profile"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/assistant [put]
func (h *EmployeeHandler) UpsertAssistant(c *gin.Context) {
	var req dto.AssistantProfileRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	assistant, err := h.employees.UpsertAssistant(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assistant, nil)
}

// RotateAssistantQRToken godoc
// @Summary Issue a new assistant portal QR token
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/assistant/qr-token [post]
func (h *EmployeeHandler) RotateAssistantQRToken(c *gin.Context) {
	token, err := h.employees.RotateAssistantQRToken(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"qr_token": token}, nil)
}
