package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/pkg/response"
)

type schoolService interface {
	List(ctx context.Context, opts models.ListOptions) ([]models.School, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, req dto.SchoolRequest) (*models.School, error)
	Update(ctx context.Context, id string, req dto.SchoolRequest) (*models.School, error)
	Delete(ctx context.Context, id string) error
}

// SchoolHandler exposes school endpoints.
type SchoolHandler struct {
	schools schoolService
}

// NewSchoolHandler constructs SchoolHandler.
func NewSchoolHandler(schools schoolService) *SchoolHandler {
	return &SchoolHandler{schools: schools}
}

// List godoc
// @Summary List schools
// @Tags Schools
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *SchoolHandler) List(c *gin.Context) {
	schools, pagination, err := h.schools.List(c.Request.Context(), listOptions(c, 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schools, pagination)
}

// Get godoc
// @Summary Get school
// @Tags Schools
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{id} [get]
func (h *SchoolHandler) Get(c *gin.Context) {
	school, err := h.schools.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// Create godoc
// @Summary Create school
// @Tags Schools
// @Accept json
// @Produce json
// @Param payload body dto.SchoolRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Router /schools [post]
func (h *SchoolHandler) Create(c *gin.Context) {
	var req dto.SchoolRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	school, err := h.schools.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, school)
}

// Update godoc
// @Summary Update school
// @Tags Schools
// @Accept json
// @Produce json
// @Param id path string true "School ID"
// @Param payload body dto.SchoolRequest true "School payload"
// @Success 200 {object} response.Envelope
// @Router /schools/{id} [put]
func (h *SchoolHandler) Update(c *gin.Context) {
	var req dto.SchoolRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	school, err := h.schools.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// Delete godoc
// @Summary Delete school
// @Tags Schools
// @Param id path string true "School ID"
// @Success 204
// @Router /schools/{id} [delete]
func (h *SchoolHandler) Delete(c *gin.Context) {
	if err := h.schools.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
