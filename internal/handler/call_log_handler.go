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

type callLogService interface {
	List(ctx context.Context, filter models.CallLogFilter) ([]models.CallLog, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.CallLog, error)
	Create(ctx context.Context, req dto.CallLogRequest, actor service.Actor) (*models.CallLog, error)
	Update(ctx context.Context, id string, req dto.CallLogRequest) (*models.CallLog, error)
	Delete(ctx context.Context, id string) error
}

// CallLogHandler exposes call log endpoints.
type CallLogHandler struct {
	calls callLogService
}

// NewCallLogHandler constructs CallLogHandler.
func NewCallLogHandler(calls callLogService) *CallLogHandler {
	return &CallLogHandler{calls: calls}
}

// List godoc
// @Summary List call logs
// @Tags CallLogs
// @Produce json
// @Param caller_type query string false "PARENT, SCHOOL, DRIVER, ASSISTANT or OTHER"
// @Param route_id query string false "Filter by route"
// @Param action_required query bool false "Only calls needing follow up"
// @Param from query string false "From (YYYY-MM-DD or RFC3339)"
// @Param to query string false "To (YYYY-MM-DD or RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /call-logs [get]
func (h *CallLogHandler) List(c *gin.Context) {
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
	filter := models.CallLogFilter{
		CallerType:     strings.ToUpper(strings.TrimSpace(c.Query("caller_type"))),
		RouteID:        strings.TrimSpace(c.Query("route_id")),
		ActionRequired: queryBool(c, "action_required"),
		From:           from,
		To:             to,
		ListOptions:    listOptions(c, 20),
	}
	calls, pagination, err := h.calls.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calls, pagination)
}

// Get godoc
// @Summary Get call log
// @Tags CallLogs
// @Produce json
// @Param id path string true "Call log ID"
// @Success 200 {object} response.Envelope
// @Router /call-logs/{id} [get]
func (h *CallLogHandler) Get(c *gin.Context) {
	call, err := h.calls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, call, nil)
}

// Create godoc
// @Summary Record a call
// @Tags CallLogs
// @Accept json
// @Produce json
// @Param payload body dto.CallLogRequest true "Call payload"
// @Success 201 {object} response.Envelope
// @Router /call-logs [post]
func (h *CallLogHandler) Create(c *gin.Context) {
	var req dto.CallLogRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	call, err := h.calls.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, call)
}

// Update godoc
// @Summary Update call log
// @Tags CallLogs
// @Accept json
// @Produce json
// @Param id path string true "Call log ID"
// @Param payload body dto.CallLogRequest true "Call payload"
// @Success 200 {object} response.Envelope
// @Router /call-logs/{id} [put]
func (h *CallLogHandler) Update(c *gin.Context) {
	var req dto.CallLogRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	call, err := h.calls.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, call, nil)
}

// Delete godoc
// @Summary Delete call log
// @Tags CallLogs
// @Param id path string true "Call log ID"
// @Success 204
// @Router /call-logs/{id} [delete]
func (h *CallLogHandler) Delete(c *gin.Context) {
	if err := h.calls.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
