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

type auditService interface {
	List(ctx context.Context, req service.AuditListRequest) ([]models.AuditLog, *models.Pagination, error)
	Create(ctx context.Context, req dto.CreateAuditLogRequest, actor service.Actor) (*models.AuditLog, error)
}

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	audit auditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit auditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List audit logs
// @Tags Audit
// @Produce json
// @Param user_id query string false "Actor user ID"
// @Param action query string false "Action"
// @Param resource query string false "Resource"
// @Param from query string false "From (YYYY-MM-DD or RFC3339)"
// @Param to query string false "To (YYYY-MM-DD or RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	req := service.AuditListRequest{
		UserID:      strings.TrimSpace(c.Query("user_id")),
		Action:      strings.ToUpper(strings.TrimSpace(c.Query("action"))),
		Resource:    strings.TrimSpace(c.Query("resource")),
		From:        strings.TrimSpace(c.Query("from")),
		To:          strings.TrimSpace(c.Query("to")),
		ListOptions: listOptions(c, 50),
	}
	logs, pagination, err := h.audit.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// Create godoc
// @Summary Record an audit entry
// @Tags Audit
// @Accept json
// @Produce json
// @Param payload body dto.CreateAuditLogRequest true "Audit payload"
// @Success 201 {object} response.Envelope
// @Router /audit-logs [post]
func (h *AuditHandler) Create(c *gin.Context) {
	var req dto.CreateAuditLogRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.audit.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}
