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

type portalService interface {
	AssistantView(ctx context.Context, token string) (*dto.AssistantPortalView, error)
	AssistantUpload(ctx context.Context, token, documentType string, files []service.UploadFile, actor service.Actor) (*dto.UploadResult, error)
	VehicleView(ctx context.Context, token string) (*dto.VehiclePortalView, error)
	VehicleNote(ctx context.Context, token string, req dto.VehicleNoteRequest, actor service.Actor) (*models.VehicleUpdate, error)
	VehicleStatusUpdate(ctx context.Context, token string, req dto.VehicleNoteRequest, actor service.Actor) (*models.VehicleUpdate, error)
	VehicleBreakdown(ctx context.Context, token string, req dto.BreakdownRequest, actor service.Actor) (*models.VehicleUpdate, error)
	NotificationView(ctx context.Context, token string) (*dto.NotificationPortalView, error)
	NotificationUpload(ctx context.Context, token string, files []service.UploadFile, actor service.Actor) (*dto.UploadResult, error)
}

// PortalHandler serves the public token gated pages.
type PortalHandler struct {
	portal portalService
}

// NewPortalHandler constructs PortalHandler.
func NewPortalHandler(portal portalService) *PortalHandler {
	return &PortalHandler{portal: portal}
}

// Assistant godoc
// @Summary Assistant portal
// @Tags Portal
// @Produce json
// @Param qrToken path string true "Assistant QR token"
// @Success 200 {object} response.Envelope
// @Router /portal/assistants/{qrToken} [get]
func (h *PortalHandler) Assistant(c *gin.Context) {
	view, err := h.portal.AssistantView(c.Request.Context(), c.Param("qrToken"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// AssistantUpload godoc
// @Summary Upload documents from the assistant portal
// @Tags Portal
// @Accept multipart/form-data
// @Produce json
// @Param qrToken path string true "Assistant QR token"
// @Param document_type formData string false "Document type"
// @Param files[] formData file true "Files"
// @Success 201 {object} response.Envelope
// @Router /portal/assistants/{qrToken}/documents [post]
func (h *PortalHandler) AssistantUpload(c *gin.Context) {
	files, err := uploadFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.portal.AssistantUpload(c.Request.Context(), c.Param("qrToken"), strings.TrimSpace(c.PostForm("document_type")), files, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondUpload(c, result)
}

// Vehicle godoc
// @Summary Vehicle supplier portal
// @Tags Portal
// @Produce json
// @Param qrToken path string true "Vehicle QR token"
// @Success 200 {object} response.Envelope
// @Router /portal/vehicles/{qrToken} [get]
func (h *PortalHandler) Vehicle(c *gin.Context) {
	view, err := h.portal.VehicleView(c.Request.Context(), c.Param("qrToken"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// VehicleNote godoc
// @Summary Leave a note on a vehicle
// @Tags Portal
// @Accept json
// @Produce json
// @Param qrToken path string true "Vehicle QR token"
// @Param payload body dto.VehicleNoteRequest true "Note payload"
// @Success 201 {object} response.Envelope
// @Router /portal/vehicles/{qrToken}/notes [post]
func (h *PortalHandler) VehicleNote(c *gin.Context) {
	var req dto.VehicleNoteRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	update, err := h.portal.VehicleNote(c.Request.Context(), c.Param("qrToken"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, update)
}

// VehicleUpdate godoc
// @Summary Post a status update for a vehicle
// @Tags Portal
// @Accept json
// @Produce json
// @Param qrToken path string true "Vehicle QR token"
// @Param payload body dto.VehicleNoteRequest true "Update payload"
// @Success 201 {object} response.Envelope
// @Router /portal/vehicles/{qrToken}/updates [post]
func (h *PortalHandler) VehicleUpdate(c *gin.Context) {
	var req dto.VehicleNoteRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	update, err := h.portal.VehicleStatusUpdate(c.Request.Context(), c.Param("qrToken"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, update)
}

// VehicleBreakdown godoc
// @Summary Report a breakdown
// @Description Takes the vehicle off road and records a BREAKDOWN update.
// @Tags Portal
// @Accept json
// @Produce json
// @Param qrToken path string true "Vehicle QR token"
// @Param payload body dto.BreakdownRequest true "Breakdown payload"
// @Success 201 {object} response.Envelope
// @Router /portal/vehicles/{qrToken}/breakdown [post]
func (h *PortalHandler) VehicleBreakdown(c *gin.Context) {
	var req dto.BreakdownRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	update, err := h.portal.VehicleBreakdown(c.Request.Context(), c.Param("qrToken"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, update)
}

// Document godoc
// @Summary Renewal link for an expiry notification
// @Tags Portal
// @Produce json
// @Param token path string true "Notification upload token"
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /portal/documents/{token} [get]
func (h *PortalHandler) Document(c *gin.Context) {
	view, err := h.portal.NotificationView(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// DocumentUpload godoc
// @Summary Upload a renewed certificate
// @Description Links the files to the notification's subject and resolves the notification.
// @Tags Portal
// @Accept multipart/form-data
// @Produce json
// @Param token path string true "Notification upload token"
// @Param files[] formData file true "Files"
// @Success 201 {object} response.Envelope
// @Router /portal/documents/{token} [post]
func (h *PortalHandler) DocumentUpload(c *gin.Context) {
	files, err := uploadFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.portal.NotificationUpload(c.Request.Context(), c.Param("token"), files, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondUpload(c, result)
}
