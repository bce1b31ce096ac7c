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

type notificationService interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Notification, error)
	Resolve(ctx context.Context, id string, actor service.Actor) (*models.Notification, error)
	EnqueueSweep(ctx context.Context, actor service.Actor) (*dto.SweepAccepted, error)
	CreateSummary(ctx context.Context, req dto.CreateSummaryRequest, actor service.Actor) (*models.EmailSummary, error)
	ListSummaries(ctx context.Context, opts models.ListOptions) ([]models.EmailSummary, *models.Pagination, error)
}

// NotificationHandler exposes expiry notifications and their summaries.
type NotificationHandler struct {
	notifications notificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications notificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param status query string false "PENDING, SENT or RESOLVED"
// @Param subject_kind query string false "DRIVER, ASSISTANT or VEHICLE"
// @Param subject_id query string false "Subject ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	filter := models.NotificationFilter{
		Status:      models.NotificationStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		SubjectKind: models.SubjectKind(strings.ToUpper(strings.TrimSpace(c.Query("subject_kind")))),
		SubjectID:   strings.TrimSpace(c.Query("subject_id")),
		ListOptions: listOptions(c, 20),
	}
	items, pagination, err := h.notifications.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get notification
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Router /notifications/{id} [get]
func (h *NotificationHandler) Get(c *gin.Context) {
	item, err := h.notifications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Resolve godoc
// @Summary Mark notification resolved
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Router /notifications/{id}/resolve [post]
func (h *NotificationHandler) Resolve(c *gin.Context) {
	item, err := h.notifications.Resolve(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Sweep godoc
// @Summary Queue an expiry notification sweep
// @Tags Notifications
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /notifications/expiry-sweep [post]
func (h *NotificationHandler) Sweep(c *gin.Context) {
	accepted, err := h.notifications.EnqueueSweep(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, accepted)
}

// CreateSummary godoc
// @Summary Bundle pending notifications into an email summary
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.CreateSummaryRequest true "Summary payload"
// @Success 201 {object} response.Envelope
// @Router /notifications/summaries [post]
func (h *NotificationHandler) CreateSummary(c *gin.Context) {
	var req dto.CreateSummaryRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.notifications.CreateSummary(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, summary)
}

// ListSummaries godoc
// @Summary List email summaries
// @Tags Notifications
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications/summaries [get]
func (h *NotificationHandler) ListSummaries(c *gin.Context) {
	summaries, pagination, err := h.notifications.ListSummaries(c.Request.Context(), listOptions(c, 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, pagination)
}
