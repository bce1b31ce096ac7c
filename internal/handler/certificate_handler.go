package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/response"
)

type expiryService interface {
	Summary(ctx context.Context) (*models.ExpirySummary, error)
	Window(ctx context.Context, w models.ExpiryWindow, kind models.SubjectKind) ([]models.ExpiringCertificate, error)
	Counts(ctx context.Context) (models.ExpiryCounts, error)
	Export(ctx context.Context, w models.ExpiryWindow, rawFormat string) (*service.ExportFile, error)
}

// CertificateHandler serves the certificate expiry views.
type CertificateHandler struct {
	expiry expiryService
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(expiry expiryService) *CertificateHandler {
	return &CertificateHandler{expiry: expiry}
}

// Expiring godoc
// @Summary Certificates expiring in a window
// @Tags Certificates
// @Produce json
// @Param window query string true "expired, 14-days or 30-days"
// @Param kind query string false "DRIVER, ASSISTANT or VEHICLE"
// @Success 200 {object} response.Envelope
// @Router /certificates/expiring [get]
func (h *CertificateHandler) Expiring(c *gin.Context) {
	kind, err := subjectKindParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	window := models.ExpiryWindow(strings.ToLower(strings.TrimSpace(c.Query("window"))))
	rows, err := h.expiry.Window(c.Request.Context(), window, kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil, map[string]interface{}{"count": len(rows), "window": window})
}

// Summary godoc
// @Summary All expiry windows at once
// @Tags Certificates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /certificates/summary [get]
func (h *CertificateHandler) Summary(c *gin.Context) {
	summary, err := h.expiry.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Counts godoc
// @Summary Number of certificates per expiry window
// @Tags Certificates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /certificates/counts [get]
func (h *CertificateHandler) Counts(c *gin.Context) {
	counts, err := h.expiry.Counts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// Export godoc
// @Summary Export an expiry window
// @Tags Certificates
// @Produce text/csv
// @Produce application/pdf
// @Param window query string true "expired, 14-days or 30-days"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /certificates/export [get]
func (h *CertificateHandler) Export(c *gin.Context) {
	window := models.ExpiryWindow(strings.ToLower(strings.TrimSpace(c.Query("window"))))
	file, err := h.expiry.Export(c.Request.Context(), window, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.FileName, file.ContentType, file.Body)
}

func subjectKindParam(c *gin.Context) (models.SubjectKind, error) {
	kind := models.SubjectKind(strings.ToUpper(strings.TrimSpace(c.Query("kind"))))
	switch kind {
	case "", models.SubjectDriver, models.SubjectAssistant, models.SubjectVehicle:
		return kind, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "kind must be DRIVER, ASSISTANT or VEHICLE")
}
