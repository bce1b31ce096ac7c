package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/response"
)

type documentService interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.DocumentView, error)
	Open(ctx context.Context, id, token string) (*models.Document, io.ReadCloser, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
}

type uploadService interface {
	Target(name string) (service.UploadTarget, bool)
	Upload(ctx context.Context, req service.UploadRequest, actor service.Actor) (*dto.UploadResult, error)
}

type requirementService interface {
	List(ctx context.Context, kind models.SubjectKind, activeOnly bool) ([]models.DocumentRequirement, error)
	Get(ctx context.Context, id string) (*models.DocumentRequirement, error)
	Create(ctx context.Context, payload dto.DocumentRequirementRequest, actor service.Actor) (*models.DocumentRequirement, error)
	Update(ctx context.Context, id string, payload dto.DocumentRequirementRequest, actor service.Actor) (*models.DocumentRequirement, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
}

// DocumentHandler exposes stored documents, uploads and document requirements.
type DocumentHandler struct {
	documents    documentService
	uploads      uploadService
	requirements requirementService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents documentService, uploads uploadService, requirements requirementService) *DocumentHandler {
	return &DocumentHandler{documents: documents, uploads: uploads, requirements: requirements}
}

// List godoc
// @Summary List documents of an owner
// @Tags Documents
// @Produce json
// @Param owner_type query string true "DRIVER, ASSISTANT, VEHICLE, ROUTE or EMPLOYEE"
// @Param owner_id query string true "Owner ID"
// @Param document_type query string false "Document type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	filter := models.DocumentFilter{
		OwnerType:    models.DocumentOwner(strings.ToUpper(strings.TrimSpace(c.Query("owner_type")))),
		OwnerID:      strings.TrimSpace(c.Query("owner_id")),
		DocumentType: strings.TrimSpace(c.Query("document_type")),
		ListOptions:  listOptions(c, 50),
	}
	if filter.OwnerType == "" || filter.OwnerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "owner_type and owner_id are required"))
		return
	}
	docs, pagination, err := h.documents.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, pagination)
}

// Get godoc
// @Summary Get document with a signed download link
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	view, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Download godoc
// @Summary Download a stored document
// @Description Requires the signed token issued with the document view.
// @Tags Documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, body, err := h.documents.Open(c.Request.Context(), c.Param("id"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer body.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	extra := map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", doc.FileName),
		"Cache-Control":       "private, no-store",
	}
	c.DataFromReader(http.StatusOK, doc.SizeBytes, contentType, body, extra)
}

// Delete godoc
// @Summary Delete document
// @Tags Documents
// @Param id path string true "Document ID"
// @Success 204
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Upload godoc
// @Summary Upload files for an owner
// @Description Accepts files[] parts. Routes abort the batch on the first failure, other targets report per file.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param target path string true "driver, assistant, vehicle, route or employee"
// @Param ownerId path string true "Owner ID"
// @Param document_type formData string false "Document type"
// @Param files[] formData file true "Files"
// @Success 201 {object} response.Envelope
// @Router /uploads/{target}/{ownerId} [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	target := strings.ToLower(strings.TrimSpace(c.Param("target")))
	if _, ok := h.uploads.Target(target); !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown upload target"))
		return
	}
	files, err := uploadFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.uploads.Upload(c.Request.Context(), service.UploadRequest{
		Target:       target,
		OwnerID:      c.Param("ownerId"),
		DocumentType: strings.TrimSpace(c.PostForm("document_type")),
		Channel:      models.ChannelAdmin,
		Files:        files,
	}, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondUpload(c, result)
}

// ListRequirements godoc
// @Summary List document requirements
// @Tags Documents
// @Produce json
// @Param kind query string false "DRIVER, ASSISTANT or VEHICLE"
// @Param active query bool false "Only active requirements"
// @Success 200 {object} response.Envelope
// @Router /document-requirements [get]
func (h *DocumentHandler) ListRequirements(c *gin.Context) {
	kind, err := subjectKindParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	activeOnly := false
	if active := queryBool(c, "active"); active != nil {
		activeOnly = *active
	}
	reqs, err := h.requirements.List(c.Request.Context(), kind, activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reqs, nil)
}

// GetRequirement godoc
// @Summary Get document requirement
// @Tags Documents
// @Produce json
// @Param id path string true "Requirement ID"
// @Success 200 {object} response.Envelope
// @Router /document-requirements/{id} [get]
func (h *DocumentHandler) GetRequirement(c *gin.Context) {
	req, err := h.requirements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// CreateRequirement godoc
// @Summary Create document requirement
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.DocumentRequirementRequest true "Requirement payload"
// @Success 201 {object} response.Envelope
// @Router /document-requirements [post]
func (h *DocumentHandler) CreateRequirement(c *gin.Context) {
	var payload dto.DocumentRequirementRequest
	if err := bindJSON(c, &payload); err != nil {
		response.Error(c, err)
		return
	}
	req, err := h.requirements.Create(c.Request.Context(), payload, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, req)
}

// UpdateRequirement godoc
// @Summary Update document requirement
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Requirement ID"
// @Param payload body dto.DocumentRequirementRequest true "Requirement payload"
// @Success 200 {object} response.Envelope
// @Router /document-requirements/{id} [put]
func (h *DocumentHandler) UpdateRequirement(c *gin.Context) {
	var payload dto.DocumentRequirementRequest
	if err := bindJSON(c, &payload); err != nil {
		response.Error(c, err)
		return
	}
	req, err := h.requirements.Update(c.Request.Context(), c.Param("id"), payload, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// DeleteRequirement godoc
// @Summary Delete document requirement
// @Tags Documents
// @Param id path string true "Requirement ID"
// @Success 204
// @Router /document-requirements/{id} [delete]
func (h *DocumentHandler) DeleteRequirement(c *gin.Context) {
	if err := h.requirements.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// respondUpload answers 201 when every file landed and 207 when only some did.
func respondUpload(c *gin.Context, result *dto.UploadResult) {
	switch {
	case result.Failed == 0:
		response.Created(c, result)
	case result.Uploaded > 0:
		response.JSON(c, http.StatusMultiStatus, result, nil)
	default:
		response.JSON(c, http.StatusUnprocessableEntity, result, nil)
	}
}
