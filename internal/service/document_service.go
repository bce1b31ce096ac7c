package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/storage"
)

type documentRepository interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	Delete(ctx context.Context, id string) error
}

type downloadSigner interface {
	Generate(subjectID, location string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (subjectID, location string, expiresAt time.Time, err error)
}

// DocumentService serves stored documents through signed download links.
type DocumentService struct {
	repo         documentRepository
	store        storage.ObjectStore
	signer       downloadSigner
	audit        auditWriter
	downloadBase string
	logger       *zap.Logger
}

// NewDocumentService constructs the document service. downloadBase is the
// absolute or prefix path that /documents/:id/download is served under.
func NewDocumentService(repo documentRepository, store storage.ObjectStore, signer downloadSigner, audit auditWriter, downloadBase string, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		repo:         repo,
		store:        store,
		signer:       signer,
		audit:        audit,
		downloadBase: strings.TrimRight(downloadBase, "/"),
		logger:       logger,
	}
}

// List returns documents for an owner.
func (s *DocumentService) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list documents")
	}
	return docs, paginationFor(filter.ListOptions, 50, total), nil
}

// Get returns document metadata with a short lived download link.
func (s *DocumentService) Get(ctx context.Context, id string) (*dto.DocumentView, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "document not found", "failed to load document")
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, objectLocation(doc))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}
	return &dto.DocumentView{
		Document:    *doc,
		DownloadURL: fmt.Sprintf("%s/documents/%s/download?token=%s", s.downloadBase, url.PathEscape(doc.ID), url.QueryEscape(token)),
		ExpiresAt:   expiresAt,
	}, nil
}

// Open verifies a download token and opens the stored object. The caller
// closes the reader.
func (s *DocumentService) Open(ctx context.Context, id, token string) (*models.Document, io.ReadCloser, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token required")
	}
	subject, location, _, err := s.signer.Parse(token, false)
	if err != nil {
		if _, _, _, expErr := s.signer.Parse(token, true); expErr == nil {
			return nil, nil, appErrors.Clone(appErrors.ErrTokenExpired, "download link has expired")
		}
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	if subject != id {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, mapRepoError(err, "document not found", "failed to load document")
	}
	if location != objectLocation(doc) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	rc, err := s.store.Get(ctx, doc.Bucket, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "stored file not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read stored file")
	}
	return doc, rc, nil
}

// Delete removes the document row, its links and the stored object.
func (s *DocumentService) Delete(ctx context.Context, id string, actor Actor) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "document not found", "failed to load document")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "document not found", "failed to delete document")
	}
	if err := s.store.Delete(ctx, doc.Bucket, doc.StoragePath); err != nil {
		s.logger.Warn("stored object not removed", zap.String("document_id", id), zap.String("path", doc.StoragePath), zap.Error(err))
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "document", &id, doc)
	return nil
}

func objectLocation(doc *models.Document) string {
	return doc.Bucket + "/" + doc.StoragePath
}

type requirementRepository interface {
	ListRequirements(ctx context.Context, kind models.SubjectKind, activeOnly bool) ([]models.DocumentRequirement, error)
	FindRequirement(ctx context.Context, id string) (*models.DocumentRequirement, error)
	CreateRequirement(ctx context.Context, req *models.DocumentRequirement) error
	UpdateRequirement(ctx context.Context, req *models.DocumentRequirement) error
	DeleteRequirement(ctx context.Context, id string) error
}

// RequirementService manages the documents each kind of subject must hold.
type RequirementService struct {
	repo      requirementRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequirementService constructs the requirement service.
func NewRequirementService(repo requirementRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *RequirementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequirementService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns requirements, optionally for one subject kind.
func (s *RequirementService) List(ctx context.Context, kind models.SubjectKind, activeOnly bool) ([]models.DocumentRequirement, error) {
	reqs, err := s.repo.ListRequirements(ctx, kind, activeOnly)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list document requirements")
	}
	return reqs, nil
}

// Get returns one requirement.
func (s *RequirementService) Get(ctx context.Context, id string) (*models.DocumentRequirement, error) {
	req, err := s.repo.FindRequirement(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "document requirement not found", "failed to load document requirement")
	}
	return req, nil
}

// Create adds a requirement.
func (s *RequirementService) Create(ctx context.Context, payload dto.DocumentRequirementRequest, actor Actor) (*models.DocumentRequirement, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err, "invalid document requirement")
	}
	req := &models.DocumentRequirement{Active: true}
	applyRequirementRequest(req, payload)
	if err := s.repo.CreateRequirement(ctx, req); err != nil {
		return nil, mapRepoError(err, "document requirement not found", "failed to create document requirement")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "document_requirement", &req.ID, req)
	return req, nil
}

// Update modifies a requirement.
func (s *RequirementService) Update(ctx context.Context, id string, payload dto.DocumentRequirementRequest, actor Actor) (*models.DocumentRequirement, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err, "invalid document requirement")
	}
	req, err := s.repo.FindRequirement(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "document requirement not found", "failed to load document requirement")
	}
	applyRequirementRequest(req, payload)
	if err := s.repo.UpdateRequirement(ctx, req); err != nil {
		return nil, mapRepoError(err, "document requirement not found", "failed to update document requirement")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "document_requirement", &req.ID, req)
	return req, nil
}

// Delete removes a requirement.
func (s *RequirementService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.DeleteRequirement(ctx, id); err != nil {
		return mapRepoError(err, "document requirement not found", "failed to delete document requirement")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "document_requirement", &id, nil)
	return nil
}

const defaultBadgeColor = "#6B7280"

func applyRequirementRequest(req *models.DocumentRequirement, payload dto.DocumentRequirementRequest) {
	req.SubjectKind = models.SubjectKind(payload.SubjectKind)
	req.DocumentType = strings.TrimSpace(payload.DocumentType)
	req.Name = strings.TrimSpace(payload.Name)
	req.Description = payload.Description
	req.Required = payload.Required
	req.HasExpiry = payload.HasExpiry
	req.BadgeColor = strings.ToUpper(payload.BadgeColor)
	if req.BadgeColor == "" {
		req.BadgeColor = defaultBadgeColor
	}
	req.Active = boolOr(payload.Active, req.Active)
}
