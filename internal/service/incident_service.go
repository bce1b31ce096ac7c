package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type incidentRepository interface {
	List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, int, error)
	FindByID(ctx context.Context, id string) (*models.Incident, error)
	Create(ctx context.Context, incident *models.Incident) error
	Update(ctx context.Context, incident *models.Incident) error
	Delete(ctx context.Context, id string) error
}

// IncidentService manages incident reports.
type IncidentService struct {
	repo      incidentRepository
	audit     auditWriter
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIncidentService constructs the incident service.
func NewIncidentService(repo incidentRepository, audit auditWriter, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *IncidentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns incidents, newest first.
func (s *IncidentService) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, *models.Pagination, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	incidents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list incidents")
	}
	return incidents, paginationFor(filter.ListOptions, 20, total), nil
}

// Get returns an incident.
func (s *IncidentService) Get(ctx context.Context, id string) (*models.Incident, error) {
	incident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "incident not found", "failed to load incident")
	}
	return incident, nil
}

// Create records an incident. New incidents start OPEN unless a status is given.
func (s *IncidentService) Create(ctx context.Context, req dto.IncidentRequest, actor Actor) (*models.Incident, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid incident payload")
	}
	incident := &models.Incident{Status: models.IncidentOpen, ReportedBy: actor.UserID}
	if err := applyIncidentRequest(incident, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		return nil, mapRepoError(err, "incident not found", "failed to create incident")
	}
	s.logger.Info("incident reported", zap.String("incident_id", incident.ID), zap.String("severity", incident.Severity))
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "incident", &incident.ID, incident)
	invalidateDerived(ctx, s.cache, s.logger)
	return incident, nil
}

// Update modifies an incident.
func (s *IncidentService) Update(ctx context.Context, id string, req dto.IncidentRequest, actor Actor) (*models.Incident, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid incident payload")
	}
	incident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "incident not found", "failed to load incident")
	}
	if err := applyIncidentRequest(incident, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, incident); err != nil {
		return nil, mapRepoError(err, "incident not found", "failed to update incident")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "incident", &incident.ID, incident)
	invalidateDerived(ctx, s.cache, s.logger)
	return incident, nil
}

// Delete removes an incident.
func (s *IncidentService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "incident not found", "failed to delete incident")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "incident", &id, nil)
	invalidateDerived(ctx, s.cache, s.logger)
	return nil
}

func applyIncidentRequest(incident *models.Incident, req dto.IncidentRequest) error {
	occurred, err := time.Parse(time.RFC3339, req.OccurredAt)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "occurred_at must be an RFC3339 timestamp")
	}
	incident.IncidentType = strings.TrimSpace(req.IncidentType)
	incident.Severity = req.Severity
	incident.OccurredAt = occurred.UTC()
	incident.Location = strings.TrimSpace(req.Location)
	incident.RouteID = trimOptional(req.RouteID)
	incident.VehicleID = trimOptional(req.VehicleID)
	incident.EmployeeID = trimOptional(req.EmployeeID)
	incident.PassengerID = trimOptional(req.PassengerID)
	incident.Description = req.Description
	if req.Status != "" {
		incident.Status = models.IncidentStatus(req.Status)
	}
	incident.ResolutionNotes = req.ResolutionNotes
	return nil
}
