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

const recentVehicleUpdates = 20

type vehicleRepository interface {
	List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, int, error)
	FindByID(ctx context.Context, id string) (*models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Delete(ctx context.Context, id string) error
	SetQRToken(ctx context.Context, id, token string) error
	CreateUpdate(ctx context.Context, update *models.VehicleUpdate) error
	ReportBreakdown(ctx context.Context, update *models.VehicleUpdate) error
	ListUpdates(ctx context.Context, vehicleID string, limit int) ([]models.VehicleUpdate, error)
}

// VehicleService manages fleet vehicles and their status history.
type VehicleService struct {
	repo      vehicleRepository
	audit     auditWriter
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVehicleService constructs the vehicle service.
func NewVehicleService(repo vehicleRepository, audit auditWriter, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *VehicleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns vehicles and pagination metadata.
func (s *VehicleService) List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, *models.Pagination, error) {
	vehicles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list vehicles")
	}
	return vehicles, paginationFor(filter.ListOptions, 20, total), nil
}

// Get returns a single vehicle.
func (s *VehicleService) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "vehicle not found", "failed to load vehicle")
	}
	return vehicle, nil
}

// Create registers a vehicle.
func (s *VehicleService) Create(ctx context.Context, req dto.VehicleRequest, actor Actor) (*models.Vehicle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid vehicle payload")
	}
	vehicle := &models.Vehicle{}
	if err := applyVehicleRequest(vehicle, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, mapRepoError(err, "vehicle not found", "failed to create vehicle")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "vehicle", &vehicle.ID, vehicle)
	invalidateDerived(ctx, s.cache, s.logger)
	return vehicle, nil
}

// Update replaces a vehicle's editable fields.
func (s *VehicleService) Update(ctx context.Context, id string, req dto.VehicleRequest, actor Actor) (*models.Vehicle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid vehicle payload")
	}
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "vehicle not found", "failed to load vehicle")
	}
	if err := applyVehicleRequest(vehicle, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, vehicle); err != nil {
		return nil, mapRepoError(err, "vehicle not found", "failed to update vehicle")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "vehicle", &vehicle.ID, vehicle)
	invalidateDerived(ctx, s.cache, s.logger)
	return vehicle, nil
}

// Delete removes a vehicle.
func (s *VehicleService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "vehicle not found", "failed to delete vehicle")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "vehicle", &id, nil)
	invalidateDerived(ctx, s.cache, s.logger)
	return nil
}

// RotateQRToken issues a new supplier portal token for the vehicle.
func (s *VehicleService) RotateQRToken(ctx context.Context, id string, actor Actor) (string, error) {
	token, err := newPortalToken()
	if err != nil {
		return "", appErrors.Internal(err, "failed to generate token")
	}
	if err := s.repo.SetQRToken(ctx, id, token); err != nil {
		return "", mapRepoError(err, "vehicle not found", "failed to save token")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionTokenRotated, "vehicle", &id, nil)
	return token, nil
}

// AddNote records a NOTE or UPDATE entry against the vehicle.
func (s *VehicleService) AddNote(ctx context.Context, vehicleID string, req dto.VehicleNoteRequest, actor Actor) (*models.VehicleUpdate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid vehicle note")
	}
	kind := models.VehicleUpdateNote
	if req.Kind != "" {
		kind = models.VehicleUpdateKind(req.Kind)
	}
	update := &models.VehicleUpdate{
		VehicleID:   vehicleID,
		Kind:        kind,
		Mileage:     req.Mileage,
		Message:     strings.TrimSpace(req.Message),
		SubmittedBy: submitter(req.SubmittedBy, actor),
	}
	if err := s.repo.CreateUpdate(ctx, update); err != nil {
		return nil, mapRepoError(err, "vehicle not found", "failed to save vehicle note")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "vehicle_update", &update.ID, update)
	return update, nil
}

// ReportBreakdown takes the vehicle off road and records the report.
func (s *VehicleService) ReportBreakdown(ctx context.Context, vehicleID string, req dto.BreakdownRequest, actor Actor) (*models.VehicleUpdate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid breakdown report")
	}
	update := &models.VehicleUpdate{
		VehicleID:   vehicleID,
		Kind:        models.VehicleUpdateBreakdown,
		Mileage:     req.Mileage,
		Message:     strings.TrimSpace(req.Message),
		SubmittedBy: submitter(req.SubmittedBy, actor),
	}
	if err := s.repo.ReportBreakdown(ctx, update); err != nil {
		return nil, mapRepoError(err, "vehicle not found", "failed to report breakdown")
	}
	s.logger.Info("vehicle breakdown reported", zap.String("vehicle_id", vehicleID), zap.String("submitted_by", update.SubmittedBy))
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionBreakdown, "vehicle", &vehicleID, update)
	invalidateDerived(ctx, s.cache, s.logger)
	return update, nil
}

// ListUpdates returns the most recent notes and reports, newest first.
func (s *VehicleService) ListUpdates(ctx context.Context, vehicleID string) ([]models.VehicleUpdate, error) {
	if _, err := s.repo.FindByID(ctx, vehicleID); err != nil {
		return nil, mapRepoError(err, "vehicle not found", "failed to load vehicle")
	}
	updates, err := s.repo.ListUpdates(ctx, vehicleID, recentVehicleUpdates)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list vehicle updates")
	}
	return updates, nil
}

func submitter(name string, actor Actor) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return actor.Name
}

func applyVehicleRequest(vehicle *models.Vehicle, req dto.VehicleRequest) error {
	var dates dateParser
	mot := dates.parse(req.MOTExpiry, "mot_expiry_date")
	tax := dates.parse(req.TaxExpiry, "tax_expiry_date")
	insurance := dates.parse(req.InsuranceExpiry, "insurance_expiry_date")
	plate := dates.parse(req.PlateExpiry, "plate_expiry_date")
	loler := dates.parse(req.LOLERExpiry, "loler_expiry_date")
	extinguisher := dates.parse(req.FireExtinguisherExpiry, "fire_extinguisher_expiry_date")
	kit := dates.parse(req.FirstAidKitExpiry, "first_aid_kit_expiry_date")
	if dates.err != nil {
		return dates.err
	}

	vehicle.Registration = normaliseRegistration(req.Registration)
	vehicle.FleetNumber = strings.TrimSpace(req.FleetNumber)
	vehicle.Make = strings.TrimSpace(req.Make)
	vehicle.Model = strings.TrimSpace(req.Model)
	vehicle.Colour = strings.TrimSpace(req.Colour)
	vehicle.Seats = req.Seats
	vehicle.VehicleType = strings.TrimSpace(req.VehicleType)
	vehicle.OffRoad = req.OffRoad
	vehicle.OffRoadReason = ""
	if req.OffRoad {
		vehicle.OffRoadReason = strings.TrimSpace(req.OffRoadReason)
	}
	vehicle.MOTExpiry = mot
	vehicle.TaxExpiry = tax
	vehicle.InsuranceExpiry = insurance
	vehicle.PlateExpiry = plate
	vehicle.LOLERExpiry = loler
	vehicle.FireExtinguisherExpiry = extinguisher
	vehicle.FirstAidKitExpiry = kit
	vehicle.Notes = req.Notes
	return nil
}

func normaliseRegistration(reg string) string {
	return strings.ToUpper(strings.Join(strings.Fields(reg), " "))
}

// expiriesFor classifies one subject into a single list, soonest first,
// covering anything expired or due within 30 days.
func expiriesFor(subject models.CertificateSubject, today time.Time) []models.ExpiringCertificate {
	summary := ClassifyExpiries([]models.CertificateSubject{subject}, today)
	out := make([]models.ExpiringCertificate, 0, len(summary.Expired)+len(summary.Within30))
	out = append(out, summary.Expired...)
	out = append(out, summary.Within30...)
	return out
}
