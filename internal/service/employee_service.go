package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id string) error
	FindDriver(ctx context.Context, employeeID string) (*models.Driver, error)
	UpsertDriver(ctx context.Context, driver *models.Driver) error
	FindAssistant(ctx context.Context, employeeID string) (*models.PassengerAssistant, error)
	UpsertAssistant(ctx context.Context, assistant *models.PassengerAssistant) error
	SetAssistantQRToken(ctx context.Context, employeeID, token string) error
}

// EmployeeService manages employees and their driver or assistant profiles.
type EmployeeService struct {
	repo      employeeRepository
	audit     auditWriter
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService constructs the employee service.
func NewEmployeeService(repo employeeRepository, audit auditWriter, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns employees and pagination metadata.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list employees")
	}
	return employees, paginationFor(filter.ListOptions, 20, total), nil
}

// Get returns an employee with any driver or assistant profile.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "employee not found", "failed to load employee")
	}
	detail := &models.EmployeeDetail{Employee: *employee}

	driver, err := s.repo.FindDriver(ctx, id)
	switch {
	case err == nil:
		detail.Driver = driver
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load driver profile")
	}

	assistant, err := s.repo.FindAssistant(ctx, id)
	switch {
	case err == nil:
		detail.Assistant = assistant
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load assistant profile")
	}
	return detail, nil
}

// Create registers a new employee.
func (s *EmployeeService) Create(ctx context.Context, req dto.EmployeeRequest, actor Actor) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}
	employee := &models.Employee{EmploymentStatus: models.EmploymentActive, CanWork: true}
	if err := applyEmployeeRequest(employee, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, mapRepoError(err, "employee not found", "failed to create employee")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "employee", &employee.ID, employee)
	invalidateDerived(ctx, s.cache, s.logger)
	return employee, nil
}

// Update modifies an existing employee.
func (s *EmployeeService) Update(ctx context.Context, id string, req dto.EmployeeRequest, actor Actor) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "employee not found", "failed to load employee")
	}
	if err := applyEmployeeRequest(employee, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, mapRepoError(err, "employee not found", "failed to update employee")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "employee", &employee.ID, employee)
	invalidateDerived(ctx, s.cache, s.logger)
	return employee, nil
}

// Delete removes an employee and, through cascading keys, their profiles.
func (s *EmployeeService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "employee not found", "failed to delete employee")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "employee", &id, nil)
	invalidateDerived(ctx, s.cache, s.logger)
	return nil
}

// UpsertDriver creates or replaces the driver profile of a DRIVER employee.
func (s *EmployeeService) UpsertDriver(ctx context.Context, employeeID string, req dto.DriverProfileRequest, actor Actor) (*models.Driver, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid driver profile")
	}
	if err := s.requireRole(ctx, employeeID, models.EmployeeDriver); err != nil {
		return nil, err
	}

	var dates dateParser
	driver := &models.Driver{
		EmployeeID:           employeeID,
		TASBadgeNumber:       strings.TrimSpace(req.TASBadgeNumber),
		TaxiBadgeNumber:      strings.TrimSpace(req.TaxiBadgeNumber),
		DBSNumber:            strings.TrimSpace(req.DBSNumber),
		DrivingLicenceNumber: strings.TrimSpace(req.DrivingLicenceNumber),
		TASBadgeExpiry:       dates.parse(req.TASBadgeExpiry, "tas_badge_expiry_date"),
		TaxiBadgeExpiry:      dates.parse(req.TaxiBadgeExpiry, "taxi_badge_expiry_date"),
		DBSExpiry:            dates.parse(req.DBSExpiry, "dbs_expiry_date"),
		DrivingLicenceExpiry: dates.parse(req.DrivingLicenceExpiry, "driving_licence_expiry_date"),
		CPCExpiry:            dates.parse(req.CPCExpiry, "cpc_expiry_date"),
		FirstAidExpiry:       dates.parse(req.FirstAidExpiry, "first_aid_expiry_date"),
		MedicalExpiry:        dates.parse(req.MedicalExpiry, "medical_expiry_date"),
		SafeguardingExpiry:   dates.parse(req.SafeguardingExpiry, "safeguarding_expiry_date"),
		PassportExpiry:       dates.parse(req.PassportExpiry, "passport_expiry_date"),
		Training:             trainingFromRequest(&dates, req.TrainingRequest),
		Checklist:            models.Checklist(req.ChecklistRequest),
	}
	if dates.err != nil {
		return nil, dates.err
	}

	if err := s.repo.UpsertDriver(ctx, driver); err != nil {
		return nil, mapRepoError(err, "employee not found", "failed to save driver profile")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "driver", &employeeID, driver)
	invalidateDerived(ctx, s.cache, s.logger)
	return driver, nil
}

// UpsertAssistant creates or replaces the profile of a PASSENGER_ASSISTANT
// employee. An existing QR token is kept.
func (s *EmployeeService) UpsertAssistant(ctx context.Context, employeeID string, req dto.AssistantProfileRequest, actor Actor) (*models.PassengerAssistant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assistant profile")
	}
	if err := s.requireRole(ctx, employeeID, models.EmployeePassengerAssistant); err != nil {
		return nil, err
	}

	var dates dateParser
	assistant := &models.PassengerAssistant{
		EmployeeID:         employeeID,
		TASBadgeNumber:     strings.TrimSpace(req.TASBadgeNumber),
		DBSNumber:          strings.TrimSpace(req.DBSNumber),
		TASBadgeExpiry:     dates.parse(req.TASBadgeExpiry, "tas_badge_expiry_date"),
		DBSExpiry:          dates.parse(req.DBSExpiry, "dbs_expiry_date"),
		FirstAidExpiry:     dates.parse(req.FirstAidExpiry, "first_aid_expiry_date"),
		SafeguardingExpiry: dates.parse(req.SafeguardingExpiry, "safeguarding_expiry_date"),
		PassportExpiry:     dates.parse(req.PassportExpiry, "passport_expiry_date"),
		Training:           trainingFromRequest(&dates, req.TrainingRequest),
		Checklist:          models.Checklist(req.ChecklistRequest),
		AutoHomeStop:       req.AutoHomeStop,
	}
	if dates.err != nil {
		return nil, dates.err
	}

	if err := s.repo.UpsertAssistant(ctx, assistant); err != nil {
		return nil, mapRepoError(err, "employee not found", "failed to save assistant profile")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "assistant", &employeeID, assistant)
	invalidateDerived(ctx, s.cache, s.logger)
	return assistant, nil
}

// RotateAssistantQRToken issues a new portal token and invalidates the old one.
func (s *EmployeeService) RotateAssistantQRToken(ctx context.Context, employeeID string, actor Actor) (string, error) {
	if _, err := s.repo.FindAssistant(ctx, employeeID); err != nil {
		return "", mapRepoError(err, "assistant profile not found", "failed to load assistant profile")
	}
	token, err := newPortalToken()
	if err != nil {
		return "", appErrors.Internal(err, "failed to generate token")
	}
	if err := s.repo.SetAssistantQRToken(ctx, employeeID, token); err != nil {
		return "", mapRepoError(err, "assistant profile not found", "failed to save token")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionTokenRotated, "assistant", &employeeID, nil)
	return token, nil
}

func (s *EmployeeService) requireRole(ctx context.Context, employeeID string, role models.EmployeeRole) error {
	employee, err := s.repo.FindByID(ctx, employeeID)
	if err != nil {
		return mapRepoError(err, "employee not found", "failed to load employee")
	}
	if employee.Role != role {
		return appErrors.Clone(appErrors.ErrValidation, "employee role is "+string(employee.Role)+", expected "+string(role))
	}
	return nil
}

func applyEmployeeRequest(employee *models.Employee, req dto.EmployeeRequest) error {
	start, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		return err
	}
	employee.FullName = strings.TrimSpace(req.FullName)
	employee.Role = models.EmployeeRole(req.Role)
	if req.EmploymentStatus != "" {
		employee.EmploymentStatus = models.EmploymentStatus(req.EmploymentStatus)
	}
	employee.CanWork = boolOr(req.CanWork, employee.CanWork)
	employee.Phone = strings.TrimSpace(req.Phone)
	employee.Email = strings.TrimSpace(req.Email)
	employee.Address = strings.TrimSpace(req.Address)
	employee.Postcode = strings.ToUpper(strings.TrimSpace(req.Postcode))
	employee.HomeLatitude = req.HomeLatitude
	employee.HomeLongitude = req.HomeLongitude
	employee.StartDate = start
	return nil
}

func trainingFromRequest(dates *dateParser, req dto.TrainingRequest) models.Training {
	return models.Training{
		SafeguardingTrainingCompleted: req.SafeguardingTrainingCompleted,
		SafeguardingTrainingDate:      dates.parse(req.SafeguardingTrainingDate, "safeguarding_training_date"),
		TASPATSTrainingCompleted:      req.TASPATSTrainingCompleted,
		TASPATSTrainingDate:           dates.parse(req.TASPATSTrainingDate, "tas_pats_training_date"),
		PSATrainingCompleted:          req.PSATrainingCompleted,
		PSATrainingDate:               dates.parse(req.PSATrainingDate, "psa_training_date"),
	}
}
