package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type passengerRepository interface {
	List(ctx context.Context, filter models.PassengerFilter) ([]models.PassengerDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.PassengerDetail, error)
	Create(ctx context.Context, passenger *models.Passenger, contacts []models.ParentContact) error
	Update(ctx context.Context, passenger *models.Passenger, contacts []models.ParentContact) error
	Delete(ctx context.Context, id string) error
}

// PassengerService manages passengers and their parent contacts.
type PassengerService struct {
	repo      passengerRepository
	audit     auditWriter
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPassengerService constructs the passenger service.
func NewPassengerService(repo passengerRepository, audit auditWriter, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PassengerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PassengerService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns passengers with their school names and contacts.
func (s *PassengerService) List(ctx context.Context, filter models.PassengerFilter) ([]models.PassengerDetail, *models.Pagination, error) {
	passengers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list passengers")
	}
	return passengers, paginationFor(filter.ListOptions, 20, total), nil
}

// Get returns a passenger with contacts.
func (s *PassengerService) Get(ctx context.Context, id string) (*models.PassengerDetail, error) {
	passenger, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "passenger not found", "failed to load passenger")
	}
	return passenger, nil
}

// Create stores a passenger and their contacts together.
func (s *PassengerService) Create(ctx context.Context, req dto.PassengerRequest, actor Actor) (*models.PassengerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid passenger payload")
	}
	passenger := &models.Passenger{Active: true}
	if err := applyPassengerRequest(passenger, req); err != nil {
		return nil, err
	}
	contacts := contactsFromRequest(req.Contacts)
	if err := s.repo.Create(ctx, passenger, contacts); err != nil {
		return nil, mapRepoError(err, "passenger not found", "failed to create passenger")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "passenger", &passenger.ID, passenger)
	invalidateDerived(ctx, s.cache, s.logger)
	return &models.PassengerDetail{Passenger: *passenger, Contacts: contacts}, nil
}

// Update modifies a passenger. Contacts are replaced only when supplied.
func (s *PassengerService) Update(ctx context.Context, id string, req dto.PassengerRequest, actor Actor) (*models.PassengerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid passenger payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "passenger not found", "failed to load passenger")
	}
	passenger := existing.Passenger
	if err := applyPassengerRequest(&passenger, req); err != nil {
		return nil, err
	}
	var contacts []models.ParentContact
	if req.Contacts != nil {
		contacts = contactsFromRequest(req.Contacts)
	}
	if err := s.repo.Update(ctx, &passenger, contacts); err != nil {
		return nil, mapRepoError(err, "passenger not found", "failed to update passenger")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "passenger", &passenger.ID, passenger)
	invalidateDerived(ctx, s.cache, s.logger)

	detail := &models.PassengerDetail{Passenger: passenger, SchoolName: existing.SchoolName, Contacts: existing.Contacts}
	if req.Contacts != nil {
		detail.Contacts = contacts
	}
	return detail, nil
}

// Delete removes a passenger and any contacts left without a passenger.
func (s *PassengerService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "passenger not found", "failed to delete passenger")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "passenger", &id, nil)
	invalidateDerived(ctx, s.cache, s.logger)
	return nil
}

func applyPassengerRequest(passenger *models.Passenger, req dto.PassengerRequest) error {
	dob, err := parseDate(req.DateOfBirth, "date_of_birth")
	if err != nil {
		return err
	}
	passenger.FullName = strings.TrimSpace(req.FullName)
	passenger.DateOfBirth = dob
	passenger.Address = strings.TrimSpace(req.Address)
	passenger.Postcode = strings.ToUpper(strings.TrimSpace(req.Postcode))
	passenger.SchoolID = trimOptional(req.SchoolID)
	passenger.MobilityNeeds = req.MobilityNeeds
	passenger.Notes = req.Notes
	passenger.Active = boolOr(req.Active, passenger.Active)
	return nil
}

// contactsFromRequest converts contacts and makes sure at most one is
// primary. When none is marked the first contact becomes primary.
func contactsFromRequest(reqs []dto.ParentContactRequest) []models.ParentContact {
	contacts := make([]models.ParentContact, 0, len(reqs))
	primarySeen := false
	for _, r := range reqs {
		primary := r.IsPrimary && !primarySeen
		if primary {
			primarySeen = true
		}
		contacts = append(contacts, models.ParentContact{
			FullName:     strings.TrimSpace(r.FullName),
			Relationship: strings.TrimSpace(r.Relationship),
			Phone:        strings.TrimSpace(r.Phone),
			Email:        strings.TrimSpace(r.Email),
			Address:      strings.TrimSpace(r.Address),
			IsPrimary:    primary,
		})
	}
	if !primarySeen && len(contacts) > 0 {
		contacts[0].IsPrimary = true
	}
	return contacts
}
