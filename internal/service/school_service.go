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

type schoolRepository interface {
	List(ctx context.Context, opts models.ListOptions) ([]models.School, int, error)
	FindByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
	Delete(ctx context.Context, id string) error
}

// SchoolService manages the schools routes deliver to. Writes are audited
// at the HTTP layer.
type SchoolService struct {
	repo      schoolRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs the school service.
func NewSchoolService(repo schoolRepository, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{repo: repo, validator: validate, logger: logger}
}

// List returns schools ordered by name.
func (s *SchoolService) List(ctx context.Context, opts models.ListOptions) ([]models.School, *models.Pagination, error) {
	schools, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list schools")
	}
	return schools, paginationFor(opts, 50, total), nil
}

// Get returns a school.
func (s *SchoolService) Get(ctx context.Context, id string) (*models.School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "school not found", "failed to load school")
	}
	return school, nil
}

// Create registers a school.
func (s *SchoolService) Create(ctx context.Context, req dto.SchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid school payload")
	}
	school := &models.School{}
	applySchoolRequest(school, req)
	if err := s.repo.Create(ctx, school); err != nil {
		return nil, mapRepoError(err, "school not found", "failed to create school")
	}
	return school, nil
}

// Update modifies a school.
func (s *SchoolService) Update(ctx context.Context, id string, req dto.SchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid school payload")
	}
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "school not found", "failed to load school")
	}
	applySchoolRequest(school, req)
	if err := s.repo.Update(ctx, school); err != nil {
		return nil, mapRepoError(err, "school not found", "failed to update school")
	}
	return school, nil
}

// Delete removes a school. Routes and passengers keep a null reference.
func (s *SchoolService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "school not found", "failed to delete school")
	}
	return nil
}

func applySchoolRequest(school *models.School, req dto.SchoolRequest) {
	school.Name = strings.TrimSpace(req.Name)
	school.Address = strings.TrimSpace(req.Address)
	school.Postcode = strings.ToUpper(strings.TrimSpace(req.Postcode))
	school.Phone = strings.TrimSpace(req.Phone)
	school.ContactName = strings.TrimSpace(req.ContactName)
}
