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

type callLogRepository interface {
	List(ctx context.Context, filter models.CallLogFilter) ([]models.CallLog, int, error)
	FindByID(ctx context.Context, id string) (*models.CallLog, error)
	Create(ctx context.Context, log *models.CallLog) error
	Update(ctx context.Context, log *models.CallLog) error
	Delete(ctx context.Context, id string) error
}

// CallLogService manages the office phone log. Writes are audited at the
// HTTP layer.
type CallLogService struct {
	repo      callLogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCallLogService constructs the call log service.
func NewCallLogService(repo callLogRepository, validate *validator.Validate, logger *zap.Logger) *CallLogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallLogService{repo: repo, validator: validate, logger: logger}
}

// List returns call logs newest first.
func (s *CallLogService) List(ctx context.Context, filter models.CallLogFilter) ([]models.CallLog, *models.Pagination, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list call logs")
	}
	return logs, paginationFor(filter.ListOptions, 20, total), nil
}

// Get returns a call log entry.
func (s *CallLogService) Get(ctx context.Context, id string) (*models.CallLog, error) {
	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "call log not found", "failed to load call log")
	}
	return log, nil
}

// Create records a call.
func (s *CallLogService) Create(ctx context.Context, req dto.CallLogRequest, actor Actor) (*models.CallLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid call log payload")
	}
	log := &models.CallLog{CreatedBy: actor.UserID}
	if err := applyCallLogRequest(log, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return nil, mapRepoError(err, "call log not found", "failed to create call log")
	}
	return log, nil
}

// Update modifies a call log entry.
func (s *CallLogService) Update(ctx context.Context, id string, req dto.CallLogRequest) (*models.CallLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid call log payload")
	}
	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "call log not found", "failed to load call log")
	}
	if err := applyCallLogRequest(log, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, log); err != nil {
		return nil, mapRepoError(err, "call log not found", "failed to update call log")
	}
	return log, nil
}

// Delete removes a call log entry.
func (s *CallLogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "call log not found", "failed to delete call log")
	}
	return nil
}

func applyCallLogRequest(log *models.CallLog, req dto.CallLogRequest) error {
	callDate, err := time.Parse(time.RFC3339, req.CallDate)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "call_date must be an RFC3339 timestamp")
	}
	followUp, err := parseDate(req.FollowUpDate, "follow_up_date")
	if err != nil {
		return err
	}
	log.CallDate = callDate.UTC()
	log.CallerName = strings.TrimSpace(req.CallerName)
	log.CallerType = req.CallerType
	if log.CallerType == "" {
		log.CallerType = "OTHER"
	}
	log.Phone = strings.TrimSpace(req.Phone)
	log.Subject = strings.TrimSpace(req.Subject)
	log.Notes = req.Notes
	log.RouteID = trimOptional(req.RouteID)
	log.PassengerID = trimOptional(req.PassengerID)
	log.ActionRequired = req.ActionRequired
	log.ActionTaken = req.ActionTaken
	log.FollowUpDate = followUp
	return nil
}
