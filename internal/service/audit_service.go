package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

// AuditListRequest carries raw query parameters for the audit trail.
type AuditListRequest struct {
	UserID   string
	Action   string
	Resource string
	From     string
	To       string
	models.ListOptions
}

// AuditService reads and appends the admin audit trail.
type AuditService struct {
	repo      auditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditRepository, validate *validator.Validate, logger *zap.Logger) *AuditService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, validator: validate, logger: logger}
}

// List returns audit entries newest first. From and To accept either a
// date or an RFC3339 timestamp; a bare To date includes that whole day.
func (s *AuditService) List(ctx context.Context, req AuditListRequest) ([]models.AuditLog, *models.Pagination, error) {
	filter := models.AuditLogFilter{
		UserID:      strings.TrimSpace(req.UserID),
		Action:      strings.ToUpper(strings.TrimSpace(req.Action)),
		Resource:    strings.TrimSpace(req.Resource),
		ListOptions: req.ListOptions,
	}
	var err error
	if filter.From, err = parseAuditBound(req.From, "from", false); err != nil {
		return nil, nil, err
	}
	if filter.To, err = parseAuditBound(req.To, "to", true); err != nil {
		return nil, nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}

	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list audit logs")
	}
	return logs, paginationFor(filter.ListOptions, 50, total), nil
}

func parseAuditBound(raw, field string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, field+" must be YYYY-MM-DD or RFC3339")
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

// Create appends an explicit audit entry on behalf of actor.
func (s *AuditService) Create(ctx context.Context, req dto.CreateAuditLogRequest, actor Actor) (*models.AuditLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid audit payload")
	}
	for field, raw := range map[string]json.RawMessage{"old_values": req.OldValues, "new_values": req.NewValues} {
		if len(raw) > 0 && !json.Valid(raw) {
			return nil, appErrors.Clone(appErrors.ErrValidation, field+" must be valid JSON")
		}
	}
	entry := &models.AuditLog{
		UserID:     actor.UserID,
		Action:     strings.ToUpper(strings.TrimSpace(req.Action)),
		Resource:   strings.TrimSpace(req.Resource),
		ResourceID: trimOptional(req.ResourceID),
		OldValues:  []byte(req.OldValues),
		NewValues:  []byte(req.NewValues),
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Internal(err, "failed to store audit log")
	}
	return entry, nil
}
