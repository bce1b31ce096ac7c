package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/repository"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/middleware/requestid"
)

const dateLayout = "2006-01-02"

// Actor identifies who triggered a write, for the audit trail.
type Actor struct {
	UserID    *string
	Name      string
	IP        string
	UserAgent string
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// recordAudit stores an audit entry. Failures are logged and never surface to
// the caller.
func recordAudit(ctx context.Context, w auditWriter, logger *zap.Logger, actor Actor, action, resource string, resourceID *string, values interface{}) {
	if w == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     actor.UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if values != nil {
		if raw, err := json.Marshal(values); err == nil {
			entry.NewValues = raw
		}
	}
	if err := w.Create(ctx, entry); err != nil {
		logger.Warn("failed to record audit log",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
	}
}

// mapRepoError converts repository errors into typed API errors.
func mapRepoError(err error, notFoundMsg, failMsg string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "record already exists")
	}
	return appErrors.Internal(err, failMsg)
}

func validationError(err error, msg string) error {
	return appErrors.Validation(err, msg)
}

func paginationFor(opts models.ListOptions, defaultSize, total int) *models.Pagination {
	opts.Normalize(defaultSize)
	return &models.Pagination{Page: opts.Page, PageSize: opts.PageSize, TotalCount: total}
}

// parseDate reads an optional YYYY-MM-DD value.
func parseDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, field+" must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}

// dateParser collects the first parse failure across several fields.
type dateParser struct {
	err error
}

func (p *dateParser) parse(raw *string, field string) *time.Time {
	if p.err != nil {
		return nil
	}
	t, err := parseDate(raw, field)
	if err != nil {
		p.err = err
	}
	return t
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// newPortalToken returns a random URL safe token for QR and upload links.
func newPortalToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type cacheInvalidator interface {
	InvalidateViews(ctx context.Context, views ...string) error
}

// invalidateDerived drops cached expiry and dashboard views. Failures only
// leave stale entries until their TTL runs out, so they are logged.
func invalidateDerived(ctx context.Context, c cacheInvalidator, logger *zap.Logger) {
	if c == nil {
		return
	}
	if err := c.InvalidateViews(ctx, DerivedViews...); err != nil {
		logger.Warn("failed to invalidate cached views", zap.Strings("views", DerivedViews), zap.Error(err))
	}
}
