package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

// AuditRepository stores the admin audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns audit entries newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error) {
	where := newWhere()
	if filter.UserID != "" {
		where.add("user_id = $%[1]d", filter.UserID)
	}
	if filter.Action != "" {
		where.add("action = $%[1]d", filter.Action)
	}
	if filter.Resource != "" {
		where.add("resource = $%[1]d", filter.Resource)
	}
	if filter.From != nil {
		where.add("created_at >= $%[1]d", *filter.From)
	}
	if filter.To != nil {
		where.add("created_at < $%[1]d", *filter.To)
	}

	opts := filter.ListOptions
	order := orderClause(opts, map[string]string{"created_at": "created_at", "action": "action"}, "created_at", "DESC")
	page := pageClause(&opts, 50)
	query := fmt.Sprintf(`SELECT id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at FROM audit_logs %s %s %s`, where, order, page)

	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM audit_logs "+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	return logs, total, nil
}
