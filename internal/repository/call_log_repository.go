package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

const callLogColumns = `id, call_date, caller_name, caller_type, phone, subject, notes, route_id, passenger_id, action_required, action_taken, follow_up_date, created_by, created_at, updated_at`

// CallLogRepository persists the office call log.
type CallLogRepository struct {
	db *sqlx.DB
}

// NewCallLogRepository constructs a CallLogRepository.
func NewCallLogRepository(db *sqlx.DB) *CallLogRepository {
	return &CallLogRepository{db: db}
}

// List returns call logs newest first with the total count.
func (r *CallLogRepository) List(ctx context.Context, filter models.CallLogFilter) ([]models.CallLog, int, error) {
	where := newWhere()
	if filter.CallerType != "" {
		where.add("caller_type = $%[1]d", filter.CallerType)
	}
	if filter.RouteID != "" {
		where.add("route_id = $%[1]d", filter.RouteID)
	}
	if filter.ActionRequired != nil {
		where.add("action_required = $%[1]d", *filter.ActionRequired)
	}
	if filter.From != nil {
		where.add("call_date >= $%[1]d", *filter.From)
	}
	if filter.To != nil {
		where.add("call_date < $%[1]d", *filter.To)
	}
	where.search(filter.Search, "caller_name", "subject", "notes")

	opts := filter.ListOptions
	order := orderClause(opts, map[string]string{"call_date": "call_date", "caller_name": "caller_name"}, "call_date", "DESC")
	page := pageClause(&opts, 20)

	var logs []models.CallLog
	query := fmt.Sprintf(`SELECT %s FROM call_logs %s %s %s`, callLogColumns, where, order, page)
	if err := r.db.SelectContext(ctx, &logs, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list call logs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM call_logs "+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count call logs: %w", err)
	}
	return logs, total, nil
}

// FindByID fetches a call log.
func (r *CallLogRepository) FindByID(ctx context.Context, id string) (*models.CallLog, error) {
	var log models.CallLog
	if err := r.db.GetContext(ctx, &log, `SELECT `+callLogColumns+` FROM call_logs WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &log, nil
}

// Create inserts a call log.
func (r *CallLogRepository) Create(ctx context.Context, log *models.CallLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now
	const query = `INSERT INTO call_logs (id, call_date, caller_name, caller_type, phone, subject, notes, route_id, passenger_id, action_required, action_taken, follow_up_date, created_by, created_at, updated_at)
        VALUES (:id, :call_date, :caller_name, :caller_type, :phone, :subject, :notes, :route_id, :passenger_id, :action_required, :action_taken, :follow_up_date, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return mapWriteError("create call log", err)
	}
	return nil
}

// Update modifies a call log.
func (r *CallLogRepository) Update(ctx context.Context, log *models.CallLog) error {
	log.UpdatedAt = time.Now().UTC()
	const query = `UPDATE call_logs SET call_date = :call_date, caller_name = :caller_name, caller_type = :caller_type, phone = :phone, subject = :subject,
        notes = :notes, route_id = :route_id, passenger_id = :passenger_id, action_required = :action_required, action_taken = :action_taken,
        follow_up_date = :follow_up_date, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, log)
	if err != nil {
		return mapWriteError("update call log", err)
	}
	return expectRow(res)
}

// Delete removes a call log.
func (r *CallLogRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM call_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete call log: %w", err)
	}
	return expectRow(res)
}
