package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

const notificationColumns = `id, subject_kind, subject_id, subject_name, certificate_type, expiry_date, title, message, status, upload_token, token_expires_at, resolved_at, created_at, updated_at`

// NotificationRepository persists expiry notifications and email summaries.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// List returns notifications newest first with the total count.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	where := newWhere()
	if filter.Status != "" {
		where.add("status = $%[1]d", filter.Status)
	}
	if filter.SubjectKind != "" {
		where.add("subject_kind = $%[1]d", filter.SubjectKind)
	}
	if filter.SubjectID != "" {
		where.add("subject_id = $%[1]d", filter.SubjectID)
	}
	where.search(filter.Search, "subject_name", "certificate_type", "title")

	opts := filter.ListOptions
	order := orderClause(opts, map[string]string{"created_at": "created_at", "expiry_date": "expiry_date"}, "created_at", "DESC")
	page := pageClause(&opts, 20)

	var notifications []models.Notification
	query := fmt.Sprintf(`SELECT %s FROM notifications %s %s %s`, notificationColumns, where, order, page)
	if err := r.db.SelectContext(ctx, &notifications, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications "+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// ListPending returns every pending notification oldest expiry first.
func (r *NotificationRepository) ListPending(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE status = $1 ORDER BY expiry_date NULLS LAST, subject_name`
	if err := r.db.SelectContext(ctx, &notifications, query, models.NotificationPending); err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return notifications, nil
}

// FindByID fetches a notification.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &n, nil
}

// FindByUploadToken resolves a document portal token.
func (r *NotificationRepository) FindByUploadToken(ctx context.Context, token string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE upload_token = $1`, token); err != nil {
		return nil, err
	}
	return &n, nil
}

// Exists reports whether a notification for the same certificate expiry has
// already been raised.
func (r *NotificationRepository) Exists(ctx context.Context, subjectID, certificateType string, expiry time.Time) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM notifications WHERE subject_id = $1 AND certificate_type = $2 AND expiry_date = $3)`
	if err := r.db.GetContext(ctx, &exists, query, subjectID, certificateType, expiry); err != nil {
		return false, fmt.Errorf("check notification: %w", err)
	}
	return exists, nil
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = models.NotificationPending
	}
	const query = `INSERT INTO notifications (id, subject_kind, subject_id, subject_name, certificate_type, expiry_date, title, message, status, upload_token, token_expires_at, resolved_at, created_at, updated_at)
        VALUES (:id, :subject_kind, :subject_id, :subject_name, :certificate_type, :expiry_date, :title, :message, :status, :upload_token, :token_expires_at, :resolved_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return mapWriteError("create notification", err)
	}
	return nil
}

// Resolve marks a notification resolved and revokes its upload token.
func (r *NotificationRepository) Resolve(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET status = $2, resolved_at = $3, token_expires_at = $3, updated_at = $3 WHERE id = $1`,
		id, models.NotificationResolved, now)
	if err != nil {
		return fmt.Errorf("resolve notification: %w", err)
	}
	return expectRow(res)
}

// MarkSent flags notifications as included in an outbound summary.
func (r *NotificationRepository) MarkSent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE notifications SET status = ?, updated_at = ? WHERE status = ? AND id IN (?)`,
		models.NotificationSent, time.Now().UTC(), models.NotificationPending, ids)
	if err != nil {
		return fmt.Errorf("build mark sent: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("mark notifications sent: %w", err)
	}
	return nil
}

// CreateSummary stores an email summary.
func (r *NotificationRepository) CreateSummary(ctx context.Context, summary *models.EmailSummary) error {
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	summary.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO email_summaries (id, recipients, subject, body, notification_ids, created_by, created_at)
        VALUES (:id, :recipients, :subject, :body, :notification_ids, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, summary); err != nil {
		return mapWriteError("create email summary", err)
	}
	return nil
}

// ListSummaries returns email summaries newest first.
func (r *NotificationRepository) ListSummaries(ctx context.Context, opts models.ListOptions) ([]models.EmailSummary, int, error) {
	page := pageClause(&opts, 20)
	var summaries []models.EmailSummary
	query := `SELECT id, recipients, subject, body, notification_ids, created_by, created_at FROM email_summaries ORDER BY created_at DESC ` + page
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, 0, fmt.Errorf("list email summaries: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM email_summaries`); err != nil {
		return nil, 0, fmt.Errorf("count email summaries: %w", err)
	}
	return summaries, total, nil
}
