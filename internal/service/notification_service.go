package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/jobs"
)

// SweepJobType is the job type handled by the notification queue.
const SweepJobType = "expiry-sweep"

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	ListPending(ctx context.Context) ([]models.Notification, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	Exists(ctx context.Context, subjectID, certificateType string, expiry time.Time) (bool, error)
	Create(ctx context.Context, n *models.Notification) error
	Resolve(ctx context.Context, id string) error
	MarkSent(ctx context.Context, ids []string) error
	CreateSummary(ctx context.Context, summary *models.EmailSummary) error
	ListSummaries(ctx context.Context, opts models.ListOptions) ([]models.EmailSummary, int, error)
}

type subjectSource interface {
	Subjects(ctx context.Context) ([]models.CertificateSubject, error)
}

type sweepRecorder interface {
	RecordSweep(created int, err error)
}

type jobEnqueuer interface {
	Name() string
	Enqueue(job jobs.Job) error
}

// NotificationService runs the expiry sweep and manages the reminders it
// creates.
type NotificationService struct {
	repo      notificationRepository
	subjects  subjectSource
	audit     auditWriter
	cache     cacheInvalidator
	metrics   sweepRecorder
	queue     jobEnqueuer
	tokenTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationRepository, subjects subjectSource, audit auditWriter, cache cacheInvalidator, metrics sweepRecorder, tokenTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 30 * 24 * time.Hour
	}
	return &NotificationService{
		repo:      repo,
		subjects:  subjects,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		tokenTTL:  tokenTTL,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// UseQueue routes EnqueueSweep through q.
func (s *NotificationService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

// HandleJob is the queue handler for notification jobs.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != SweepJobType {
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	_, err := s.Sweep(ctx)
	return err
}

// EnqueueSweep queues a sweep for the background workers.
func (s *NotificationService) EnqueueSweep(ctx context.Context, actor Actor) (*dto.SweepAccepted, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "sweep queue is not running")
	}
	job := jobs.Job{
		ID:   fmt.Sprintf("%s-%d", SweepJobType, s.now().UnixNano()),
		Type: SweepJobType,
		Key:  SweepJobType,
	}
	if err := s.queue.Enqueue(job); err != nil {
		if errors.Is(err, jobs.ErrAlreadyQueued) {
			return &dto.SweepAccepted{Queued: true, Queue: s.queue.Name(), AlreadyQueued: true}, nil
		}
		return nil, appErrors.Internal(err, "failed to queue sweep")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionExpirySweep, "notifications", nil, nil)
	return &dto.SweepAccepted{Queued: true, Queue: s.queue.Name()}, nil
}

// Sweep creates one pending notification for every expired or soon
// expiring certificate that has not been notified for the same expiry date.
func (s *NotificationService) Sweep(ctx context.Context) (*dto.SweepResult, error) {
	subjects, err := s.subjects.Subjects(ctx)
	if err != nil {
		s.recordSweep(0, err)
		return nil, err
	}
	now := s.now()
	summary := ClassifyExpiries(subjects, now)
	candidates := make([]models.ExpiringCertificate, 0, len(summary.Expired)+len(summary.Within30))
	candidates = append(candidates, summary.Expired...)
	candidates = append(candidates, summary.Within30...)

	result := &dto.SweepResult{}
	for _, row := range candidates {
		result.Examined++
		exists, err := s.repo.Exists(ctx, row.SubjectID, row.CertificateType, row.ExpiryDate)
		if err != nil {
			result.Failed++
			s.logger.Warn("notification lookup failed", zap.String("subject_id", row.SubjectID), zap.String("certificate", row.CertificateType), zap.Error(err))
			continue
		}
		if exists {
			result.Skipped++
			continue
		}
		n, err := s.notificationFor(row, now)
		if err == nil {
			err = s.repo.Create(ctx, n)
		}
		if err != nil {
			result.Failed++
			s.logger.Warn("notification not created", zap.String("subject_id", row.SubjectID), zap.String("certificate", row.CertificateType), zap.Error(err))
			continue
		}
		result.Created++
	}

	if result.Created > 0 {
		invalidateDerived(ctx, s.cache, s.logger)
	}
	s.recordSweep(result.Created, nil)
	s.logger.Info("expiry sweep finished",
		zap.Int("examined", result.Examined),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *NotificationService) notificationFor(row models.ExpiringCertificate, now time.Time) (*models.Notification, error) {
	token, err := newPortalToken()
	if err != nil {
		return nil, err
	}
	expires := now.Add(s.tokenTTL).UTC()
	expiry := row.ExpiryDate
	title := fmt.Sprintf("%s expiring for %s", row.CertificateType, row.SubjectName)
	message := fmt.Sprintf("The %s for %s expires on %s (%d days remaining). Please upload a renewed document.",
		row.CertificateType, row.SubjectName, expiry.Format(dateLayout), row.DaysRemaining)
	if row.DaysRemaining < 0 {
		title = fmt.Sprintf("%s expired for %s", row.CertificateType, row.SubjectName)
		message = fmt.Sprintf("The %s for %s expired on %s. Please upload a renewed document.",
			row.CertificateType, row.SubjectName, expiry.Format(dateLayout))
	}
	return &models.Notification{
		SubjectKind:     row.SubjectKind,
		SubjectID:       row.SubjectID,
		SubjectName:     row.SubjectName,
		CertificateType: row.CertificateType,
		ExpiryDate:      &expiry,
		Title:           title,
		Message:         message,
		Status:          models.NotificationPending,
		UploadToken:     &token,
		TokenExpiresAt:  &expires,
	}, nil
}

func (s *NotificationService) recordSweep(created int, err error) {
	if s.metrics != nil {
		s.metrics.RecordSweep(created, err)
	}
}

// List returns notifications matching filter.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list notifications")
	}
	return items, paginationFor(filter.ListOptions, 20, total), nil
}

// Get returns one notification.
func (s *NotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "notification not found", "failed to load notification")
	}
	return n, nil
}

// Resolve marks a notification resolved and revokes its upload link.
func (s *NotificationService) Resolve(ctx context.Context, id string, actor Actor) (*models.Notification, error) {
	if err := s.repo.Resolve(ctx, id); err != nil {
		return nil, mapRepoError(err, "notification not found", "failed to resolve notification")
	}
	invalidateDerived(ctx, s.cache, s.logger)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "notifications", &id, nil)
	return s.Get(ctx, id)
}

// CreateSummary bundles every pending notification into one email summary
// and marks them sent. Delivery happens outside this service.
func (s *NotificationService) CreateSummary(ctx context.Context, req dto.CreateSummaryRequest, actor Actor) (*models.EmailSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid summary payload")
	}
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load pending notifications")
	}
	if len(pending) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "there are no pending notifications to summarise")
	}

	ids := make([]string, 0, len(pending))
	var body strings.Builder
	body.WriteString("The following certificates need attention:\n\n")
	for _, n := range pending {
		ids = append(ids, n.ID)
		expiry := "unknown"
		if n.ExpiryDate != nil {
			expiry = n.ExpiryDate.Format(dateLayout)
		}
		fmt.Fprintf(&body, "- %s (%s): %s, expiry %s\n", n.SubjectName, strings.ToLower(string(n.SubjectKind)), n.CertificateType, expiry)
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = fmt.Sprintf("Certificate expiry summary (%d items)", len(pending))
	}

	summary := &models.EmailSummary{
		Recipients:      req.Recipients,
		Subject:         subject,
		Body:            body.String(),
		NotificationIDs: ids,
		CreatedBy:       actor.UserID,
	}
	if err := s.repo.CreateSummary(ctx, summary); err != nil {
		return nil, mapRepoError(err, "notification not found", "failed to store summary")
	}
	if err := s.repo.MarkSent(ctx, ids); err != nil {
		return nil, appErrors.Internal(err, "failed to mark notifications sent")
	}
	invalidateDerived(ctx, s.cache, s.logger)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSummaryCreated, "email_summaries", &summary.ID, map[string]int{"notifications": len(ids)})
	return summary, nil
}

// ListSummaries returns stored email summaries newest first.
func (s *NotificationService) ListSummaries(ctx context.Context, opts models.ListOptions) ([]models.EmailSummary, *models.Pagination, error) {
	items, total, err := s.repo.ListSummaries(ctx, opts)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list summaries")
	}
	return items, paginationFor(opts, 20, total), nil
}
