package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/jobs"
)

type mockNotificationRepo struct {
	mu        sync.Mutex
	items     map[string]*models.Notification
	order     []string
	existing  map[string]bool
	summaries []models.EmailSummary
	sent      []string
	createErr error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{items: map[string]*models.Notification{}, existing: map[string]bool{}}
}

func notificationKey(subjectID, certType string, expiry time.Time) string {
	return subjectID + "|" + certType + "|" + expiry.Format(dateLayout)
}

func (m *mockNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, id := range m.order {
		n := m.items[id]
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		out = append(out, *n)
	}
	return out, len(out), nil
}

func (m *mockNotificationRepo) ListPending(ctx context.Context) ([]models.Notification, error) {
	out, _, err := m.List(ctx, models.NotificationFilter{Status: models.NotificationPending})
	return out, err
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.items[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationRepo) FindByUploadToken(ctx context.Context, token string) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.UploadToken != nil && *n.UploadToken == token {
			cp := *n
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationRepo) Exists(ctx context.Context, subjectID, certificateType string, expiry time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existing[notificationKey(subjectID, certificateType, expiry)], nil
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if n.ID == "" {
		n.ID = "n" + string(rune('a'+len(m.order)))
	}
	cp := *n
	m.items[n.ID] = &cp
	m.order = append(m.order, n.ID)
	m.existing[notificationKey(n.SubjectID, n.CertificateType, *n.ExpiryDate)] = true
	return nil
}

func (m *mockNotificationRepo) Resolve(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now()
	n.Status = models.NotificationResolved
	n.ResolvedAt = &now
	n.TokenExpiresAt = &now
	return nil
}

func (m *mockNotificationRepo) MarkSent(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if n, ok := m.items[id]; ok && n.Status == models.NotificationPending {
			n.Status = models.NotificationSent
		}
	}
	m.sent = append(m.sent, ids...)
	return nil
}

func (m *mockNotificationRepo) CreateSummary(ctx context.Context, summary *models.EmailSummary) error {
	summary.ID = "summary-1"
	m.summaries = append(m.summaries, *summary)
	return nil
}

func (m *mockNotificationRepo) ListSummaries(ctx context.Context, opts models.ListOptions) ([]models.EmailSummary, int, error) {
	return m.summaries, len(m.summaries), nil
}

type stubSubjects struct {
	subjects []models.CertificateSubject
	err      error
}

func (s stubSubjects) Subjects(ctx context.Context) ([]models.CertificateSubject, error) {
	return s.subjects, s.err
}

type sweepCounter struct {
	mu      sync.Mutex
	runs    int
	created int
	errs    int
}

func (c *sweepCounter) RecordSweep(created int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	c.created += created
	if err != nil {
		c.errs++
	}
}

func sweepSubjects(today time.Time) []models.CertificateSubject {
	return []models.CertificateSubject{
		{Kind: models.SubjectDriver, ID: "d1", Name: "Dan Driver", Certificates: []models.CertificateDate{
			{Type: models.CertTASBadge, Expiry: dayPtr(today, -1)},
			{Type: models.CertDBS, Expiry: dayPtr(today, 12)},
			{Type: models.CertCPC, Expiry: dayPtr(today, 90)},
		}},
		{Kind: models.SubjectVehicle, ID: "v1", Name: "AB12 CDE", Certificates: []models.CertificateDate{
			{Type: models.CertMOT, Expiry: dayPtr(today, 30)},
		}},
	}
}

func newNotificationServiceForTest(today time.Time) (*NotificationService, *mockNotificationRepo, *sweepCounter, *recordingInvalidator) {
	repo := newMockNotificationRepo()
	counter := &sweepCounter{}
	inv := &recordingInvalidator{}
	svc := NewNotificationService(repo, stubSubjects{subjects: sweepSubjects(today)}, &mockAuditWriter{}, inv, counter, 48*time.Hour, nil, nil)
	svc.now = func() time.Time { return today }
	return svc, repo, counter, inv
}

func TestNotificationSweepCreatesOnePerCertificate(t *testing.T) {
	today := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc, repo, counter, inv := newNotificationServiceForTest(today)

	result, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.SweepResult{Examined: 3, Created: 3}, *result)
	assert.Equal(t, 1, counter.runs)
	assert.Equal(t, 3, counter.created)
	assert.NotEmpty(t, inv.views)

	pending, _ := repo.ListPending(context.Background())
	require.Len(t, pending, 3)
	first := pending[0]
	assert.Equal(t, "TAS Badge expired for Dan Driver", first.Title)
	require.NotNil(t, first.UploadToken)
	assert.Len(t, *first.UploadToken, 32)
	require.NotNil(t, first.TokenExpiresAt)
	assert.Equal(t, today.Add(48*time.Hour), *first.TokenExpiresAt)
}

func TestNotificationSweepSkipsAlreadyNotified(t *testing.T) {
	today := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc, _, _, _ := newNotificationServiceForTest(today)

	_, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	result, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.SweepResult{Examined: 3, Skipped: 3}, *result)
}

func TestNotificationSweepCountsCreateFailures(t *testing.T) {
	today := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc, repo, _, inv := newNotificationServiceForTest(today)
	repo.createErr = errors.New("insert failed")

	result, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Failed)
	assert.Empty(t, inv.views)
}

func TestNotificationSweepReportsLoadFailure(t *testing.T) {
	counter := &sweepCounter{}
	svc := NewNotificationService(newMockNotificationRepo(), stubSubjects{err: errors.New("boom")}, nil, nil, counter, 0, nil, nil)

	_, err := svc.Sweep(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, counter.errs)
}

func TestNotificationEnqueueSweepRunsThroughQueue(t *testing.T) {
	today := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc, repo, _, _ := newNotificationServiceForTest(today)
	queue := jobs.NewQueue("notifications", svc.HandleJob, jobs.QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Millisecond})
	queue.Start(context.Background())
	defer queue.Stop()
	svc.UseQueue(queue)

	accepted, err := svc.EnqueueSweep(context.Background(), Actor{})
	require.NoError(t, err)
	assert.Equal(t, dto.SweepAccepted{Queued: true, Queue: "notifications"}, *accepted)

	require.Eventually(t, func() bool { return queue.Stats().Processed == 1 }, time.Second, 5*time.Millisecond)
	pending, _ := repo.ListPending(context.Background())
	assert.Len(t, pending, 3)
}

type busyQueue struct{}

func (busyQueue) Name() string { return "notifications" }

func (busyQueue) Enqueue(job jobs.Job) error {
	return fmt.Errorf("notifications: %w", jobs.ErrAlreadyQueued)
}

func TestNotificationEnqueueSweepCoalesces(t *testing.T) {
	svc, _, _, _ := newNotificationServiceForTest(time.Now())
	svc.UseQueue(busyQueue{})

	accepted, err := svc.EnqueueSweep(context.Background(), Actor{})
	require.NoError(t, err)
	assert.True(t, accepted.AlreadyQueued)
}

func TestNotificationEnqueueSweepWithoutQueue(t *testing.T) {
	svc, _, _, _ := newNotificationServiceForTest(time.Now())

	_, err := svc.EnqueueSweep(context.Background(), Actor{})
	require.Error(t, err)
}

func TestNotificationHandleJobRejectsUnknownType(t *testing.T) {
	svc, _, _, _ := newNotificationServiceForTest(time.Now())

	assert.Error(t, svc.HandleJob(context.Background(), jobs.Job{Type: "other"}))
}

func TestNotificationResolve(t *testing.T) {
	today := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc, repo, _, _ := newNotificationServiceForTest(today)
	_, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	n, err := svc.Resolve(context.Background(), repo.order[0], Actor{})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationResolved, n.Status)

	_, err = svc.Resolve(context.Background(), "missing", Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotificationCreateSummaryMarksPendingSent(t *testing.T) {
	today := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc, repo, _, _ := newNotificationServiceForTest(today)
	_, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	userID := "user-1"
	summary, err := svc.CreateSummary(context.Background(), dto.CreateSummaryRequest{Recipients: []string{"office@example.com"}}, Actor{UserID: &userID})
	require.NoError(t, err)
	assert.Equal(t, "Certificate expiry summary (3 items)", summary.Subject)
	assert.Contains(t, summary.Body, "- Dan Driver (driver): TAS Badge, expiry 2024-04-30")
	assert.Len(t, summary.NotificationIDs, 3)
	assert.Equal(t, &userID, summary.CreatedBy)
	assert.Len(t, repo.sent, 3)

	_, err = svc.CreateSummary(context.Background(), dto.CreateSummaryRequest{Recipients: []string{"office@example.com"}}, Actor{})
	require.Error(t, err, "nothing left pending")
}

func TestNotificationCreateSummaryValidatesRecipients(t *testing.T) {
	svc, _, _, _ := newNotificationServiceForTest(time.Now())

	_, err := svc.CreateSummary(context.Background(), dto.CreateSummaryRequest{Recipients: []string{"not-an-email"}}, Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
