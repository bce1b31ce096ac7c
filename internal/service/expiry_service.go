package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/pkg/cache"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/export"
)

type certificateHolderSource interface {
	ListDrivers(ctx context.Context, activeOnly bool) ([]models.DriverRecord, error)
	ListAssistants(ctx context.Context, activeOnly bool) ([]models.AssistantRecord, error)
}

type readThroughCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string
	ContentType string
	Body        []byte
}

// ExpiryService classifies certificate expiries across drivers, assistants
// and vehicles.
type ExpiryService struct {
	staff    certificateHolderSource
	vehicles vehicleLister
	cache    readThroughCache
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewExpiryService constructs the expiry service.
func NewExpiryService(staff certificateHolderSource, vehicles vehicleLister, cache readThroughCache, ttl time.Duration, logger *zap.Logger) *ExpiryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiryService{staff: staff, vehicles: vehicles, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// Subjects loads every driver, assistant and vehicle flattened to their
// expiry fields.
func (s *ExpiryService) Subjects(ctx context.Context) ([]models.CertificateSubject, error) {
	var (
		drivers    []models.DriverRecord
		assistants []models.AssistantRecord
		vehicles   []models.Vehicle
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		drivers, err = s.staff.ListDrivers(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		assistants, err = s.staff.ListAssistants(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		vehicles, err = s.vehicles.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Internal(err, "failed to load certificate holders")
	}

	subjects := make([]models.CertificateSubject, 0, len(drivers)+len(assistants)+len(vehicles))
	for _, d := range drivers {
		subjects = append(subjects, d.CertificateSubject())
	}
	for _, a := range assistants {
		subjects = append(subjects, a.CertificateSubject())
	}
	for _, v := range vehicles {
		subjects = append(subjects, v.CertificateSubject())
	}
	return subjects, nil
}

// Summary returns all three windows for today, cached per calendar day.
func (s *ExpiryService) Summary(ctx context.Context) (*models.ExpirySummary, error) {
	today := s.now()
	key := cache.Key(ViewExpiry, "summary", today.Format(dateLayout))
	if s.cache != nil {
		var cached models.ExpirySummary
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	subjects, err := s.Subjects(ctx)
	if err != nil {
		return nil, err
	}
	summary := ClassifyExpiries(subjects, today)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.Debug("expiry summary not cached", zap.Error(err))
		}
	}
	return &summary, nil
}

// Window returns one window, optionally narrowed to a subject kind.
func (s *ExpiryService) Window(ctx context.Context, w models.ExpiryWindow, kind models.SubjectKind) ([]models.ExpiringCertificate, error) {
	if !w.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window must be one of %s, %s, %s", models.WindowExpired, models.Window14Days, models.Window30Days))
	}
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}
	rows := summary.Window(w)
	if kind == "" {
		if rows == nil {
			rows = []models.ExpiringCertificate{}
		}
		return rows, nil
	}
	out := make([]models.ExpiringCertificate, 0, len(rows))
	for _, r := range rows {
		if r.SubjectKind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

// Counts returns the size of each window.
func (s *ExpiryService) Counts(ctx context.Context) (models.ExpiryCounts, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return models.ExpiryCounts{}, err
	}
	return summary.Counts(), nil
}

var expiryExportHeaders = []string{"Type", "Name", "Certificate", "Expiry Date", "Days Remaining"}

// Export renders one window as CSV or PDF.
func (s *ExpiryService) Export(ctx context.Context, w models.ExpiryWindow, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	rows, err := s.Window(ctx, w, "")
	if err != nil {
		return nil, err
	}
	today := s.now().Format(dateLayout)
	data := export.Dataset{
		Title:   fmt.Sprintf("Certificates %s as of %s", w, today),
		Headers: expiryExportHeaders,
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Type":           string(r.SubjectKind),
			"Name":           r.SubjectName,
			"Certificate":    r.CertificateType,
			"Expiry Date":    r.ExpiryDate.Format(dateLayout),
			"Days Remaining": strconv.Itoa(r.DaysRemaining),
		})
	}
	body, err := export.RendererFor(format).Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportFile{
		FileName:    fmt.Sprintf("certificates-%s-%s.%s", w, today, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}
