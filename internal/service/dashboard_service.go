package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/pkg/cache"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type employeeCounter interface {
	CountByRole(ctx context.Context) (map[models.EmployeeRole]int, error)
	CountCannotWork(ctx context.Context) (int, error)
}

type offRoadCounter interface {
	CountOffRoad(ctx context.Context) (int, int, error)
}

type activeCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type openIncidentCounter interface {
	CountOpen(ctx context.Context) (int, error)
}

type expiryCounter interface {
	Counts(ctx context.Context) (models.ExpiryCounts, error)
}

type pendingNotificationLister interface {
	ListPending(ctx context.Context) ([]models.Notification, error)
}

// Dashboard section names reported when a count could not be loaded.
const (
	SectionEmployees     = "employees"
	SectionVehicles      = "vehicles"
	SectionRoutes        = "routes"
	SectionPassengers    = "passengers"
	SectionIncidents     = "incidents"
	SectionExpiry        = "expiry"
	SectionNotifications = "notifications"
)

const dashboardSections = 7

var dashboardCacheKey = cache.Key(ViewDashboard, "counts")

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the office overview counts.
type DashboardService struct {
	employees     employeeCounter
	vehicles      offRoadCounter
	routes        activeCounter
	passengers    activeCounter
	incidents     openIncidentCounter
	expiry        expiryCounter
	notifications pendingNotificationLister
	cache         readThroughCache
	logger        *zap.Logger
	now           func() time.Time
	cfg           DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Employees     employeeCounter
	Vehicles      offRoadCounter
	Routes        activeCounter
	Passengers    activeCounter
	Incidents     openIncidentCounter
	Expiry        expiryCounter
	Notifications pendingNotificationLister
	Cache         readThroughCache
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		employees:     params.Employees,
		vehicles:      params.Vehicles,
		routes:        params.Routes,
		passengers:    params.Passengers,
		incidents:     params.Incidents,
		expiry:        params.Expiry,
		notifications: params.Notifications,
		cache:         params.Cache,
		logger:        logger,
		now:           time.Now,
		cfg:           cfg,
	}
}

// Overview returns the dashboard counts and whether they came from cache.
// Sections that fail are listed in Unavailable; only complete results are
// cached.
func (s *DashboardService) Overview(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	if cached, hit := s.tryCache(ctx); hit {
		return cached, true, nil
	}

	resp := &dto.DashboardResponse{Employees: map[models.EmployeeRole]int{}}
	var (
		mu     sync.Mutex
		failed []string
	)
	section := func(name string, load func() error) func() error {
		return func() error {
			if err := load(); err != nil {
				s.logger.Warn("dashboard section unavailable", zap.String("section", name), zap.Error(err))
				mu.Lock()
				failed = append(failed, name)
				mu.Unlock()
			}
			return nil
		}
	}

	var g errgroup.Group
	g.Go(section(SectionEmployees, func() error {
		byRole, err := s.employees.CountByRole(ctx)
		if err != nil {
			return err
		}
		cannotWork, err := s.employees.CountCannotWork(ctx)
		if err != nil {
			return err
		}
		resp.Employees = byRole
		resp.CannotWork = cannotWork
		return nil
	}))
	g.Go(section(SectionVehicles, func() (err error) {
		resp.Vehicles, resp.VehiclesOffRoad, err = s.vehicles.CountOffRoad(ctx)
		return err
	}))
	g.Go(section(SectionRoutes, func() (err error) {
		resp.ActiveRoutes, err = s.routes.CountActive(ctx)
		return err
	}))
	g.Go(section(SectionPassengers, func() (err error) {
		resp.ActivePassengers, err = s.passengers.CountActive(ctx)
		return err
	}))
	g.Go(section(SectionIncidents, func() (err error) {
		resp.OpenIncidents, err = s.incidents.CountOpen(ctx)
		return err
	}))
	g.Go(section(SectionExpiry, func() (err error) {
		resp.Expiry, err = s.expiry.Counts(ctx)
		return err
	}))
	g.Go(section(SectionNotifications, func() error {
		pending, err := s.notifications.ListPending(ctx)
		if err != nil {
			return err
		}
		resp.PendingNotices = len(pending)
		return nil
	}))
	_ = g.Wait()

	if len(failed) == dashboardSections {
		return nil, false, appErrors.Clone(appErrors.ErrInternal, "dashboard counts unavailable")
	}
	sort.Strings(failed)
	resp.Unavailable = failed
	resp.GeneratedAt = s.now().UTC()
	if len(failed) == 0 {
		s.persistCache(ctx, resp)
	}
	return resp, false, nil
}

func (s *DashboardService) tryCache(ctx context.Context) (*dto.DashboardResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached dto.DashboardResponse
	hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, value *dto.DashboardResponse) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", dashboardCacheKey), zap.Error(err))
	}
}
