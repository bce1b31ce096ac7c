package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/repository"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	"github.com/noah-isme/fleet-ops-api/pkg/cache"
	"github.com/noah-isme/fleet-ops-api/pkg/config"
	"github.com/noah-isme/fleet-ops-api/pkg/database"
	"github.com/noah-isme/fleet-ops-api/pkg/storage"
)

// Repositories groups the sqlx backed stores.
type Repositories struct {
	Users         *repository.UserRepository
	Audit         *repository.AuditRepository
	Employees     *repository.EmployeeRepository
	Vehicles      *repository.VehicleRepository
	Schools       *repository.SchoolRepository
	Routes        *repository.RouteRepository
	Passengers    *repository.PassengerRepository
	CallLogs      *repository.CallLogRepository
	Incidents     *repository.IncidentRepository
	Documents     *repository.DocumentRepository
	Notifications *repository.NotificationRepository
}

// Services groups the domain services.
type Services struct {
	Metrics       *service.MetricsService
	Cache         *service.CacheService
	Auth          *service.AuthService
	Audit         *service.AuditService
	Employees     *service.EmployeeService
	Vehicles      *service.VehicleService
	Schools       *service.SchoolService
	Routes        *service.RouteService
	Passengers    *service.PassengerService
	CallLogs      *service.CallLogService
	Incidents     *service.IncidentService
	Expiry        *service.ExpiryService
	Dashboard     *service.DashboardService
	Documents     *service.DocumentService
	Requirements  *service.RequirementService
	Uploads       *service.UploadService
	Notifications *service.NotificationService
	Portal        *service.PortalService
}

// Container owns the process wide connections and everything built on them.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *sqlx.DB
	Redis    *redis.Client
	Store    storage.ObjectStore
	Repos    Repositories
	Services Services
}

// New opens Postgres, Redis and the object store and wires every service.
// Redis is optional: when it cannot be reached the API runs uncached.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	store, err := NewObjectStore(cfg.Storage)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object store: %w", err)
	}

	c := &Container{Config: cfg, Logger: logger, DB: db, Store: store}

	var cacheRepo service.CacheRepository
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logger.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		c.Redis = client
		cacheRepo = repository.NewCacheRepository(client, logger)
	}

	c.Repos = Repositories{
		Users:         repository.NewUserRepository(db),
		Audit:         repository.NewAuditRepository(db),
		Employees:     repository.NewEmployeeRepository(db),
		Vehicles:      repository.NewVehicleRepository(db),
		Schools:       repository.NewSchoolRepository(db),
		Routes:        repository.NewRouteRepository(db),
		Passengers:    repository.NewPassengerRepository(db),
		CallLogs:      repository.NewCallLogRepository(db),
		Incidents:     repository.NewIncidentRepository(db),
		Documents:     repository.NewDocumentRepository(db),
		Notifications: repository.NewNotificationRepository(db),
	}
	c.Services = buildServices(cfg, logger, store, cacheRepo, c.Repos)
	return c, nil
}

// NewObjectStore selects the storage driver named by cfg.Driver.
func NewObjectStore(cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Driver {
	case "", config.StorageDriverLocal:
		return storage.NewLocalStorage(cfg.LocalDir, cfg.PublicBaseURL, cfg.AutoCreate)
	case config.StorageDriverSupabase:
		return storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.RequestTimeout, nil)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func buildServices(cfg *config.Config, logger *zap.Logger, store storage.ObjectStore, cacheRepo service.CacheRepository, r Repositories) Services {
	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Expiry.CacheTTL, logger.Named("cache"), cacheRepo != nil)

	s := Services{Metrics: metrics, Cache: cacheSvc}
	s.Auth = service.NewAuthService(r.Users, r.Audit, validate, logger.Named("auth"), service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "fleet-ops-api",
	})
	s.Audit = service.NewAuditService(r.Audit, validate, logger.Named("audit"))
	s.Employees = service.NewEmployeeService(r.Employees, r.Audit, cacheSvc, validate, logger.Named("employees"))
	s.Vehicles = service.NewVehicleService(r.Vehicles, r.Audit, cacheSvc, validate, logger.Named("vehicles"))
	s.Schools = service.NewSchoolService(r.Schools, validate, logger.Named("schools"))
	s.Routes = service.NewRouteService(r.Routes, r.Employees, r.Vehicles, r.Schools, r.Audit, cacheSvc, validate, logger.Named("routes"))
	s.Passengers = service.NewPassengerService(r.Passengers, r.Audit, cacheSvc, validate, logger.Named("passengers"))
	s.CallLogs = service.NewCallLogService(r.CallLogs, validate, logger.Named("call_logs"))
	s.Incidents = service.NewIncidentService(r.Incidents, r.Audit, cacheSvc, validate, logger.Named("incidents"))
	s.Expiry = service.NewExpiryService(r.Employees, r.Vehicles, cacheSvc, cfg.Expiry.CacheTTL, logger.Named("expiry"))

	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
	s.Documents = service.NewDocumentService(r.Documents, store, signer, r.Audit, cfg.APIPrefix, logger.Named("documents"))
	s.Requirements = service.NewRequirementService(r.Documents, r.Audit, validate, logger.Named("requirements"))
	s.Uploads = service.NewUploadService(store, r.Documents, r.Audit, metrics, service.DefaultUploadTargets(cfg.Uploads), cfg.Uploads.MaxImageDimension, logger.Named("uploads"))

	s.Notifications = service.NewNotificationService(r.Notifications, s.Expiry, r.Audit, cacheSvc, metrics, cfg.Portal.TokenTTL, validate, logger.Named("notifications"))
	s.Dashboard = service.NewDashboardService(service.DashboardServiceParams{
		Employees:     r.Employees,
		Vehicles:      r.Vehicles,
		Routes:        r.Routes,
		Passengers:    r.Passengers,
		Incidents:     r.Incidents,
		Expiry:        s.Expiry,
		Notifications: r.Notifications,
		Cache:         cacheSvc,
		Logger:        logger.Named("dashboard"),
		Config:        service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	s.Portal = service.NewPortalService(service.PortalServiceParams{
		Assistants:    r.Employees,
		Vehicles:      r.Vehicles,
		VehicleOps:    s.Vehicles,
		Notifications: r.Notifications,
		Resolver:      s.Notifications,
		Documents:     r.Documents,
		Uploads:       s.Uploads,
		Logger:        logger.Named("portal"),
	})
	return s
}

// Ping checks Postgres for readiness probes.
func (c *Container) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// PingRedis checks Redis when it is configured.
func (c *Container) PingRedis(ctx context.Context) error {
	if c.Redis == nil {
		return fmt.Errorf("redis not connected")
	}
	return c.Redis.Ping(ctx).Err()
}

// Close releases the connections opened by New.
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if err := c.DB.Close(); err != nil {
		c.Logger.Warn("close postgres", zap.Error(err))
	}
}
