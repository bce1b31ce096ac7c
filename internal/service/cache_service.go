package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/pkg/cache"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

// Cached views. Entries of a view live under cache.Key(view, ...).
const (
	ViewExpiry    = "expiry"
	ViewDashboard = "dashboard"
)

// DerivedViews are computed from employee, vehicle, incident and
// notification rows and must be dropped whenever those change.
var DerivedViews = []string{ViewExpiry, ViewDashboard}

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService stores computed views in Redis. A disabled or unconfigured
// service behaves as a permanent miss.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get decodes the entry at key into dest and reports whether it was found.
// A miss is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	s.metrics.RecordCacheLookup(viewOf(key), hit, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return hit, nil
}

// Set stores value at key. A non-positive ttl uses the service default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.RecordCacheWrite(viewOf(key), time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// InvalidateViews drops every entry of the named views. All views are
// attempted; the errors are joined.
func (s *CacheService) InvalidateViews(ctx context.Context, views ...string) error {
	if !s.Enabled() {
		return nil
	}
	var errs []error
	for _, view := range views {
		if err := s.repo.DeleteByPattern(ctx, cache.Key(view, "*")); err != nil {
			errs = append(errs, err)
			continue
		}
		s.metrics.RecordCacheInvalidation(view)
	}
	return errors.Join(errs...)
}

// viewOf extracts the view segment from a key built with cache.Key.
func viewOf(key string) string {
	rest := strings.TrimPrefix(key, cache.KeyPrefix+":")
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return rest[:i]
	}
	return rest
}
