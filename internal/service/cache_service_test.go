package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/pkg/cache"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type memoryCacheRepo struct {
	values    map[string]interface{}
	ttls      map[string]time.Duration
	getErr    error
	deleteErr map[string]error
	deleted   []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string]interface{}{}, ttls: map[string]time.Duration{}, deleteErr: map[string]error{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *int:
		*d = v.(int)
	default:
		return errors.New("unsupported destination")
	}
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	if err := m.deleteErr[pattern]; err != nil {
		return err
	}
	m.deleted = append(m.deleted, pattern)
	return nil
}

func TestCacheServiceHitAndMissPerView(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, zap.NewNop(), true)
	ctx := context.Background()
	key := cache.Key(ViewDashboard, "counts")

	var n int
	hit, err := svc.Get(ctx, key, &n)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, key, 7, 0))
	assert.Equal(t, 10*time.Minute, repo.ttls[key])

	hit, err = svc.Get(ctx, key, &n)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, n)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.Equal(t, map[string]uint64{ViewDashboard: 1}, snap.CacheHitsByView)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.values)
	require.NoError(t, svc.InvalidateViews(context.Background(), DerivedViews...))
	assert.Empty(t, repo.deleted)

	var nilSvc *CacheService
	hit, err := nilSvc.Get(context.Background(), "k", new(int))
	assert.False(t, hit)
	assert.NoError(t, err)
}

func TestCacheServiceGetErrorSurfaces(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var n int
	hit, err := svc.Get(context.Background(), "k", &n)
	assert.False(t, hit)
	assert.Error(t, err)
}

func TestCacheServiceInvalidateViewsContinuesPastFailure(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.deleteErr[cache.Key(ViewExpiry, "*")] = errors.New("timeout")
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)

	err := svc.InvalidateViews(context.Background(), DerivedViews...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, []string{"fleet:dashboard:*"}, repo.deleted)
}

func TestViewOf(t *testing.T) {
	assert.Equal(t, ViewExpiry, viewOf(cache.Key(ViewExpiry, "summary", "2026-10-16")))
	assert.Equal(t, ViewDashboard, viewOf(cache.Key(ViewDashboard)))
	assert.Equal(t, "other", viewOf("other:key"))
}
