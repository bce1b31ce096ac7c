package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is the JSON view of the process counters.
type MetricsSnapshot struct {
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	CacheHitsByView          map[string]uint64 `json:"cache_hits_by_view"`
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	FilesUploaded            uint64            `json:"files_uploaded"`
	FilesRejected            uint64            `json:"files_rejected"`
	NotificationsCreated     uint64            `json:"notifications_created"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    *prometheus.HistogramVec
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	cacheEvictions  *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	uploadBytes     prometheus.Counter
	sweepRuns       *prometheus.CounterVec
	notifications   prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	uploadedCount        uint64
	rejectedCount        uint64
	notificationCount    uint64

	viewMu   sync.Mutex
	viewHits map[string]uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cache_operation_seconds",
		Help:    "Latency of cache reads and writes by view",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"view", "op"})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by view and result",
	}, []string{"view", "result"})

	cacheEvictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_invalidations_total",
		Help: "View invalidations triggered by writes",
	}, []string{"view"})

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_uploads_total",
		Help: "Uploaded files by target and result",
	}, []string{"target", "result"})

	uploadBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "document_upload_bytes_total",
		Help: "Bytes written to object storage",
	})

	sweepRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "expiry_sweep_runs_total",
		Help: "Expiry notification sweeps by result",
	}, []string{"result"})

	notifications := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "expiry_notifications_created_total",
		Help: "Expiry notifications raised by sweeps",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHitRatio, cacheLookups, cacheEvictions,
		uploads, uploadBytes, sweepRuns, notifications, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHitRatio:   cacheHitRatio,
		cacheLookups:    cacheLookups,
		cacheEvictions:  cacheEvictions,
		viewHits:        map[string]uint64{},
		uploads:         uploads,
		uploadBytes:     uploadBytes,
		sweepRuns:       sweepRuns,
		notifications:   notifications,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheLookup records a read against a cached view and refreshes the
// hit ratio.
func (m *MetricsService) RecordCacheLookup(view string, hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues(view, "get").Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues(view, "hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		m.viewMu.Lock()
		m.viewHits[view]++
		m.viewMu.Unlock()
	} else {
		m.cacheLookups.WithLabelValues(view, "miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordCacheWrite tracks how long storing a view took.
func (m *MetricsService) RecordCacheWrite(view string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues(view, "set").Observe(duration.Seconds())
}

// RecordCacheInvalidation counts a view dropped after a write.
func (m *MetricsService) RecordCacheInvalidation(view string) {
	if m == nil {
		return
	}
	m.cacheEvictions.WithLabelValues(view).Inc()
}

// RecordUpload counts one file of an upload batch.
func (m *MetricsService) RecordUpload(target string, ok bool, size int64) {
	if m == nil {
		return
	}
	if ok {
		m.uploads.WithLabelValues(target, "uploaded").Inc()
		m.uploadBytes.Add(float64(size))
		atomic.AddUint64(&m.uploadedCount, 1)
		return
	}
	m.uploads.WithLabelValues(target, "rejected").Inc()
	atomic.AddUint64(&m.rejectedCount, 1)
}

// RecordSweep counts a finished expiry sweep and the notifications it raised.
func (m *MetricsService) RecordSweep(created int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.sweepRuns.WithLabelValues(result).Inc()
	if created > 0 {
		m.notifications.Add(float64(created))
		atomic.AddUint64(&m.notificationCount, uint64(created))
	}
}

// Snapshot returns aggregated metrics for the JSON endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	m.viewMu.Lock()
	byView := make(map[string]uint64, len(m.viewHits))
	for view, n := range m.viewHits {
		byView[view] = n
	}
	m.viewMu.Unlock()

	return MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitsByView:          byView,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		FilesUploaded:            atomic.LoadUint64(&m.uploadedCount),
		FilesRejected:            atomic.LoadUint64(&m.rejectedCount),
		NotificationsCreated:     atomic.LoadUint64(&m.notificationCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
