package observability

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	assetDeletes        *CounterVec
	assetDeleteDuration *HistogramVec
	assetStepFailures   *CounterVec
	assetScrubMessages  *Counter
	vectorDeleteIDs     *CounterVec
	vectorOpLatency     *HistogramVec
	vectorBootstrap     *CounterVec
	vectorProvider      *GaugeVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide registry, or nil when metrics are disabled.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("Metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds an unregistered registry. Tests use it directly.
func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("kb_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"kb_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("kb_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("kb_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("kb_api_requests_error_total", "Total API requests with 5xx status."),

		assetDeletes: NewCounterVec("asset_delete_total", "Asset deletions by kind/outcome.", []string{"kind", "outcome"}),
		assetDeleteDuration: NewHistogramVec(
			"asset_delete_duration_seconds",
			"End-to-end asset deletion latency in seconds by kind.",
			[]string{"kind"},
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		),
		assetStepFailures:  NewCounterVec("asset_delete_step_failures_total", "Deletion pipeline step failures by step/code.", []string{"step", "code"}),
		assetScrubMessages: NewCounter("asset_scrub_messages_total", "Chat messages rewritten to drop deleted attachments."),
		vectorDeleteIDs:    NewCounterVec("vector_delete_ids_total", "Vector ids submitted for deletion by provider.", []string{"provider"}),
		vectorOpLatency: NewHistogramVec(
			"vector_store_operation_seconds",
			"Vector store call latency in seconds by provider/operation/status.",
			[]string{"provider", "operation", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		),

		vectorBootstrap: NewCounterVec("vector_store_provider_bootstrap_total", "Vector provider bootstrap attempts by provider/status/code.", []string{"provider", "status", "code"}),
		vectorProvider:  NewGaugeVec("vector_store_provider_active", "Active vector provider (1 for the selected one).", []string{"provider"}),

		pgStats:   NewGaugeVec("kb_postgres_pool", "Postgres connection pool stats.", []string{"stat"}),
		redisUp:   NewGauge("kb_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing: NewGauge("kb_redis_ping_seconds", "Redis ping latency in seconds."),

		scrapeInterval: 10 * time.Second,
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.apiReqTotal,
		m.apiReqError,
		m.assetDeletes,
		m.assetDeleteDuration,
		m.assetStepFailures,
		m.assetScrubMessages,
		m.vectorDeleteIDs,
		m.vectorOpLatency,
		m.vectorBootstrap,
		m.vectorProvider,
		m.pgStats,
		m.redisUp,
		m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveAssetDelete records one finished asset pipeline. outcome is "deleted",
// "already_gone" or the failing error code.
func (m *Metrics) ObserveAssetDelete(kind, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.assetDeletes.Inc(kind, outcome)
	m.assetDeleteDuration.Observe(dur.Seconds(), kind)
}

func (m *Metrics) IncAssetStepFailure(step, code string) {
	if m == nil {
		return
	}
	m.assetStepFailures.Inc(step, code)
}

func (m *Metrics) AddScrubbedMessages(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.assetScrubMessages.Add(float64(n))
}

func (m *Metrics) ObserveVectorOperation(provider, operation, status string, ids int, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorOpLatency.Observe(dur.Seconds(), provider, operation, status)
	if ids > 0 {
		m.vectorDeleteIDs.Add(float64(ids), provider)
	}
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func (m *Metrics) ObserveVectorProviderBootstrap(provider, status, code string) {
	if m == nil {
		return
	}
	m.vectorBootstrap.Inc(provider, status, code)
}

func (m *Metrics) SetVectorProviderActive(provider string) {
	if m == nil {
		return
	}
	m.vectorProvider.Set(1, provider)
}

// AssetDeletes exposes the counter for assertions.
func (m *Metrics) AssetDeletes(kind, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.assetDeletes.Value(kind, outcome)
}

// StatusLabel maps an error to the status label used by operation histograms.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
