package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"dbd/internal/structures"
	"time"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncPostsAccepted(tenant string)
	IncAnchorFailures()
	IncBatchFlushes(outcome string)
	ObserveFlushDuration(duration time.Duration)
	SetChainLength(tenant string, length int)
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	postsAccepted   *prometheus.CounterVec
	anchorFailures  prometheus.Counter
	batchFlushes    *prometheus.CounterVec
	flushDuration   prometheus.Histogram
	chainLength     *prometheus.GaugeVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncPostsAccepted(tenant string) {
	m.postsAccepted.WithLabelValues(tenant).Inc()
}

func (m *MetricsProvider) IncAnchorFailures() {
	m.anchorFailures.Inc()
}

func (m *MetricsProvider) IncBatchFlushes(outcome string) {
	m.batchFlushes.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) ObserveFlushDuration(duration time.Duration) {
	m.flushDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetChainLength(tenant string, length int) {
	m.chainLength.WithLabelValues(tenant).Set(float64(length))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dbd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dbd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dbd_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dbd_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		postsAccepted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dbd_posts_accepted_total",
			Help: "Total number of accepted ledger writes",
		}, []string{"tenant"}),

		anchorFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dbd_anchor_failures_total",
			Help: "Total number of failed content-store anchor calls",
		}),

		batchFlushes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dbd_batch_flushes_total",
			Help: "Total number of batch flush attempts by outcome",
		}, []string{"outcome"}),

		flushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dbd_batch_flush_duration_seconds",
			Help:    "Duration of batch flush operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		chainLength: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dbd_chain_length",
			Help: "Current in-memory chain length per tenant",
		}, []string{"tenant"}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncPostsAccepted(_ string)                        {}
func (n *noopMetrics) IncAnchorFailures()                               {}
func (n *noopMetrics) IncBatchFlushes(_ string)                         {}
func (n *noopMetrics) ObserveFlushDuration(_ time.Duration)             {}
func (n *noopMetrics) SetChainLength(_ string, _ int)                   {}
