package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "klumpen"

// PrometheusHooks records pipeline, cache and HTTP events as Prometheus
// metrics.
type PrometheusHooks struct {
	analysesTotal   *prometheus.CounterVec
	analyzeDuration prometheus.Histogram
	analyzedModules prometheus.Histogram
	layoutsTotal    *prometheus.CounterVec
	layoutDuration  prometheus.Histogram
	chainsTotal     *prometheus.CounterVec
	chainDepth      prometheus.Histogram
	cacheEvents     *prometheus.CounterVec
	cacheWriteBytes *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpInFlight    prometheus.Gauge
}

// NewPrometheusHooks registers the metrics with reg. A nil reg uses the
// default registerer.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	durations := []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

	return &PrometheusHooks{
		analysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Reports analyzed, by result.",
		}, []string{"result"}),
		analyzeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyze_duration_seconds",
			Help:      "Time spent classifying and aggregating a report.",
			Buckets:   durations,
		}),
		analyzedModules: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyzed_modules",
			Help:      "Number of module records per analyzed report.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		layoutsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Treemaps laid out, by scope kind and result.",
		}, []string{"scope", "result"}),
		layoutDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent laying out a treemap.",
			Buckets:   durations,
		}),
		chainsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chains_total",
			Help:      "Import chain queries, by whether a chain was found.",
		}, []string{"found"}),
		chainDepth: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chain_depth",
			Help:      "Import hops of found chains.",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes, by key type and event.",
		}, []string{"key_type", "event"}),
		cacheWriteBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_bytes_total",
			Help:      "Bytes written to the cache, by key type.",
		}, []string{"key_type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "API requests currently being served.",
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *PrometheusHooks) OnAnalyzeStart(_ context.Context, _ string, modules int) {
	h.analyzedModules.Observe(float64(modules))
}

func (h *PrometheusHooks) OnAnalyzeComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	h.analysesTotal.WithLabelValues(result(err)).Inc()
	h.analyzeDuration.Observe(d.Seconds())
}

func (h *PrometheusHooks) OnLayoutStart(context.Context, string, int) {}

func (h *PrometheusHooks) OnLayoutComplete(_ context.Context, scope string, _ int, d time.Duration, err error) {
	kind := "packages"
	if scope != "" {
		kind = "zoom"
	}
	h.layoutsTotal.WithLabelValues(kind, result(err)).Inc()
	h.layoutDuration.Observe(d.Seconds())
}

func (h *PrometheusHooks) OnChainComplete(_ context.Context, found bool, depth int, _ time.Duration) {
	h.chainsTotal.WithLabelValues(strconv.FormatBool(found)).Inc()
	if found {
		h.chainDepth.Observe(float64(depth))
	}
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.cacheWriteBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {
	h.httpInFlight.Inc()
}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.httpInFlight.Dec()
	h.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
