package security

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// StoreLatency can be used by store implementations to record operation latency.
	StoreLatency *prometheus.HistogramVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	remoteRequestsTotal  *prometheus.CounterVec
	assetDownloadsTotal  *prometheus.CounterVec
	syncRunsTotal        *prometheus.CounterVec
	syncDuration         *prometheus.HistogramVec
	syncEntriesProcessed *prometheus.GaugeVec
)

var validLabelKey = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseMetricsLabels parses a comma-separated list of key=value pairs into
// Prometheus labels. Values support ${VAR} / $VAR environment variable expansion.
// Label values may not contain commas. Returns nil for an empty string.
func ParseMetricsLabels(s string) (prometheus.Labels, error) {
	s = os.Expand(s, os.Getenv)
	if s == "" {
		return nil, nil
	}
	labels := prometheus.Labels{}
	for _, pair := range strings.Split(s, ",") {
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			return nil, fmt.Errorf("invalid label %q: expected key=value", pair)
		}
		k, v := pair[:idx], pair[idx+1:]
		if !validLabelKey.MatchString(k) {
			return nil, fmt.Errorf("invalid label key %q: must match [a-zA-Z_][a-zA-Z0-9_]*", k)
		}
		labels[k] = v
	}
	return labels, nil
}

var initMetricsOnce sync.Once

// InitMetrics registers all Prometheus metrics with the given constant labels.
// Safe to call multiple times; only the first call registers. Until it is
// called every recording helper in this package is a no-op.
func InitMetrics(constLabels prometheus.Labels) {
	initMetricsOnce.Do(func() {
		initMetricsInner(constLabels)
	})
}

func initMetricsInner(constLabels prometheus.Labels) {
	reg := prometheus.WrapRegistererWith(constLabels, prometheus.DefaultRegisterer)
	f := promauto.With(reg)

	httpRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsync_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docsync_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	StoreLatency = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docsync_store_latency_seconds",
			Help:    "Entry store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CacheHitsTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "docsync_cache_hits_total",
		Help: "Runtime entry cache hits",
	})

	CacheMissesTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "docsync_cache_misses_total",
		Help: "Runtime entry cache misses",
	})

	remoteRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsync_remote_requests_total",
			Help: "Requests issued to the remote knowledge base",
		},
		[]string{"endpoint", "outcome"},
	)

	assetDownloadsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsync_asset_downloads_total",
			Help: "Embedded image localization attempts",
		},
		[]string{"outcome"},
	)

	syncRunsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsync_sync_runs_total",
			Help: "Ingestion runs by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	syncDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docsync_sync_duration_seconds",
			Help:    "Ingestion run duration in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	syncEntriesProcessed = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "docsync_sync_entries",
			Help: "Entries produced by the last successful ingestion run",
		},
		[]string{"mode"},
	)
}

// RecordRemoteRequest counts one remote API call.
func RecordRemoteRequest(endpoint, outcome string) {
	if remoteRequestsTotal == nil {
		return
	}
	remoteRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordAssetDownload counts one asset localization outcome (hit, downloaded, failed).
func RecordAssetDownload(outcome string) {
	if assetDownloadsTotal == nil {
		return
	}
	assetDownloadsTotal.WithLabelValues(outcome).Inc()
}

// RecordSyncRun records the outcome and duration of an ingestion run.
func RecordSyncRun(mode string, start time.Time, entries int, err error) {
	if syncRunsTotal == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	syncRunsTotal.WithLabelValues(mode, outcome).Inc()
	syncDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err == nil {
		syncEntriesProcessed.WithLabelValues(mode).Set(float64(entries))
	}
}

// RecordCacheLookup counts a runtime cache hit or miss.
func RecordCacheLookup(hit bool) {
	if CacheHitsTotal == nil {
		return
	}
	if hit {
		CacheHitsTotal.Inc()
	} else {
		CacheMissesTotal.Inc()
	}
}

// MetricsMiddleware records HTTP request metrics for Prometheus.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpRequestsTotal == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		httpRequestsTotal.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method).Observe(duration.Seconds())
	}
}
