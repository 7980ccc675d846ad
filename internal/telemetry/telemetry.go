// Package telemetry exposes the Prometheus metrics collected while
// optimizing and reporting on pipeline networks.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide metrics container.
type Metrics struct {
	OptimizationsTotal   *prometheus.CounterVec
	OptimizationDuration *prometheus.HistogramVec
	ThroughputValue      *prometheus.GaugeVec
	TotalCostValue       *prometheus.GaugeVec
	NetworkPointsTotal   *prometheus.HistogramVec
	NetworkSegmentsTotal *prometheus.HistogramVec
	BottlenecksFound     *prometheus.HistogramVec
	CacheHitsTotal       *prometheus.CounterVec

	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// Init registers the metrics collectors under the given namespace/subsystem
// and sets them as the package default.
func Init(namespace, subsystem string) *Metrics {
	m := &Metrics{
		OptimizationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimizations_total",
				Help:      "Total number of optimization runs",
			},
			[]string{"algorithm", "status"},
		),
		OptimizationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimization_duration_seconds",
				Help:      "Duration of optimization runs",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"algorithm"},
		),
		ThroughputValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "throughput_mmscfd",
				Help:      "Last optimized total delivered throughput",
			},
			[]string{"algorithm"},
		),
		TotalCostValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "total_cost_dollars",
				Help:      "Last optimized total cost (transportation + fuel + compressor)",
			},
			[]string{"algorithm"},
		),
		NetworkPointsTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_points_total",
				Help:      "Number of points in optimized networks",
				Buckets:   []float64{5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"algorithm"},
		),
		NetworkSegmentsTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_segments_total",
				Help:      "Number of segments in optimized networks",
				Buckets:   []float64{5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"algorithm"},
		),
		BottlenecksFound: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "bottlenecks_found",
				Help:      "Number of bottleneck segments found per run",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"severity"},
		),
		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_requests_total",
				Help:      "Total number of result cache lookups",
			},
			[]string{"outcome"},
		),
		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service build information",
			},
			[]string{"version"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the package default metrics, lazily initializing them under
// the "pipelineopt" namespace if Init was never called.
func Get() *Metrics {
	if defaultMetrics == nil {
		return Init("pipelineopt", "")
	}
	return defaultMetrics
}

// RecordOptimization records one completed optimization run.
func (m *Metrics) RecordOptimization(algorithm, status string, duration time.Duration, throughput, totalCost float64) {
	m.OptimizationsTotal.WithLabelValues(algorithm, status).Inc()
	m.OptimizationDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	m.ThroughputValue.WithLabelValues(algorithm).Set(throughput)
	m.TotalCostValue.WithLabelValues(algorithm).Set(totalCost)
}

// RecordNetworkSize records the size of a network presented for optimization.
func (m *Metrics) RecordNetworkSize(algorithm string, points, segments int) {
	m.NetworkPointsTotal.WithLabelValues(algorithm).Observe(float64(points))
	m.NetworkSegmentsTotal.WithLabelValues(algorithm).Observe(float64(segments))
}

// RecordBottlenecks records the number of bottlenecks found at a severity.
func (m *Metrics) RecordBottlenecks(severity string, count int) {
	m.BottlenecksFound.WithLabelValues(severity).Observe(float64(count))
}

// RecordCacheLookup records a result-cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheHitsTotal.WithLabelValues(outcome).Inc()
}

// SetServiceInfo records the running build's version.
func (m *Metrics) SetServiceInfo(version string) {
	m.ServiceInfo.WithLabelValues(version).Set(1)
}

// Handler returns the HTTP handler serving /metrics in Prometheus exposition
// format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer starts a standalone HTTP server exposing /metrics and /health
// on port, blocking until it errors or is shut down.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
