package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "zbudget_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once
	registry     *prometheus.Registry

	runTotal   *prometheus.CounterVec
	runLatency *prometheus.HistogramVec

	diagnosticsTotal *prometheus.CounterVec
	zonesReported    prometheus.Gauge

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers zone budget metrics on the package registry. When db is not
// nil a gauge reporting the number of stored runs is registered as well.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		registry = prometheus.NewRegistry()

		runTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total zone budget runs by result",
			},
			[]string{"result"},
		)
		runLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_latency_seconds",
				Help:    "Zone budget run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		diagnosticsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "diagnostics_total",
				Help: "Data source gaps skipped during aggregation by reason",
			},
			[]string{"reason"},
		)
		zonesReported = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "zones_reported",
				Help: "Zones reported by the last run",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		registry.MustRegister(
			runTotal,
			runLatency,
			diagnosticsTotal,
			zonesReported,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// Registry returns the registry metrics are collected on, initialising it
// without database gauges if needed.
func Registry() *prometheus.Registry {
	Init(nil, nil)
	return registry
}

// WriteTextfile flushes all collected metrics to a node exporter textfile.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry())
}

// ObserveRun records run duration and result.
func ObserveRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if runTotal != nil {
		runTotal.WithLabelValues(result).Inc()
	}
	if runLatency != nil {
		runLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncDiagnostic increments the skipped data counter.
func IncDiagnostic(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if diagnosticsTotal != nil {
		diagnosticsTotal.WithLabelValues(reason).Inc()
	}
}

// SetZonesReported records the zone count of the last run.
func SetZonesReported(count int) {
	if count < 0 {
		count = 0
	}
	if zonesReported != nil {
		zonesReported.Set(float64(count))
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
