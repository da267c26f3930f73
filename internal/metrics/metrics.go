// Package metrics provides Prometheus metrics for the roster sync.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the roster sync.
type Metrics struct {
	// Run metrics
	RunsCompleted *prometheus.CounterVec
	RunsFailed    *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	LastRunTime   *prometheus.GaugeVec

	// Row metrics
	RowsMapped  *prometheus.CounterVec
	RowsDeduped *prometheus.CounterVec

	// Reconciliation metrics
	EntriesInserted *prometheus.CounterVec
	EntriesUpdated  *prometheus.CounterVec
	EntriesDeleted  *prometheus.CounterVec
	EntriesSkipped  *prometheus.CounterVec
	EntriesFlagged  *prometheus.CounterVec

	// Error metrics
	SourceErrors *prometheus.CounterVec
	StoreErrors  *prometheus.CounterVec
	ReportErrors *prometheus.CounterVec
	NotifyErrors *prometheus.CounterVec
}

// Config holds metrics configuration. An empty address disables the
// metrics server.
type Config struct {
	Addr string `yaml:"addr"` // e.g. ":9090"
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "roster_sync"
	}

	ownerLabels := []string{"owner_id"}

	m := &Metrics{
		RunsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of sync runs completed",
			},
			ownerLabels,
		),
		RunsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_failed_total",
				Help:      "Total number of sync runs that failed",
			},
			ownerLabels,
		),
		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "End to end duration of a sync run",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
			},
			ownerLabels,
		),
		LastRunTime: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last completed run",
			},
			ownerLabels,
		),
		RowsMapped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_mapped_total",
				Help:      "Total source rows mapped to canonical records",
			},
			ownerLabels,
		),
		RowsDeduped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_deduped_total",
				Help:      "Total duplicate rows removed before reconciliation",
			},
			ownerLabels,
		),
		EntriesInserted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_inserted_total",
				Help:      "Total roster entries inserted",
			},
			ownerLabels,
		),
		EntriesUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_updated_total",
				Help:      "Total roster entries updated",
			},
			ownerLabels,
		),
		EntriesDeleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_deleted_total",
				Help:      "Total roster entries deleted",
			},
			ownerLabels,
		),
		EntriesSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_skipped_total",
				Help:      "Total roster rows skipped",
			},
			ownerLabels,
		),
		EntriesFlagged: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_flagged_total",
				Help:      "Total roster entries flagged for unparseable times",
			},
			ownerLabels,
		),
		SourceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_errors_total",
				Help:      "Total snapshot fetch errors",
			},
			[]string{"owner_id", "mode"},
		),
		StoreErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total roster store errors",
			},
			[]string{"owner_id", "operation"},
		),
		ReportErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_errors_total",
				Help:      "Total report publish errors",
			},
			ownerLabels,
		),
		NotifyErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notify_errors_total",
				Help:      "Total run event emission errors",
			},
			ownerLabels,
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics instance.
// Returns nil if Init has not been called.
func Get() *Metrics {
	return defaultMetrics
}

// StartServer starts an HTTP server for Prometheus metrics scraping.
// Blocks until the server exits.
func StartServer(address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(address, mux)
}

// IncRunsCompleted increments the completed runs counter.
func (m *Metrics) IncRunsCompleted(ownerID string) {
	m.RunsCompleted.WithLabelValues(ownerID).Inc()
}

// IncRunsFailed increments the failed runs counter.
func (m *Metrics) IncRunsFailed(ownerID string) {
	m.RunsFailed.WithLabelValues(ownerID).Inc()
}

// ObserveRunDuration records the duration of one run.
func (m *Metrics) ObserveRunDuration(ownerID string, seconds float64) {
	m.RunDuration.WithLabelValues(ownerID).Observe(seconds)
}

// SetLastRunTime records the completion time of the last run.
func (m *Metrics) SetLastRunTime(ownerID string, unixSeconds float64) {
	m.LastRunTime.WithLabelValues(ownerID).Set(unixSeconds)
}

// AddRowsMapped adds to the mapped rows counter.
func (m *Metrics) AddRowsMapped(ownerID string, count float64) {
	m.RowsMapped.WithLabelValues(ownerID).Add(count)
}

// AddRowsDeduped adds to the removed duplicates counter.
func (m *Metrics) AddRowsDeduped(ownerID string, count float64) {
	m.RowsDeduped.WithLabelValues(ownerID).Add(count)
}

// AddReconcileCounts adds one run's reconciliation tallies.
func (m *Metrics) AddReconcileCounts(ownerID string, inserted, updated, deleted, skipped, flagged float64) {
	m.EntriesInserted.WithLabelValues(ownerID).Add(inserted)
	m.EntriesUpdated.WithLabelValues(ownerID).Add(updated)
	m.EntriesDeleted.WithLabelValues(ownerID).Add(deleted)
	m.EntriesSkipped.WithLabelValues(ownerID).Add(skipped)
	m.EntriesFlagged.WithLabelValues(ownerID).Add(flagged)
}

// IncSourceErrors increments the source errors counter.
func (m *Metrics) IncSourceErrors(ownerID, mode string) {
	m.SourceErrors.WithLabelValues(ownerID, mode).Inc()
}

// IncStoreErrors increments the store errors counter.
func (m *Metrics) IncStoreErrors(ownerID, operation string) {
	m.StoreErrors.WithLabelValues(ownerID, operation).Inc()
}

// IncReportErrors increments the report errors counter.
func (m *Metrics) IncReportErrors(ownerID string) {
	m.ReportErrors.WithLabelValues(ownerID).Inc()
}

// IncNotifyErrors increments the notify errors counter.
func (m *Metrics) IncNotifyErrors(ownerID string) {
	m.NotifyErrors.WithLabelValues(ownerID).Inc()
}
