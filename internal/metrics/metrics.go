// Package metrics holds the Prometheus collectors for the rating engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricComparisonsTotal      = "albumduel_comparisons_total"
	MetricReconcileRunsTotal    = "albumduel_reconcile_runs_total"
	MetricReconcileDuration     = "albumduel_reconcile_duration_seconds"
	MetricReconcileAlbumsMerged = "albumduel_reconcile_albums_merged_total"
	MetricCoverResolutionsTotal = "albumduel_cover_resolutions_total"
)

// Comparison outcome labels, from the A side.
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomeDraw = "draw"
)

// Run status labels.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailure = "failure"
)

// Cover resolution result labels.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Metrics contains the collectors. A nil *Metrics is valid and records
// nothing, so callers never need to guard.
type Metrics struct {
	comparisons       *prometheus.CounterVec
	reconcileRuns     *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	albumsMerged      prometheus.Counter
	coverResolutions  *prometheus.CounterVec
}

// New creates the collectors. They are not registered; call Register.
func New() *Metrics {
	return &Metrics{
		comparisons: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricComparisonsTotal,
				Help: "Total number of recorded comparisons by outcome",
			},
			[]string{"outcome"},
		),
		reconcileRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricReconcileRunsTotal,
				Help: "Total number of duplicate reconciliation passes by status",
			},
			[]string{"status"},
		),
		reconcileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricReconcileDuration,
				Help:    "Duration of duplicate reconciliation passes in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		albumsMerged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricReconcileAlbumsMerged,
				Help: "Total number of duplicate albums merged into a canonical record",
			},
		),
		coverResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCoverResolutionsTotal,
				Help: "Cover resolution attempts by strategy and result",
			},
			[]string{"strategy", "result"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.comparisons,
		m.reconcileRuns,
		m.reconcileDuration,
		m.albumsMerged,
		m.coverResolutions,
	}
}

// IncComparison counts one recorded comparison.
func (m *Metrics) IncComparison(outcome string) {
	if m == nil {
		return
	}
	m.comparisons.WithLabelValues(outcome).Inc()
}

// ObserveReconcile records a finished reconciliation pass.
func (m *Metrics) ObserveReconcile(status string, elapsed time.Duration, merged int) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(status).Inc()
	m.reconcileDuration.Observe(elapsed.Seconds())
	m.albumsMerged.Add(float64(merged))
}

// IncCoverResolution counts one cover strategy attempt.
func (m *Metrics) IncCoverResolution(strategy, result string) {
	if m == nil {
		return
	}
	m.coverResolutions.WithLabelValues(strategy, result).Inc()
}
