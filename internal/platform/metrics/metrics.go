package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ratelock"

const (
	SyncCreated   = "created"
	SyncDuplicate = "duplicate"
	SyncFailed    = "failed"

	ConversionSucceeded = "succeeded"
	ConversionFailed    = "failed"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SyncTotal            *prometheus.CounterVec
	FetchAttemptsTotal   *prometheus.CounterVec
	ConversionsTotal     *prometheus.CounterVec
	AuditWriteFailures   prometheus.Counter
	SnapshotsPurgedTotal prometheus.Counter
	ConversionDuration   prometheus.Histogram
	LatestSnapshotRates  prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_total",
				Help:      "Rate sync runs by outcome",
			},
			[]string{"outcome"},
		),
		FetchAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_fetch_attempts_total",
				Help:      "Rate feed fetch attempts by result",
			},
			[]string{"result"},
		),
		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Conversions by calculation method and outcome",
			},
			[]string{"method", "outcome"},
		),
		AuditWriteFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_write_failures_total",
				Help:      "Audit record writes that failed and aborted a conversion",
			},
		),
		SnapshotsPurgedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_purged_total",
				Help:      "Expired rate snapshots removed by the purge job",
			},
		),
		ConversionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "conversion_duration_seconds",
				Help:      "Time spent in a conversion call",
				Buckets:   prometheus.DefBuckets,
			},
		),
		LatestSnapshotRates: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "latest_snapshot_rates",
				Help:      "Number of currencies in the last stored snapshot",
			},
		),
	}
}

func (m *Metrics) ObserveSync(outcome string) {
	if m == nil {
		return
	}
	m.SyncTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFetchAttempt(result string) {
	if m == nil {
		return
	}
	m.FetchAttemptsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSnapshotStored(rateCount int) {
	if m == nil {
		return
	}
	m.LatestSnapshotRates.Set(float64(rateCount))
}

func (m *Metrics) ObserveConversion(method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ConversionsTotal.WithLabelValues(method, outcome).Inc()
	m.ConversionDuration.Observe(seconds)
}

func (m *Metrics) ObserveAuditWriteFailure() {
	if m == nil {
		return
	}
	m.AuditWriteFailures.Inc()
}

func (m *Metrics) ObservePurged(n int) {
	if m == nil {
		return
	}
	m.SnapshotsPurgedTotal.Add(float64(n))
}
