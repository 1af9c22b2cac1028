package tenant

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes reported by Metrics.
const (
	OutcomeResolved          = "resolved"
	OutcomeNoSession         = "no_session"
	OutcomeNoValidIdentifier = "no_valid_identifier"
	OutcomeDerivationFailed  = "derivation_failed"
	OutcomeCanceled          = "canceled"
)

// Metrics holds the Prometheus collectors for tenant resolution.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	RemoteErrorsTotal  *prometheus.CounterVec
	WriteErrorsTotal   *prometheus.CounterVec
	RepairsTotal       *prometheus.CounterVec
}

// NewMetrics creates and registers the resolver metrics with reg.
// A nil registerer uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		ResolutionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenantsync",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Tenant resolutions by winning source and outcome",
		}, []string{"source", "outcome"}),
		ResolutionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tenantsync",
			Subsystem: "resolver",
			Name:      "resolution_duration_seconds",
			Help:      "Time spent resolving a tenant id",
			Buckets:   prometheus.DefBuckets,
		}),
		RemoteErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenantsync",
			Subsystem: "resolver",
			Name:      "remote_errors_total",
			Help:      "Tenant record service failures by operation",
		}, []string{"op"}),
		WriteErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenantsync",
			Subsystem: "resolver",
			Name:      "write_errors_total",
			Help:      "Failed write-backs by storage location",
		}, []string{"location"}),
		RepairsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenantsync",
			Subsystem: "resolver",
			Name:      "repairs_total",
			Help:      "Storage locations overwritten because they held a different or invalid tenant id",
		}, []string{"location"}),
	}
}

func (m *Metrics) resolution(src Source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(string(src), outcome).Inc()
	m.ResolutionDuration.Observe(d.Seconds())
}

func (m *Metrics) remoteError(op string) {
	if m == nil {
		return
	}
	m.RemoteErrorsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) writeError(location string) {
	if m == nil {
		return
	}
	m.WriteErrorsTotal.WithLabelValues(location).Inc()
}

func (m *Metrics) repair(location string) {
	if m == nil {
		return
	}
	m.RepairsTotal.WithLabelValues(location).Inc()
}
