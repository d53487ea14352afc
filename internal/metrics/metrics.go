package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bikeshare"

// Recorder collects ledger transition metrics on its own registry.
type Recorder struct {
	registry   *prometheus.Registry
	applied    *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	critical   *prometheus.HistogramVec
	lockWaits  *prometheus.HistogramVec
	fareTotals prometheus.Counter
	drift      *prometheus.GaugeVec
	audits     prometheus.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_transitions_total",
			Help:      "Committed ledger transitions by kind.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_rejections_total",
			Help:      "Rejected ledger transitions by kind and reason.",
		}, []string{"kind", "reason"}),
		critical: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_critical_section_seconds",
			Help:      "Time spent holding ledger locks.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"kind"}),
		lockWaits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_lock_wait_seconds",
			Help:      "Time spent waiting to acquire ledger locks.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"kind"}),
		fareTotals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fares_minor_units_total",
			Help:      "Sum of fares charged on completed rentals, in minor currency units.",
		}),
		drift: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_occupancy_drift",
			Help:      "Recorded occupancy minus bikes the ledger places at the station.",
		}, []string{"station_id"}),
		audits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "occupancy_audits_total",
			Help:      "Completed occupancy audit passes.",
		}),
	}

	r.registry.MustRegister(
		r.applied,
		r.rejected,
		r.critical,
		r.lockWaits,
		r.fareTotals,
		r.drift,
		r.audits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Applied(kind string) {
	r.applied.WithLabelValues(kind).Inc()
}

func (r *Recorder) Rejected(kind, reason string) {
	r.rejected.WithLabelValues(kind, reason).Inc()
}

func (r *Recorder) CriticalSection(kind string, d time.Duration) {
	r.critical.WithLabelValues(kind).Observe(d.Seconds())
}

func (r *Recorder) LockWait(kind string, d time.Duration) {
	r.lockWaits.WithLabelValues(kind).Observe(d.Seconds())
}

func (r *Recorder) FareCharged(amount int64) {
	r.fareTotals.Add(float64(amount))
}

// OccupancyDrift records the audited drift of one station. Zero drift
// removes the series.
func (r *Recorder) OccupancyDrift(stationId int64, drift int) {
	label := strconv.FormatInt(stationId, 10)
	if drift == 0 {
		r.drift.DeleteLabelValues(label)
		return
	}
	r.drift.WithLabelValues(label).Set(float64(drift))
}

func (r *Recorder) AuditCompleted() {
	r.audits.Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
