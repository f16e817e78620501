package metrics

import "github.com/prometheus/client_golang/prometheus"

// UpsertMetrics exposes counters/histograms for the contact sync flows.
type UpsertMetrics struct {
	upsertTotal     *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	formEvents      *prometheus.CounterVec
}

func NewUpsertMetrics(reg prometheus.Registerer) *UpsertMetrics {
	m := &UpsertMetrics{
		upsertTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stixn",
			Subsystem: "contact_sync",
			Name:      "upsert_total",
			Help:      "Total contact upserts handled by the proxy",
		}, []string{"action", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stixn",
			Subsystem: "contact_sync",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of CRM contact API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		formEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stixn",
			Subsystem: "contact_sync",
			Name:      "form_events_total",
			Help:      "Reservation form events processed by the session API",
		}, []string{"event", "synced"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.upsertTotal, m.upstreamLatency, m.formEvents)
	return m
}

// ObserveUpsert counts one upsert; action is created/updated/none and outcome ok/error.
func (m *UpsertMetrics) ObserveUpsert(action, outcome string) {
	if m == nil {
		return
	}
	m.upsertTotal.WithLabelValues(action, outcome).Inc()
}

func (m *UpsertMetrics) ObserveUpstream(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamLatency.WithLabelValues(operation, outcome).Observe(seconds)
}

func (m *UpsertMetrics) ObserveFormEvent(event string, synced bool) {
	if m == nil {
		return
	}
	label := "false"
	if synced {
		label = "true"
	}
	m.formEvents.WithLabelValues(event, label).Inc()
}
