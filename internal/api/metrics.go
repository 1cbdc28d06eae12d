// Prometheus metrics for the simulation. Gauges are refreshed from the
// current simulation state on every scrape rather than pushed per tick.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/careflow/internal/sim"
)

// Metrics exposes simulation state to Prometheus. Each Metrics owns its
// registry, so servers can be created independently without name collisions.
type Metrics struct {
	registry *prometheus.Registry

	tick           prometheus.Gauge
	activePatients prometheus.Gauge
	staffCount     prometheus.Gauge
	avgFatigue     prometheus.Gauge
	events         *prometheus.GaugeVec
	occupancy      *prometheus.GaugeVec
	statuses       *prometheus.GaugeVec
}

// NewMetrics builds the metric set on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		tick: factory.NewGauge(prometheus.GaugeOpts{
			Name: "careflow_tick",
			Help: "Completed simulation ticks.",
		}),
		activePatients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "careflow_patients_active",
			Help: "Currently admitted patients.",
		}),
		staffCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "careflow_staff",
			Help: "Staff on the roster.",
		}),
		avgFatigue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "careflow_staff_fatigue_avg",
			Help: "Mean staff fatigue, 0 to 1.",
		}),
		events: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "careflow_events_total",
			Help: "Events in the log by kind.",
		}, []string{"kind"}),
		occupancy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "careflow_department_occupancy",
			Help: "Patients per department.",
		}, []string{"department"}),
		statuses: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "careflow_patients_by_status",
			Help: "Active patients by clinical status.",
		}, []string{"status"}),
	}
}

// Refresh updates all gauges from a stats snapshot.
func (m *Metrics) Refresh(stats sim.Stats) {
	m.tick.Set(float64(stats.Tick))
	m.activePatients.Set(float64(stats.ActivePatients))
	m.staffCount.Set(float64(stats.StaffCount))
	m.avgFatigue.Set(stats.AvgFatigue)
	for kind, n := range stats.EventCounts {
		m.events.WithLabelValues(kind).Set(float64(n))
	}
	for dept, n := range stats.Departments {
		m.occupancy.WithLabelValues(dept).Set(float64(n))
	}
	for status, n := range stats.PatientStatuses {
		m.statuses.WithLabelValues(status).Set(float64(n))
	}
}

// Handler serves /metrics, refreshing gauges before each scrape.
func (m *Metrics) Handler(current func() sim.Stats) http.Handler {
	prom := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Refresh(current())
		prom.ServeHTTP(w, r)
	})
}
