// Package metrics owns the prometheus registry of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector. The zero value is not usable; call New.
type Metrics struct {
	registry *prometheus.Registry

	routed      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	conflicts   prometheus.Counter
	reminders   prometheus.Counter
	deliveries  *prometheus.CounterVec
	overdue     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purchase_requests_routed_total",
			Help: "Purchase requests routed, by approval tier",
		}, []string{"tier"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purchase_request_transitions_total",
			Help: "Applied lifecycle transitions, by target status",
		}, []string{"status"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "purchase_request_signal_conflicts_total",
			Help: "Approval signals ignored because the request was already terminal",
		}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "purchase_request_reminders_total",
			Help: "Reminders recorded against open requests",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Notification delivery attempts, by result",
		}, []string{"result"}),
		overdue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "purchase_requests_overdue",
			Help: "Open purchase requests past their deadline at the last sweep",
		}),
	}
	m.registry.MustRegister(m.routed, m.transitions, m.conflicts, m.reminders, m.deliveries, m.overdue)
	return m
}

func (m *Metrics) Routed(tier string)     { m.routed.WithLabelValues(tier).Inc() }
func (m *Metrics) Transition(to string)   { m.transitions.WithLabelValues(to).Inc() }
func (m *Metrics) Conflict()              { m.conflicts.Inc() }
func (m *Metrics) Reminder()              { m.reminders.Inc() }
func (m *Metrics) Delivery(result string) { m.deliveries.WithLabelValues(result).Inc() }
func (m *Metrics) SetOverdue(n int)       { m.overdue.Set(float64(n)) }

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
