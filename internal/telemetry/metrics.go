// Package telemetry exposes engine activity as Prometheus metrics and
// OpenTelemetry traces.
package telemetry

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/deadlineguard/internal/monitor"
)

const promNamespace = "deadlineguard"

// Metrics holds the collectors of one process. Each Metrics owns its own
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prom.Registry

	cycles        *prom.CounterVec
	cycleDuration *prom.HistogramVec
	alerts        *prom.CounterVec
	escalations   *prom.CounterVec
	deliveries    *prom.CounterVec
	outcomes      *prom.CounterVec
	commands      *prom.CounterVec
}

// Compile-time check.
var _ monitor.CycleObserver = (*Metrics)(nil)

// NewMetrics creates and registers all collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		cycles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: promNamespace,
			Name:      "cycles_total",
			Help:      "scan cycles run, by mode",
		}, []string{"mode"}),
		cycleDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: promNamespace,
			Name:      "cycle_duration_seconds",
			Help:      "duration of scan cycles",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"}),
		alerts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: promNamespace,
			Name:      "alerts_total",
			Help:      "alerts composed, by kind",
		}, []string{"kind"}),
		escalations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: promNamespace,
			Name:      "escalations_total",
			Help:      "priority escalations attempted, by result",
		}, []string{"result"}),
		deliveries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: promNamespace,
			Name:      "deliveries_total",
			Help:      "webhook deliveries, by result",
		}, []string{"result"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: promNamespace,
			Name:      "task_outcomes_total",
			Help:      "per-task evaluation outcomes",
		}, []string{"status", "reason"}),
		commands: prom.NewCounterVec(prom.CounterOpts{
			Namespace: promNamespace,
			Name:      "commands_total",
			Help:      "chat commands handled, by command and result",
		}, []string{"command", "result"}),
	}

	m.registry.MustRegister(
		m.cycles, m.cycleDuration, m.alerts, m.escalations,
		m.deliveries, m.outcomes, m.commands,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// WatchRecipients exports the value of count as the recipients gauge.
func (m *Metrics) WatchRecipients(count func() int) {
	m.registry.MustRegister(prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: promNamespace,
		Name:      "recipients",
		Help:      "registered alert recipients",
	}, func() float64 { return float64(count()) }))
}

// ObserveCycle implements monitor.CycleObserver.
func (m *Metrics) ObserveCycle(r monitor.CycleReport) {
	mode := string(r.Mode)
	m.cycles.WithLabelValues(mode).Inc()
	m.cycleDuration.WithLabelValues(mode).Observe(r.Duration().Seconds())

	for _, o := range r.Outcomes {
		m.outcomes.WithLabelValues(string(o.Status), string(o.Reason)).Inc()
		if o.Status == monitor.StatusAlerted {
			m.alerts.WithLabelValues("sla").Inc()
		}
		if o.Change != "" {
			m.alerts.WithLabelValues(string(o.Change)).Inc()
		}
		switch {
		case o.EscalationFailed:
			m.escalations.WithLabelValues("failure").Inc()
		case o.Escalated:
			m.escalations.WithLabelValues("success").Inc()
		}
	}

	d := r.Delivery()
	if d.Delivered > 0 {
		m.deliveries.WithLabelValues("success").Add(float64(d.Delivered))
	}
	if d.Failed > 0 {
		m.deliveries.WithLabelValues("failure").Add(float64(d.Failed))
	}
}

// ObserveCommand counts one handled chat command.
func (m *Metrics) ObserveCommand(command, result string) {
	m.commands.WithLabelValues(command, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
