// Package metrics exposes controller counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command results.
const (
	ResultOK          = "ok"
	ResultUnavailable = "unavailable"
	ResultWriteFailed = "write_failed"
	ResultNoStatus    = "no_status"
)

// Metrics holds the controller's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	commands    *prometheus.CounterVec
	modeChanges *prometheus.CounterVec
	reconnects  prometheus.Counter
	connected   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "armctl",
			Name:      "commands_total",
			Help:      "Commands sent to the arm, by command and result.",
		}, []string{"command", "result"}),
		modeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "armctl",
			Name:      "input_mode_changes_total",
			Help:      "Input mode switches, by new mode.",
		}, []string{"mode"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "armctl",
			Name:      "joystick_connects_total",
			Help:      "Times the joystick was (re)opened.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "armctl",
			Name:      "joystick_connected",
			Help:      "1 while the joystick is open.",
		}),
	}
	reg.MustRegister(m.commands, m.modeChanges, m.reconnects, m.connected)
	return m
}

// CommandSent records the outcome of one command.
func (m *Metrics) CommandSent(command, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, result).Inc()
}

// ModeChanged records a switch to mode.
func (m *Metrics) ModeChanged(mode string) {
	if m == nil {
		return
	}
	m.modeChanges.WithLabelValues(mode).Inc()
}

// JoystickConnected records the joystick being opened or lost.
func (m *Metrics) JoystickConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.reconnects.Inc()
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
