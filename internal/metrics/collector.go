// Package metrics exposes bridge activity as Prometheus metrics.
//
// Collector implements bridge.Recorder, so it is wired in next to the
// journal and InfluxDB recorders and sees the same command, cue and event
// records. It owns its registry; serve it with promhttp.HandlerFor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/obs-osc-bridge/internal/bridge"
)

// Namespace prefixes every metric name.
const Namespace = "obsosc"

// routeNone labels commands that matched no route.
const routeNone = "none"

// ConnectionStatus reports whether a collaborator is connected.
type ConnectionStatus interface {
	IsConnected() bool
}

// Collector records bridge activity into Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	commands        *prometheus.CounterVec
	commandsDropped prometheus.Counter
	commandDuration *prometheus.HistogramVec
	cues            prometheus.Counter
	cueErrors       prometheus.Counter
	events          *prometheus.CounterVec
}

// NewCollector creates a collector with a fresh registry that also carries
// the Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "commands_total",
				Help:      "Inbound commands by route and outcome.",
			},
			[]string{"route", "outcome"},
		),
		commandsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "commands_dropped_total",
			Help:      "Commands discarded because the queue was full.",
		}),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "command_duration_seconds",
				Help:      "Time spent executing a routed command.",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"route"},
		),
		cues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cues_total",
			Help:      "Outbound cues triggered by OBS scene changes.",
		}),
		cueErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cue_errors_total",
			Help:      "Cues whose OSC send failed.",
		}),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "events_total",
				Help:      "OBS events handled by the bridge, by type.",
			},
			[]string{"type"},
		),
	}

	c.registry.MustRegister(
		c.commands,
		c.commandsDropped,
		c.commandDuration,
		c.cues,
		c.cueErrors,
		c.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry holding the bridge metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WatchConnection registers an obsosc_connected{component} gauge that
// reads status on every scrape.
func (c *Collector) WatchConnection(component string, status ConnectionStatus) error {
	return c.registry.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "connected",
			Help:        "1 when the component is connected.",
			ConstLabels: prometheus.Labels{"component": component},
		},
		func() float64 {
			if status.IsConnected() {
				return 1
			}
			return 0
		},
	))
}

// RecordCommand implements bridge.Recorder.
func (c *Collector) RecordCommand(rec bridge.CommandRecord) {
	route := rec.Route
	if route == "" {
		route = routeNone
	}
	c.commands.WithLabelValues(route, rec.Outcome).Inc()

	switch rec.Outcome {
	case bridge.OutcomeDropped:
		c.commandsDropped.Inc()
	case bridge.OutcomeOK, bridge.OutcomeError:
		c.commandDuration.WithLabelValues(route).Observe(rec.Duration.Seconds())
	}
}

// RecordCue implements bridge.Recorder.
func (c *Collector) RecordCue(rec bridge.CueRecord) {
	c.cues.Inc()
	if rec.Error != "" {
		c.cueErrors.Inc()
	}
}

// RecordEvent implements bridge.Recorder.
func (c *Collector) RecordEvent(rec bridge.EventRecord) {
	c.events.WithLabelValues(rec.Type).Inc()
}
