// Package metrics exports chart activity to Prometheus.
//
// A Collector is a reactchart.Observer; install it with reactchart.WithObserver and serve
// the registry it was registered with through promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/reactchart"
)

// Collector counts dispatches and transitions and tracks which states are active.
type Collector struct {
	events      *prometheus.CounterVec
	passes      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	entries     *prometheus.CounterVec
	active      *prometheus.GaugeVec
}

var _ reactchart.Observer = (*Collector)(nil)

// New creates a Collector and registers it with reg, or with the default registerer when
// reg is nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reactchart_events_dispatched_total",
				Help: "Total number of events dispatched by the drain loop",
			},
			[]string{"chart", "event"},
		),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reactchart_property_passes_total",
				Help: "Total number of coalesced property-driven transition passes",
			},
			[]string{"chart"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reactchart_transitions_total",
				Help: "Transitions executed or dropped because their source was no longer active",
			},
			[]string{"chart", "outcome"},
		),
		entries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reactchart_state_entries_total",
				Help: "Total number of state activations",
			},
			[]string{"chart", "state"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reactchart_state_active",
				Help: "1 while the state is active, 0 otherwise",
			},
			[]string{"chart", "state"},
		),
	}
	for _, col := range []prometheus.Collector{c.events, c.passes, c.transitions, c.entries, c.active} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is New that panics on registration errors.
func MustNew(reg prometheus.Registerer) *Collector {
	c, err := New(reg)
	if err != nil {
		panic(err)
	}
	return c
}

func (m *Collector) EventDispatched(c *reactchart.Chart, event string) {
	m.events.WithLabelValues(c.Name(), event).Inc()
}

func (m *Collector) PropertyPass(c *reactchart.Chart) {
	m.passes.WithLabelValues(c.Name()).Inc()
}

func (m *Collector) StateEntered(c *reactchart.Chart, s *reactchart.State) {
	m.entries.WithLabelValues(c.Name(), s.Path()).Inc()
	m.active.WithLabelValues(c.Name(), s.Path()).Set(1)
}

func (m *Collector) StateExited(c *reactchart.Chart, s *reactchart.State) {
	m.active.WithLabelValues(c.Name(), s.Path()).Set(0)
}

func (m *Collector) TransitionTaken(c *reactchart.Chart, _ *reactchart.Transition) {
	m.transitions.WithLabelValues(c.Name(), "taken").Inc()
}

func (m *Collector) TransitionDropped(c *reactchart.Chart, _ *reactchart.Transition) {
	m.transitions.WithLabelValues(c.Name(), "dropped").Inc()
}
