// Package testutil lets one test suite drive a chart either directly or through the tick
// runtime.
package testutil

import (
	"time"

	"github.com/comalice/reactchart"
	"github.com/comalice/reactchart/realtime"
)

// RuntimeAdapter is the common surface of a directly driven chart and a tick runtime.
// Settle returns once every input sent so far has been applied.
type RuntimeAdapter interface {
	Start() error
	SendEvent(name string) error
	SetProperty(name string, value any) error
	Settle() error
	ActiveStates() []string
}

// DirectAdapter drives the chart on the caller's goroutine. Inputs apply immediately.
type DirectAdapter struct {
	chart *reactchart.Chart
}

// NewDirectAdapter wraps c.
func NewDirectAdapter(c *reactchart.Chart) *DirectAdapter {
	return &DirectAdapter{chart: c}
}

func (a *DirectAdapter) Start() error                             { return a.chart.Enter() }
func (a *DirectAdapter) SendEvent(name string) error              { return a.chart.SendEvent(name) }
func (a *DirectAdapter) SetProperty(name string, value any) error { return a.chart.SetProperty(name, value) }
func (a *DirectAdapter) Settle() error                            { return nil }
func (a *DirectAdapter) ActiveStates() []string                   { return a.chart.ActiveStates() }

// TickAdapter queues inputs on a runtime and applies them one tick at a time.
type TickAdapter struct {
	rt    *realtime.Runtime
	delta time.Duration
}

// NewTickAdapter wraps c in a runtime stepped manually by delta per tick.
func NewTickAdapter(c *reactchart.Chart, delta time.Duration) *TickAdapter {
	return &TickAdapter{rt: realtime.NewRuntime(c, realtime.Config{}), delta: delta}
}

// Start performs the first tick, which enters the chart.
func (a *TickAdapter) Start() error { return a.rt.Step(a.delta) }

func (a *TickAdapter) SendEvent(name string) error              { return a.rt.SendEvent(name) }
func (a *TickAdapter) SetProperty(name string, value any) error { return a.rt.SetProperty(name, value) }
func (a *TickAdapter) Settle() error                            { return a.rt.Step(a.delta) }
func (a *TickAdapter) ActiveStates() []string                   { return a.rt.ActiveStates() }
