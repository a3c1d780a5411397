package reactchart

// Observer receives scheduler notifications. Calls happen on the chart's goroutine while a
// dispatch is running; implementations must not call back into the chart.
type Observer interface {
	EventDispatched(c *Chart, event string)
	PropertyPass(c *Chart)
	StateEntered(c *Chart, s *State)
	StateExited(c *Chart, s *State)
	TransitionTaken(c *Chart, t *Transition)
	TransitionDropped(c *Chart, t *Transition)
}

// NopObserver ignores every notification. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) EventDispatched(*Chart, string)        {}
func (NopObserver) PropertyPass(*Chart)                   {}
func (NopObserver) StateEntered(*Chart, *State)           {}
func (NopObserver) StateExited(*Chart, *State)            {}
func (NopObserver) TransitionTaken(*Chart, *Transition)   {}
func (NopObserver) TransitionDropped(*Chart, *Transition) {}

// MultiObserver fans notifications out in order.
type MultiObserver []Observer

func (m MultiObserver) EventDispatched(c *Chart, event string) {
	for _, o := range m {
		o.EventDispatched(c, event)
	}
}

func (m MultiObserver) PropertyPass(c *Chart) {
	for _, o := range m {
		o.PropertyPass(c)
	}
}

func (m MultiObserver) StateEntered(c *Chart, s *State) {
	for _, o := range m {
		o.StateEntered(c, s)
	}
}

func (m MultiObserver) StateExited(c *Chart, s *State) {
	for _, o := range m {
		o.StateExited(c, s)
	}
}

func (m MultiObserver) TransitionTaken(c *Chart, t *Transition) {
	for _, o := range m {
		o.TransitionTaken(c, t)
	}
}

func (m MultiObserver) TransitionDropped(c *Chart, t *Transition) {
	for _, o := range m {
		o.TransitionDropped(c, t)
	}
}
