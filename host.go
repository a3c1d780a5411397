package reactchart

import "time"

// Ready is the host's structural-ready hook: the chart is initialized now and entered on
// the next Process call.
func (c *Chart) Ready() error {
	if err := c.Initialize(); err != nil {
		return err
	}
	if !c.entered {
		c.enterPending = true
	}
	return nil
}

// Process is the host's per-frame hook. It performs a pending Enter, then ticks every active
// state in document order. Work queued by tick reactions is drained once at the end.
func (c *Chart) Process(delta time.Duration) error {
	if c.enterPending {
		if err := c.Enter(); err != nil {
			return err
		}
	}
	return c.broadcast(func(s *State) { s.NotifyTick(delta) })
}

// Input forwards a raw host input event to every active state.
func (c *Chart) Input(ev any) error {
	return c.broadcast(func(s *State) { s.NotifyInput(ev) })
}

// UnhandledInput forwards an input event nothing else consumed.
func (c *Chart) UnhandledInput(ev any) error {
	return c.broadcast(func(s *State) { s.NotifyUnhandledInput(ev) })
}

// TreeEntered forwards the host's tree-entry notification.
func (c *Chart) TreeEntered() error {
	return c.broadcast(func(s *State) { s.NotifyTreeEntered() })
}

// broadcast notifies the active states inside one batch. Before the chart is entered
// nothing is active and it does nothing.
func (c *Chart) broadcast(notify func(*State)) error {
	if c.ready() != nil {
		return nil
	}
	return c.Batch(func() error {
		for _, s := range c.activeStates() {
			notify(s)
		}
		return nil
	})
}

// Release is the host's tree-exit hook. Queued work is dropped and states no longer refer
// to the chart; the chart must be initialized and entered again before reuse.
func (c *Chart) Release() {
	c.events = nil
	c.transitions = nil
	c.entering = nil
	c.propertyPending = false
	c.busy = false
	c.transitionActive = false
	c.enterPending = false
	for _, s := range c.states {
		s.chart = nil
		if s.active {
			s.active = false
			for _, r := range s.reactors {
				r.setActive(false)
			}
		}
	}
	c.initialized = false
	c.entered = false
	c.root = NoState
	c.logger.Debug("chart released", "chart", c.name)
}
