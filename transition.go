package reactchart

import "fmt"

// Transition is a guarded edge from its source state to Target. Transitions of a state
// are tried in the order they were added.
type Transition struct {
	// Event names the trigger. Empty means automatic: the transition is evaluated on
	// entry of its source and on every property pass instead of on a named event.
	Event  string
	Target StateID
	Guard  *Condition

	source StateID
}

func (t *Transition) Source() StateID { return t.source }
func (t *Transition) Automatic() bool { return t.Event == "" }

func (t *Transition) matches(event string, automatic bool) bool {
	if automatic {
		return t.Event == ""
	}
	return t.Event != "" && t.Event == event
}

func (t *Transition) label() string {
	if t.Event == "" {
		return "automatic"
	}
	return fmt.Sprintf("%q", t.Event)
}

type queuedTransition struct {
	t    *Transition
	from StateID
}

// RunTransition executes t as if it were selected in from. Inside a running transition
// batch the request is queued and executed after the current one; otherwise the queue is
// drained before RunTransition returns. A transition whose source is no longer active
// when it is dequeued is dropped with a warning.
func (c *Chart) RunTransition(t *Transition, from StateID) error {
	if t == nil || !c.valid(from) || !c.valid(t.Target) {
		return ErrUnknownState
	}
	c.transitions = append(c.transitions, queuedTransition{t: t, from: from})
	if c.transitionActive {
		return nil
	}
	if err := c.ready(); err != nil {
		c.transitions = c.transitions[:0]
		return err
	}
	if c.busy {
		return c.drainTransitions()
	}
	if err := c.hold(c.drainTransitions); err != nil {
		return err
	}
	return c.drain()
}

// drainTransitions executes queued transitions in FIFO order. Transitions requested while
// one is executing land at the back of the queue, so chains run iteratively.
func (c *Chart) drainTransitions() error {
	c.transitionActive = true
	defer func() {
		c.transitionActive = false
		if r := recover(); r != nil {
			c.transitions = c.transitions[:0]
			panic(r)
		}
	}()

	steps := 0
	for len(c.transitions) > 0 {
		q := c.transitions[0]
		c.transitions = c.transitions[1:]

		src := c.states[q.from]
		if !src.active {
			c.logger.Warn("dropping transition from inactive state",
				"chart", c.name, "state", src.path, "event", q.t.Event, "target", c.states[q.t.Target].path)
			c.observer.TransitionDropped(c, q.t)
			continue
		}
		steps++
		if c.maxMicrosteps > 0 && steps > c.maxMicrosteps {
			c.transitions = c.transitions[:0]
			return fmt.Errorf("%w: more than %d transitions in one dispatch (last from %q)",
				ErrMicrostepLimit, c.maxMicrosteps, src.path)
		}
		if err := c.execute(q.t, q.from); err != nil {
			c.transitions = c.transitions[:0]
			return err
		}
	}
	return nil
}

// processTransitions selects transitions for one dispatch pass and executes them.
func (c *Chart) processTransitions(event string, automatic bool) error {
	err := func() error {
		c.transitionActive = true
		defer func() { c.transitionActive = false }()
		_, err := c.selectTransitions(c.root, event, automatic, nil)
		return err
	}()
	if err != nil {
		c.transitions = c.transitions[:0]
		return err
	}
	return c.drainTransitions()
}

// selectTransitions walks the active configuration below id and queues at most one
// transition per active branch. Descendants are tried before their ancestors; a state whose
// branch already selected is not tried. When only is non-nil, states outside it are walked
// through but never select.
func (c *Chart) selectTransitions(id StateID, event string, automatic bool, only map[StateID]bool) (bool, error) {
	s := c.states[id]
	if !s.active {
		return false, nil
	}
	switch s.kind {
	case Compound:
		if child := c.activeChild(id); child != NoState {
			selected, err := c.selectTransitions(child, event, automatic, only)
			if err != nil || selected {
				return selected, err
			}
		}
	case Parallel:
		selected := false
		for _, child := range s.children {
			ok, err := c.selectTransitions(child, event, automatic, only)
			if err != nil {
				return false, err
			}
			selected = selected || ok
		}
		if selected {
			return true, nil
		}
	}
	if only != nil && !only[id] {
		return false, nil
	}
	for _, t := range s.transitions {
		if !t.matches(event, automatic) {
			continue
		}
		ok, err := t.Guard.IsSatisfied(s)
		if err != nil {
			return false, fmt.Errorf("guard of %s transition in %q: %w", t.label(), s.path, err)
		}
		if ok {
			return true, c.RunTransition(t, id)
		}
	}
	return false, nil
}

// selectAutomatic queues the automatic transitions of the states entered by the last
// execution.
func (c *Chart) selectAutomatic() error {
	if len(c.entering) == 0 {
		return nil
	}
	only := make(map[StateID]bool, len(c.entering))
	for _, id := range c.entering {
		only[id] = true
	}
	_, err := c.selectTransitions(c.entering[0], "", true, only)
	return err
}

// execute exits the configuration below the lowest common compound ancestor of from and
// the target, then enters the chain down to the target.
func (c *Chart) execute(t *Transition, from StateID) error {
	c.logger.Debug("transition taken",
		"chart", c.name, "from", c.states[from].path, "to", c.states[t.Target].path, "event", t.Event)
	c.observer.TransitionTaken(c, t)

	c.entering = c.entering[:0]
	anc := c.lcca(from, t.Target)
	if anc == NoState {
		c.exitState(c.root)
		c.enterState(c.root, c.chain(c.root, t.Target))
	} else {
		if child := c.activeChild(anc); child != NoState {
			c.exitState(child)
		}
		path := c.chain(anc, t.Target)
		c.enterState(path[0], path[1:])
	}
	return c.selectAutomatic()
}

// lcca returns the nearest compound proper ancestor of src that is also a proper ancestor
// of tgt, or NoState when only the root contains both.
func (c *Chart) lcca(src, tgt StateID) StateID {
	for p := c.states[src].parent; p != NoState; p = c.states[p].parent {
		if c.states[p].kind == Compound && c.isDescendant(tgt, p) {
			return p
		}
	}
	return NoState
}

// chain lists the states strictly below anc down to and including tgt, outermost first.
func (c *Chart) chain(anc, tgt StateID) []StateID {
	var path []StateID
	for id := tgt; id != anc && id != NoState; id = c.states[id].parent {
		path = append(path, id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
