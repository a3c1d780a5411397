package reactchart

import (
	"fmt"
	"time"
)

// StateID is a stable handle into a chart's state arena.
type StateID int

// NoState is the zero handle: no parent, no initial child, no target.
const NoState StateID = -1

// StateKind tags the variant of a State.
type StateKind uint8

const (
	// Simple states have no children.
	Simple StateKind = iota
	// Compound states keep exactly one child active.
	Compound
	// Parallel states keep all children active.
	Parallel
	// History states restore their parent's last recorded configuration when targeted.
	History
)

func (k StateKind) String() string {
	switch k {
	case Simple:
		return "simple"
	case Compound:
		return "compound"
	case Parallel:
		return "parallel"
	case History:
		return "history"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// State is a node of the chart's state tree. The tree shape is fixed once the chart is
// initialized; only the active flags change afterwards.
type State struct {
	id          StateID
	name        string
	path        string
	kind        StateKind
	parent      StateID
	children    []StateID
	initial     StateID
	transitions []*Transition

	active  bool
	record  *StateRecord
	history StateID
	chart   *Chart

	onEnter []func(*State)
	onExit  []func(*State)

	reactors        []reactor
	treeEntered     *Reaction
	tick            *Reaction1[time.Duration]
	input           *Reaction1[any]
	unhandledInput  *Reaction1[any]
	events          map[string]*Reaction
	anyEvent        *Reaction1[string]
	propertyChanged *Reaction2[string, Value]
}

func (s *State) ID() StateID                { return s.id }
func (s *State) Name() string               { return s.name }
func (s *State) Path() string               { return s.path }
func (s *State) Kind() StateKind            { return s.kind }
func (s *State) Active() bool               { return s.active }
func (s *State) Parent() StateID            { return s.parent }
func (s *State) Initial() StateID           { return s.initial }
func (s *State) Chart() *Chart              { return s.chart }
func (s *State) Record() *StateRecord       { return s.record }
func (s *State) Transitions() []*Transition { return s.transitions }

// Children returns the child handles in document order.
func (s *State) Children() []StateID {
	return append([]StateID(nil), s.children...)
}

func (s *State) String() string { return s.path }

// AddTransition appends a transition to s. An empty event makes it an automatic
// transition, evaluated on entry and on every property pass. A nil guard always holds.
func (s *State) AddTransition(event string, target StateID, guard *Condition) *Transition {
	t := &Transition{Event: event, Target: target, Guard: guard, source: s.id}
	s.transitions = append(s.transitions, t)
	return t
}

// OnEnter registers fn to run after s becomes active.
func (s *State) OnEnter(fn func(*State)) {
	s.onEnter = append(s.onEnter, fn)
}

// OnExit registers fn to run before s becomes inactive.
func (s *State) OnExit(fn func(*State)) {
	s.onExit = append(s.onExit, fn)
}

// activate marks s active and mirrors the flag into its reactions.
func (c *Chart) activate(s *State) {
	s.active = true
	for _, r := range s.reactors {
		r.setActive(true)
	}
	c.entering = append(c.entering, s.id)
	c.logger.Debug("state entered", "chart", c.name, "state", s.path)
	c.observer.StateEntered(c, s)
	for _, fn := range s.onEnter {
		fn(s)
	}
}

func (c *Chart) deactivate(s *State) {
	for _, fn := range s.onExit {
		fn(s)
	}
	s.active = false
	for _, r := range s.reactors {
		r.setActive(false)
	}
	c.logger.Debug("state exited", "chart", c.name, "state", s.path)
	c.observer.StateExited(c, s)
}

// enterState activates id. path lists the states below id that lead to an explicit
// transition target; when it is empty the default descendants are entered.
func (c *Chart) enterState(id StateID, path []StateID) {
	s := c.states[id]
	if s.kind == History {
		c.enterHistory(s)
		return
	}
	c.activate(s)
	switch s.kind {
	case Compound:
		if len(path) > 0 {
			c.enterState(path[0], path[1:])
			return
		}
		c.enterState(s.initial, nil)
	case Parallel:
		if len(path) > 0 && c.states[path[0]].kind == History {
			c.enterHistory(c.states[path[0]])
			return
		}
		for _, child := range s.children {
			if c.states[child].kind == History {
				continue
			}
			if len(path) > 0 && child == path[0] {
				c.enterState(child, path[1:])
			} else {
				c.enterState(child, nil)
			}
		}
	}
}

// enterDefault enters the default children of an already active container.
func (c *Chart) enterDefault(s *State) {
	switch s.kind {
	case Compound:
		c.enterState(s.initial, nil)
	case Parallel:
		for _, child := range s.children {
			if c.states[child].kind != History {
				c.enterState(child, nil)
			}
		}
	}
}

// exitState deactivates id after its active descendants, innermost first. A state that
// owns a History child records its configuration before anything below it is exited.
func (c *Chart) exitState(id StateID) {
	s := c.states[id]
	if !s.active {
		return
	}
	if s.history != NoState {
		s.record = c.capture(id)
	}
	for i := len(s.children) - 1; i >= 0; i-- {
		c.exitState(s.children[i])
	}
	c.deactivate(s)
}

// activeChild returns the active child of a compound state.
func (c *Chart) activeChild(id StateID) StateID {
	for _, child := range c.states[id].children {
		if c.states[child].active {
			return child
		}
	}
	return NoState
}

// isDescendant reports whether id lies strictly below ancestor.
func (c *Chart) isDescendant(id, ancestor StateID) bool {
	for p := c.states[id].parent; p != NoState; p = c.states[p].parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// activeStates returns every active state in document (pre-order) order.
func (c *Chart) activeStates() []*State {
	if c.root == NoState {
		return nil
	}
	var out []*State
	var walk func(id StateID)
	walk = func(id StateID) {
		s := c.states[id]
		if !s.active {
			return
		}
		out = append(out, s)
		for _, child := range s.children {
			walk(child)
		}
	}
	walk(c.root)
	return out
}
