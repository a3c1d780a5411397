// Package reactchart is a hierarchical reactive state-chart engine.
//
// A Chart owns an arena of States (simple, compound, parallel and history), a
// PropertyStore read by guard Conditions, and a run-to-completion scheduler. Hosts feed
// it through SendEvent and SetProperty; per-state Reactions surface host occurrences back
// while their state is active.
//
// A Chart is confined to one goroutine. Calls made from reactions or entry callbacks
// while a dispatch is running are queued and processed before the outermost call returns.
package reactchart

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Chart is one running instance of a state chart.
type Chart struct {
	name          string
	states        []*State
	byPath        map[string]StateID
	root          StateID
	props         *PropertyStore
	logger        *slog.Logger
	observer      Observer
	maxMicrosteps int

	events          []string
	propertyPending bool
	transitions     []queuedTransition

	// busy is held by the drain loop; transitionActive by a transition batch.
	busy             bool
	transitionActive bool

	initialized  bool
	entered      bool
	enterPending bool
	entering     []StateID
}

// New returns an empty chart. Add states with AddState or build one with a Builder.
func New(opts ...Option) *Chart {
	c := &Chart{
		name:          "chart",
		byPath:        make(map[string]StateID),
		root:          NoState,
		props:         NewPropertyStore(),
		logger:        slog.Default(),
		observer:      NopObserver{},
		maxMicrosteps: DefaultMaxMicrosteps,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddState appends a state under parent (NoState for the top level) and returns its handle.
// The first non-history child of a compound state is its initial child unless SetInitial
// says otherwise.
func (c *Chart) AddState(parent StateID, name string, kind StateKind) (StateID, error) {
	if c.initialized {
		return NoState, configErrorf(name, "cannot add states after Initialize")
	}
	if name == "" || strings.Contains(name, ".") {
		return NoState, configErrorf(name, "state name must be non-empty and contain no dots")
	}
	path := name
	if parent != NoState {
		if !c.valid(parent) {
			return NoState, fmt.Errorf("parent of %q: %w", name, ErrUnknownState)
		}
		path = c.states[parent].path + "." + name
	}
	if _, exists := c.byPath[path]; exists {
		return NoState, configErrorf(path, "duplicate state")
	}

	id := StateID(len(c.states))
	s := &State{
		id:      id,
		name:    name,
		path:    path,
		kind:    kind,
		parent:  parent,
		initial: NoState,
		history: NoState,
	}
	c.states = append(c.states, s)
	c.byPath[path] = id
	if parent != NoState {
		p := c.states[parent]
		p.children = append(p.children, id)
		if p.initial == NoState && kind != History {
			p.initial = id
		}
	}
	return id, nil
}

// SetInitial designates child as the initial child of the compound state parent.
func (c *Chart) SetInitial(parent, child StateID) error {
	if !c.valid(parent) || !c.valid(child) {
		return ErrUnknownState
	}
	c.states[parent].initial = child
	return nil
}

// Initialize validates the tree and binds every state to the chart. It is idempotent.
// Structural problems are fatal and wrap ErrMalformedChart; condition authoring problems
// are logged as warnings.
func (c *Chart) Initialize() error {
	if c.initialized {
		return nil
	}
	root := NoState
	for _, s := range c.states {
		if s.parent != NoState {
			continue
		}
		if root != NoState {
			return configErrorf(s.path, "chart has more than one root state (also %q)", c.states[root].path)
		}
		root = s.id
	}
	if root == NoState {
		return configErrorf("", "chart has no root state")
	}
	if c.states[root].kind == History {
		return configErrorf(c.states[root].path, "root cannot be a history state")
	}

	for _, s := range c.states {
		if err := c.validateState(s); err != nil {
			return err
		}
	}

	for _, s := range c.states {
		s.chart = c
		for _, t := range s.transitions {
			for _, w := range t.Guard.Validate() {
				c.logger.Warn("condition warning", "chart", c.name, "state", s.path, "event", t.Event, "warning", w)
			}
		}
	}
	c.root = root
	c.initialized = true
	c.logger.Debug("chart initialized", "chart", c.name, "states", len(c.states), "root", c.states[root].path)
	return nil
}

func (c *Chart) validateState(s *State) error {
	nonHistory := 0
	s.history = NoState
	for _, child := range s.children {
		if c.states[child].kind == History {
			if s.history != NoState {
				return configErrorf(s.path, "more than one history child")
			}
			s.history = child
			continue
		}
		nonHistory++
	}

	switch s.kind {
	case Simple:
		if len(s.children) > 0 {
			return configErrorf(s.path, "simple state has children")
		}
	case Compound:
		if nonHistory == 0 {
			return configErrorf(s.path, "compound state needs at least one non-history child")
		}
		if !c.valid(s.initial) || c.states[s.initial].parent != s.id || c.states[s.initial].kind == History {
			return configErrorf(s.path, "initial child must be a non-history child")
		}
	case Parallel:
		if nonHistory == 0 {
			return configErrorf(s.path, "parallel state needs at least one non-history child")
		}
	case History:
		if len(s.children) > 0 {
			return configErrorf(s.path, "history state has children")
		}
		if s.parent == NoState || (c.states[s.parent].kind != Compound && c.states[s.parent].kind != Parallel) {
			return configErrorf(s.path, "history state must be a child of a compound or parallel state")
		}
	default:
		return configErrorf(s.path, "unknown state kind %s", s.kind)
	}

	for _, t := range s.transitions {
		if !c.valid(t.Target) {
			return configErrorf(s.path, "%s transition has no valid target", t.label())
		}
	}
	return nil
}

// Enter performs the first activation: the root and its default descendants are entered and
// their automatic transitions run. It must be called exactly once after Initialize.
func (c *Chart) Enter() error {
	if !c.initialized {
		return ErrNotReady
	}
	if c.entered {
		return ErrAlreadyEntered
	}
	c.entered = true
	c.enterPending = false

	if err := c.hold(c.enterRoot); err != nil {
		return err
	}
	return c.drain()
}

// enterRoot activates the default configuration and runs the automatic transitions it enables.
func (c *Chart) enterRoot() error {
	err := func() error {
		c.transitionActive = true
		defer func() { c.transitionActive = false }()

		c.entering = c.entering[:0]
		c.enterState(c.root, nil)
		return c.selectAutomatic()
	}()
	if err != nil {
		c.transitions = c.transitions[:0]
		return err
	}
	return c.drainTransitions()
}

// hold runs fn with the drain loop held. The guard is released even if fn panics.
func (c *Chart) hold(fn func() error) error {
	c.busy = true
	defer func() { c.busy = false }()
	return fn()
}

func (c *Chart) ready() error {
	if !c.initialized {
		return ErrNotReady
	}
	if !c.states[c.root].active {
		return ErrNoRoot
	}
	return nil
}

// SendEvent queues name and runs the drain loop. Called during a dispatch it only queues;
// the running loop processes the event before returning.
func (c *Chart) SendEvent(name string) error {
	if err := c.ready(); err != nil {
		return err
	}
	c.events = append(c.events, name)
	return c.drain()
}

// SetProperty stores value and schedules one property pass. Property changes made before
// the pass runs are coalesced into it. value may be a Value or any Go scalar ValueOf accepts.
func (c *Chart) SetProperty(name string, value any) error {
	if err := c.ready(); err != nil {
		return err
	}
	v, err := ValueOf(value)
	if err != nil {
		return fmt.Errorf("property %q: %w", name, err)
	}
	c.props.Set(name, v)
	c.propertyPending = true
	for _, s := range c.activeStates() {
		s.notifyPropertyChanged(name, v)
	}
	return c.drain()
}

// Batch runs fn with the drain loop held, so every event and property change made inside
// is queued, then drains once. Errors from fn and from the drain are joined. If fn panics
// the panic propagates and the work it queued is drained by the next call.
func (c *Chart) Batch(fn func() error) error {
	if err := c.ready(); err != nil {
		return err
	}
	if c.busy {
		return fn()
	}
	ferr := c.hold(fn)
	return errors.Join(ferr, c.drain())
}

// drain processes queued work until both queues are empty. The pending property pass
// always runs before the next event, and its flag is cleared before the pass so changes
// made during it schedule another pass.
func (c *Chart) drain() error {
	if c.busy {
		return nil
	}
	c.busy = true
	defer func() { c.busy = false }()

	for len(c.events) > 0 || c.propertyPending {
		if c.propertyPending {
			c.propertyPending = false
			c.observer.PropertyPass(c)
			if err := c.processTransitions("", true); err != nil {
				return fmt.Errorf("property pass: %w", err)
			}
			continue
		}

		ev := c.events[0]
		c.events = c.events[1:]
		c.logger.Debug("dispatching event", "chart", c.name, "event", ev)
		c.observer.EventDispatched(c, ev)
		for _, s := range c.activeStates() {
			s.notifyEvent(ev)
		}
		if err := c.processTransitions(ev, false); err != nil {
			return fmt.Errorf("event %q: %w", ev, err)
		}
	}
	return nil
}

func (c *Chart) valid(id StateID) bool {
	return id >= 0 && int(id) < len(c.states)
}

func (c *Chart) Name() string               { return c.name }
func (c *Chart) Properties() *PropertyStore { return c.props }
func (c *Chart) Initialized() bool          { return c.initialized }
func (c *Chart) Entered() bool              { return c.entered }
func (c *Chart) Len() int                   { return len(c.states) }

// Root returns the root state, or nil before Initialize.
func (c *Chart) Root() *State {
	if c.root == NoState {
		return nil
	}
	return c.states[c.root]
}

// State returns the state for id, or nil if id is not a handle of this chart.
func (c *Chart) State(id StateID) *State {
	if !c.valid(id) {
		return nil
	}
	return c.states[id]
}

// Lookup resolves a dotted path such as "unit.alive.idle".
func (c *Chart) Lookup(path string) (StateID, bool) {
	id, ok := c.byPath[path]
	if !ok {
		return NoState, false
	}
	return id, true
}

// IsActive reports whether the state at path is active.
func (c *Chart) IsActive(path string) bool {
	id, ok := c.byPath[path]
	return ok && c.states[id].active
}

// ActiveStates returns the paths of the active leaves in document order.
func (c *Chart) ActiveStates() []string {
	var leaves []string
	for _, s := range c.activeStates() {
		if c.isLeaf(s) {
			leaves = append(leaves, s.path)
		}
	}
	return leaves
}

func (c *Chart) isLeaf(s *State) bool {
	for _, child := range s.children {
		if c.states[child].active {
			return false
		}
	}
	return true
}

// Property reads a property from the chart's store.
func (c *Chart) Property(name string) (Value, error) {
	return c.props.Get(name)
}
