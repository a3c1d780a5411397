package reactchart

import "time"

type reactor interface {
	setActive(active bool)
}

type slot struct {
	active bool
}

// Active reports whether the owning state is active.
func (s *slot) Active() bool { return s.active }

func (s *slot) setActive(active bool) { s.active = active }

// Reaction forwards an argument-less occurrence to its handlers while the owning state
// is active. Reactions observe; they never change the configuration themselves.
type Reaction struct {
	slot
	handlers []func()
}

func (r *Reaction) Connect(fn func()) {
	r.handlers = append(r.handlers, fn)
}

// React calls every handler in connection order, or nothing if the state is inactive.
func (r *Reaction) React() {
	if !r.active {
		return
	}
	for _, fn := range r.handlers {
		fn()
	}
}

// Reaction1 is a Reaction carrying one payload.
type Reaction1[A any] struct {
	slot
	handlers []func(A)
}

func (r *Reaction1[A]) Connect(fn func(A)) {
	r.handlers = append(r.handlers, fn)
}

func (r *Reaction1[A]) React(a A) {
	if !r.active {
		return
	}
	for _, fn := range r.handlers {
		fn(a)
	}
}

// Reaction2 is a Reaction carrying two payloads.
type Reaction2[A, B any] struct {
	slot
	handlers []func(A, B)
}

func (r *Reaction2[A, B]) Connect(fn func(A, B)) {
	r.handlers = append(r.handlers, fn)
}

func (r *Reaction2[A, B]) React(a A, b B) {
	if !r.active {
		return
	}
	for _, fn := range r.handlers {
		fn(a, b)
	}
}

func attach[R reactor](s *State, r R) R {
	r.setActive(s.active)
	s.reactors = append(s.reactors, r)
	return r
}

// TreeEntered is the slot fed by NotifyTreeEntered.
func (s *State) TreeEntered() *Reaction {
	if s.treeEntered == nil {
		s.treeEntered = attach(s, &Reaction{})
	}
	return s.treeEntered
}

// Tick is the slot fed by NotifyTick with the frame delta.
func (s *State) Tick() *Reaction1[time.Duration] {
	if s.tick == nil {
		s.tick = attach(s, &Reaction1[time.Duration]{})
	}
	return s.tick
}

func (s *State) Input() *Reaction1[any] {
	if s.input == nil {
		s.input = attach(s, &Reaction1[any]{})
	}
	return s.input
}

func (s *State) UnhandledInput() *Reaction1[any] {
	if s.unhandledInput == nil {
		s.unhandledInput = attach(s, &Reaction1[any]{})
	}
	return s.unhandledInput
}

// Event returns the slot that reacts when the chart dispatches the named event while s
// is active. It fires before the transitions for that event are selected.
func (s *State) Event(name string) *Reaction {
	r, ok := s.events[name]
	if !ok {
		if s.events == nil {
			s.events = make(map[string]*Reaction)
		}
		r = attach(s, &Reaction{})
		s.events[name] = r
	}
	return r
}

// Events reacts to every dispatched event with its name.
func (s *State) Events() *Reaction1[string] {
	if s.anyEvent == nil {
		s.anyEvent = attach(s, &Reaction1[string]{})
	}
	return s.anyEvent
}

// PropertyChanged reacts to SetProperty with the property name and its new value.
func (s *State) PropertyChanged() *Reaction2[string, Value] {
	if s.propertyChanged == nil {
		s.propertyChanged = attach(s, &Reaction2[string, Value]{})
	}
	return s.propertyChanged
}

func (s *State) NotifyTreeEntered() {
	if s.treeEntered != nil {
		s.treeEntered.React()
	}
}

func (s *State) NotifyTick(delta time.Duration) {
	if s.tick != nil {
		s.tick.React(delta)
	}
}

func (s *State) NotifyInput(ev any) {
	if s.input != nil {
		s.input.React(ev)
	}
}

func (s *State) NotifyUnhandledInput(ev any) {
	if s.unhandledInput != nil {
		s.unhandledInput.React(ev)
	}
}

func (s *State) notifyEvent(name string) {
	if r, ok := s.events[name]; ok {
		r.React()
	}
	if s.anyEvent != nil {
		s.anyEvent.React(name)
	}
}

func (s *State) notifyPropertyChanged(name string, v Value) {
	if s.propertyChanged != nil {
		s.propertyChanged.React(name, v)
	}
}
