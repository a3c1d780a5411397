package reactchart

import (
	"fmt"
	"strings"
)

// Builder provides a fluent API for constructing charts from dotted state names instead of
// handles. Names are relative to the root: "on.idle" is the child "idle" of the root's
// child "on". Document order is the order in which states are first mentioned.
type Builder struct {
	rootName string
	root     *stateSpec
	opts     []Option
	order    []string
	specs    map[string]*stateSpec
}

// StateBuilder provides fluent methods for configuring one state.
type StateBuilder struct {
	b    *Builder
	spec *stateSpec
}

type stateSpec struct {
	name        string
	kind        StateKind
	kindSet     bool
	initial     string
	children    []string
	transitions []transitionSpec
	onEnter     []func(*State)
	onExit      []func(*State)
	setup       []func(*State)
}

type transitionSpec struct {
	event  string
	target string
	guard  *Condition
}

// NewBuilder starts a chart whose root is a compound state named rootName entering
// initial first. An empty initial selects the first child. Options are passed to New.
func NewBuilder(rootName, initial string, opts ...Option) *Builder {
	return &Builder{
		rootName: rootName,
		root:     &stateSpec{name: "", kind: Compound, initial: initial},
		opts:     opts,
		specs:    make(map[string]*stateSpec),
	}
}

// Root configures the root state itself.
func (b *Builder) Root() *StateBuilder {
	return &StateBuilder{b: b, spec: b.root}
}

// State creates or retrieves a state by dotted name. Missing parents are created on the way
// and become compound states unless configured otherwise.
func (b *Builder) State(name string) *StateBuilder {
	return &StateBuilder{b: b, spec: b.spec(name)}
}

func (b *Builder) spec(name string) *stateSpec {
	if s, ok := b.specs[name]; ok {
		return s
	}
	parent := b.root
	if parentPath, _ := splitPath(name); parentPath != "" {
		parent = b.spec(parentPath)
	}
	s := &stateSpec{name: name}
	b.specs[name] = s
	b.order = append(b.order, name)
	parent.children = append(parent.children, name)
	return s
}

// Build creates, validates and initializes the chart.
func (b *Builder) Build() (*Chart, error) {
	c := New(b.opts...)
	ids := make(map[string]StateID, len(b.order)+1)

	rootID, err := c.AddState(NoState, b.rootName, b.root.resolvedKind())
	if err != nil {
		return nil, err
	}
	ids[""] = rootID
	for _, name := range b.order {
		parent, local := splitPath(name)
		s := b.specs[name]
		id, err := c.AddState(ids[parent], local, s.resolvedKind())
		if err != nil {
			return nil, err
		}
		ids[name] = id
	}

	all := append([]*stateSpec{b.root}, b.specsInOrder()...)
	for _, s := range all {
		st := c.states[ids[s.name]]
		if s.initial != "" {
			initial, ok := b.resolve(s.name, s.initial, true)
			if !ok {
				return nil, fmt.Errorf("state %q: initial %q: %w", b.display(s.name), s.initial, ErrUnknownState)
			}
			if err := c.SetInitial(st.id, ids[initial]); err != nil {
				return nil, err
			}
		}
		for _, t := range s.transitions {
			target, ok := b.resolve(s.name, t.target, false)
			if !ok {
				return nil, fmt.Errorf("state %q: transition on %q to %q: %w", b.display(s.name), t.event, t.target, ErrUnknownState)
			}
			st.AddTransition(t.event, ids[target], t.guard)
		}
		for _, fn := range s.onEnter {
			st.OnEnter(fn)
		}
		for _, fn := range s.onExit {
			st.OnExit(fn)
		}
	}

	if err := c.Initialize(); err != nil {
		return nil, err
	}
	for _, s := range all {
		st := c.states[ids[s.name]]
		for _, fn := range s.setup {
			fn(st)
		}
	}
	return c, nil
}

func (b *Builder) specsInOrder() []*stateSpec {
	out := make([]*stateSpec, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.specs[name])
	}
	return out
}

// resolve finds ref relative to the state from. A child name is tried first when child is
// set, then the absolute name, then a sibling of from. The root's own name refers to the root.
func (b *Builder) resolve(from, ref string, child bool) (string, bool) {
	if child {
		if name := join(from, ref); b.specs[name] != nil {
			return name, true
		}
	}
	if ref == b.rootName {
		return "", true
	}
	if b.specs[ref] != nil {
		return ref, true
	}
	parent, _ := splitPath(from)
	if name := join(parent, ref); from != "" && b.specs[name] != nil {
		return name, true
	}
	return "", false
}

func (b *Builder) display(name string) string {
	return join(b.rootName, name)
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// splitPath splits a hierarchical path into parent and name components.
// For example, "parent.child" returns ("parent", "child").
func splitPath(path string) (parent, name string) {
	idx := strings.LastIndex(path, ".")
	if idx == -1 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

func (s *stateSpec) resolvedKind() StateKind {
	if s.kindSet {
		return s.kind
	}
	if len(s.children) > 0 {
		return Compound
	}
	return Simple
}

func (sb *StateBuilder) setKind(k StateKind) *StateBuilder {
	sb.spec.kind = k
	sb.spec.kindSet = true
	return sb
}

// Atomic marks this state as simple. This is the default for states without children.
func (sb *StateBuilder) Atomic() *StateBuilder { return sb.setKind(Simple) }

// Compound marks this state as compound, entering initial first. initial may be the child's
// local name or its full name; empty selects the first child.
func (sb *StateBuilder) Compound(initial string) *StateBuilder {
	sb.spec.initial = initial
	return sb.setKind(Compound)
}

// Parallel marks this state as parallel: all children are active together.
func (sb *StateBuilder) Parallel() *StateBuilder { return sb.setKind(Parallel) }

// History marks this state as the history pseudo-state of its parent.
func (sb *StateBuilder) History() *StateBuilder { return sb.setKind(History) }

// On adds a transition to target taken when event is dispatched and guard holds.
// A nil guard always holds.
func (sb *StateBuilder) On(event, target string, guard *Condition) *StateBuilder {
	sb.spec.transitions = append(sb.spec.transitions, transitionSpec{event: event, target: target, guard: guard})
	return sb
}

// Always adds an automatic transition, evaluated on entry and on property changes.
func (sb *StateBuilder) Always(target string, guard *Condition) *StateBuilder {
	return sb.On("", target, guard)
}

func (sb *StateBuilder) OnEnter(fn func(*State)) *StateBuilder {
	sb.spec.onEnter = append(sb.spec.onEnter, fn)
	return sb
}

func (sb *StateBuilder) OnExit(fn func(*State)) *StateBuilder {
	sb.spec.onExit = append(sb.spec.onExit, fn)
	return sb
}

// Setup runs fn with the built state once the chart is initialized, typically to connect
// reactions.
func (sb *StateBuilder) Setup(fn func(*State)) *StateBuilder {
	sb.spec.setup = append(sb.spec.setup, fn)
	return sb
}

// State continues with another state of the same builder.
func (sb *StateBuilder) State(name string) *StateBuilder {
	return sb.b.State(name)
}
