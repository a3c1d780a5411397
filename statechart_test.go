package reactchart

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder logs scheduler activity in order.
type recorder struct {
	NopObserver
	log     []string
	dropped int
}

func (r *recorder) EventDispatched(_ *Chart, event string) { r.log = append(r.log, "event:"+event) }
func (r *recorder) PropertyPass(*Chart)                    { r.log = append(r.log, "pass") }
func (r *recorder) TransitionDropped(*Chart, *Transition)  { r.dropped++ }

func (r *recorder) count(entry string) int {
	n := 0
	for _, e := range r.log {
		if e == entry {
			n++
		}
	}
	return n
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func mustEnter(t *testing.T, b *Builder) *Chart {
	t.Helper()
	c, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, c.Enter())
	return c
}

func assertClean(t *testing.T, c *Chart) {
	t.Helper()
	assert.False(t, c.busy, "busy guard left set")
	assert.False(t, c.transitionActive, "transition guard left set")
	assert.Empty(t, c.transitions, "transition queue not empty")
}

func TestTrafficLight(t *testing.T) {
	b := NewBuilder("traffic", "green")
	b.State("green").On("timer", "yellow", nil)
	b.State("yellow").On("timer", "red", nil)
	b.State("red").On("timer", "green", nil)
	c := mustEnter(t, b)

	assert.Equal(t, []string{"traffic.green"}, c.ActiveStates())
	for _, want := range []string{"traffic.yellow", "traffic.red", "traffic.green"} {
		require.NoError(t, c.SendEvent("timer"))
		assert.Equal(t, []string{want}, c.ActiveStates())
	}

	require.NoError(t, c.SendEvent("unknown"))
	assert.Equal(t, []string{"traffic.green"}, c.ActiveStates())
}

func TestReadiness(t *testing.T) {
	b := NewBuilder("m", "")
	b.State("a")
	c, err := b.Build()
	require.NoError(t, err)

	empty := New()
	require.ErrorIs(t, empty.SendEvent("x"), ErrNotReady)
	require.ErrorIs(t, empty.SetProperty("x", 1), ErrNotReady)
	require.ErrorIs(t, empty.Enter(), ErrNotReady)

	require.ErrorIs(t, c.SendEvent("x"), ErrNoRoot)
	require.ErrorIs(t, c.Batch(func() error { return nil }), ErrNoRoot)

	require.NoError(t, c.Enter())
	require.ErrorIs(t, c.Enter(), ErrAlreadyEntered)
	assert.True(t, c.IsActive("m"))
	assert.True(t, c.IsActive("m.a"))
}

func TestMalformedCharts(t *testing.T) {
	tests := []struct {
		name  string
		build func(c *Chart)
	}{
		{"no root", func(c *Chart) {}},
		{"two roots", func(c *Chart) {
			_, _ = c.AddState(NoState, "a", Simple)
			_, _ = c.AddState(NoState, "b", Simple)
		}},
		{"compound without children", func(c *Chart) {
			_, _ = c.AddState(NoState, "a", Compound)
		}},
		{"compound with only history", func(c *Chart) {
			r, _ := c.AddState(NoState, "a", Compound)
			_, _ = c.AddState(r, "h", History)
		}},
		{"simple with children", func(c *Chart) {
			r, _ := c.AddState(NoState, "a", Simple)
			_, _ = c.AddState(r, "b", Simple)
		}},
		{"history root", func(c *Chart) {
			_, _ = c.AddState(NoState, "h", History)
		}},
		{"two history children", func(c *Chart) {
			r, _ := c.AddState(NoState, "a", Compound)
			_, _ = c.AddState(r, "x", Simple)
			_, _ = c.AddState(r, "h1", History)
			_, _ = c.AddState(r, "h2", History)
		}},
		{"history initial", func(c *Chart) {
			r, _ := c.AddState(NoState, "a", Compound)
			_, _ = c.AddState(r, "x", Simple)
			h, _ := c.AddState(r, "h", History)
			_ = c.SetInitial(r, h)
		}},
		{"transition without target", func(c *Chart) {
			r, _ := c.AddState(NoState, "a", Compound)
			x, _ := c.AddState(r, "x", Simple)
			c.State(x).AddTransition("go", NoState, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := bufferLogger()
			c := New(WithLogger(logger))
			tt.build(c)
			err := c.Initialize()
			require.ErrorIs(t, err, ErrMalformedChart)
			assert.False(t, c.Initialized())
		})
	}
}

func TestAddStateRejectsBadNames(t *testing.T) {
	c := New()
	_, err := c.AddState(NoState, "a.b", Simple)
	require.ErrorIs(t, err, ErrMalformedChart)

	r, err := c.AddState(NoState, "root", Compound)
	require.NoError(t, err)
	_, err = c.AddState(r, "x", Simple)
	require.NoError(t, err)
	_, err = c.AddState(r, "x", Simple)
	require.ErrorIs(t, err, ErrMalformedChart)
	_, err = c.AddState(StateID(42), "y", Simple)
	require.ErrorIs(t, err, ErrUnknownState)

	require.NoError(t, c.Initialize())
	_, err = c.AddState(r, "late", Simple)
	require.ErrorIs(t, err, ErrMalformedChart)
}

func TestConditionWarningsAreLogged(t *testing.T) {
	logger, buf := bufferLogger()
	b := NewBuilder("m", "a", WithLogger(logger))
	b.State("a").On("go", "b", Invert(nil))
	b.State("b")
	c := mustEnter(t, b)

	assert.Contains(t, buf.String(), "never be satisfied")
	require.NoError(t, c.SendEvent("go"))
	assert.Equal(t, []string{"m.a"}, c.ActiveStates())
}

func TestSingleFirePerBranch(t *testing.T) {
	b := NewBuilder("m", "a")
	// The second guard would fail with UndefinedProperty if it were ever evaluated.
	b.State("a").
		On("go", "b", Unconditional()).
		On("go", "c", Flag("missing"))
	b.State("b")
	b.State("c")
	c := mustEnter(t, b)

	require.NoError(t, c.SendEvent("go"))
	assert.Equal(t, []string{"m.b"}, c.ActiveStates())
}

func TestInnermostStateWins(t *testing.T) {
	b := NewBuilder("m", "on")
	b.State("on").On("toggle", "off", nil)
	b.State("on.idle").On("toggle", "on.busy", nil)
	b.State("on.busy")
	b.State("off")
	c := mustEnter(t, b)

	require.NoError(t, c.SendEvent("toggle"))
	assert.Equal(t, []string{"m.on.busy"}, c.ActiveStates())

	// busy has no toggle transition, so its parent handles it.
	require.NoError(t, c.SendEvent("toggle"))
	assert.Equal(t, []string{"m.off"}, c.ActiveStates())
}

func TestFalseGuardFallsThroughToParent(t *testing.T) {
	props := NewPropertyStore()
	props.Set("enabled", Bool(false))
	b := NewBuilder("m", "on", WithProperties(props))
	b.State("on").On("go", "off", nil)
	b.State("on.idle").On("go", "on.busy", Flag("enabled"))
	b.State("on.busy")
	b.State("off")
	c := mustEnter(t, b)

	require.NoError(t, c.SendEvent("go"))
	assert.Equal(t, []string{"m.off"}, c.ActiveStates())
}

func TestParallelBranchesFireInOnePass(t *testing.T) {
	b := NewBuilder("m", "p")
	b.State("p").Parallel()
	b.State("p.left.a").On("go", "p.left.a2", nil)
	b.State("p.left.a2")
	b.State("p.right.b").On("go", "p.right.b2", nil)
	b.State("p.right.b2")
	c := mustEnter(t, b)

	assert.Equal(t, []string{"m.p.left.a", "m.p.right.b"}, c.ActiveStates())
	require.NoError(t, c.SendEvent("go"))
	assert.Equal(t, []string{"m.p.left.a2", "m.p.right.b2"}, c.ActiveStates())
}

func TestCoalescedPropertyPass(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder("m", "idle", WithObserver(rec))
	b.State("idle").On("go", "running", nil)
	b.State("running")
	c := mustEnter(t, b)

	err := c.Batch(func() error {
		for i := 0; i < 3; i++ {
			if err := c.SetProperty("speed", i); err != nil {
				return err
			}
		}
		return c.SendEvent("go")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pass", "event:go"}, rec.log)
	assert.Equal(t, []string{"m.running"}, c.ActiveStates())

	v, err := c.Property("speed")
	require.NoError(t, err)
	assert.Equal(t, Int(2), v)
}

func TestCoalescedPropertyPassFromReaction(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder("m", "idle", WithObserver(rec))
	b.State("idle").Setup(func(s *State) {
		s.Event("poke").Connect(func() {
			for i := 0; i < 3; i++ {
				_ = s.Chart().SetProperty("hits", i)
			}
		})
	})
	c := mustEnter(t, b)

	require.NoError(t, c.SendEvent("poke"))
	assert.Equal(t, []string{"event:poke", "pass"}, rec.log)
}

func TestUnbatchedPropertiesPassEach(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder("m", "idle", WithObserver(rec))
	b.State("idle")
	c := mustEnter(t, b)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.SetProperty("speed", i))
	}
	assert.Equal(t, 3, rec.count("pass"))
}

func TestReentrantSendEvent(t *testing.T) {
	rec := &recorder{}
	var order []string
	b := NewBuilder("m", "a", WithObserver(rec))
	b.State("a").On("A", "b", nil).Setup(func(s *State) {
		s.Event("A").Connect(func() {
			require.NoError(t, s.Chart().SendEvent("B"))
			// B is only queued; A's dispatch has not moved yet.
			order = append(order, fmt.Sprintf("after nested send: a=%v", s.Active()))
		})
	})
	b.State("b").On("B", "c", nil).OnEnter(func(*State) { order = append(order, "enter b") })
	b.State("c").OnEnter(func(*State) { order = append(order, "enter c") })
	c := mustEnter(t, b)

	require.NoError(t, c.SendEvent("A"))
	assert.Equal(t, []string{"m.c"}, c.ActiveStates())
	assert.Equal(t, []string{"after nested send: a=true", "enter b", "enter c"}, order)
	assert.Equal(t, []string{"event:A", "event:B"}, rec.log)
	assertClean(t, c)
}

func TestSendEventFromEntryCallback(t *testing.T) {
	b := NewBuilder("m", "a")
	b.State("a").On("go", "b", nil)
	b.State("b").On("next", "c", nil).OnEnter(func(s *State) {
		_ = s.Chart().SendEvent("next")
	})
	b.State("c")
	c := mustEnter(t, b)

	require.NoError(t, c.SendEvent("go"))
	assert.Equal(t, []string{"m.c"}, c.ActiveStates())
}

func TestStaleSourceIsDropped(t *testing.T) {
	logger, buf := bufferLogger()
	rec := &recorder{}
	b := NewBuilder("m", "p", WithLogger(logger), WithObserver(rec))
	b.State("p").Parallel()
	b.State("p.left.a").On("go", "done", nil)
	b.State("p.right.b").On("go", "p.right.c", nil)
	b.State("p.right.c")
	b.State("done")
	c := mustEnter(t, b)

	require.NoError(t, c.SendEvent("go"))
	assert.Equal(t, []string{"m.done"}, c.ActiveStates())
	assert.Equal(t, 1, rec.dropped)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "dropping transition from inactive state")
	assert.Contains(t, buf.String(), "state=m.p.right.b")
	assertClean(t, c)
}

func TestGuardErrorIsFatalToDispatch(t *testing.T) {
	b := NewBuilder("m", "a")
	b.State("a").On("go", "b", Flag("mode"))
	b.State("b")
	c := mustEnter(t, b)

	require.NoError(t, c.SetProperty("mode", "fast"))
	err := c.SendEvent("go")
	require.ErrorIs(t, err, ErrTypeMismatch)
	var perr *PropertyError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "mode", perr.Property)
	assertClean(t, c)

	require.NoError(t, c.SetProperty("mode", true))
	require.NoError(t, c.SendEvent("go"))
	assert.Equal(t, []string{"m.b"}, c.ActiveStates())
}

func TestFailedDispatchKeepsLaterEvents(t *testing.T) {
	b := NewBuilder("m", "a")
	b.State("a").On("bad", "b", Flag("undefined")).On("good", "b", nil)
	b.State("b")
	c := mustEnter(t, b)

	err := c.Batch(func() error {
		if err := c.SendEvent("bad"); err != nil {
			return err
		}
		return c.SendEvent("good")
	})
	require.ErrorIs(t, err, ErrUndefinedProperty)
	assert.Equal(t, []string{"good"}, c.events)
	assert.Equal(t, []string{"m.a"}, c.ActiveStates())
	assertClean(t, c)

	require.NoError(t, c.SendEvent("noop"))
	assert.Equal(t, []string{"m.b"}, c.ActiveStates())
}

func TestAutomaticTransitions(t *testing.T) {
	props := NewPropertyStore()
	props.Set("temp", Int(20))
	b := NewBuilder("m", "boot", WithProperties(props))
	b.State("boot").Always("normal", nil)
	b.State("normal").Always("alarm", Number("temp", OpLess, 50))
	b.State("alarm").On("ack", "normal", nil)
	c := mustEnter(t, b)

	assert.Equal(t, []string{"m.normal"}, c.ActiveStates())

	require.NoError(t, c.SetProperty("temp", 45))
	assert.Equal(t, []string{"m.normal"}, c.ActiveStates())

	require.NoError(t, c.SetProperty("temp", 80))
	assert.Equal(t, []string{"m.alarm"}, c.ActiveStates())

	// Entering normal again re-evaluates its automatic transition at once.
	require.NoError(t, c.SendEvent("ack"))
	assert.Equal(t, []string{"m.alarm"}, c.ActiveStates())

	require.NoError(t, c.SetProperty("temp", 10))
	require.NoError(t, c.SendEvent("ack"))
	assert.Equal(t, []string{"m.normal"}, c.ActiveStates())
}

func TestAutomaticTransitionGuardErrorOnEnter(t *testing.T) {
	b := NewBuilder("m", "a")
	b.State("a").Always("b", Flag("ready"))
	b.State("b")
	c, err := b.Build()
	require.NoError(t, err)

	require.ErrorIs(t, c.Enter(), ErrUndefinedProperty)
	assertClean(t, c)
}

func TestMicrostepLimit(t *testing.T) {
	b := NewBuilder("m", "a", WithMaxMicrosteps(10))
	b.State("a").Always("b", nil)
	b.State("b").Always("a", nil)
	c, err := b.Build()
	require.NoError(t, err)

	require.ErrorIs(t, c.Enter(), ErrMicrostepLimit)
	assertClean(t, c)
}

func TestEntryAndExitOrder(t *testing.T) {
	var order []string
	track := func(b *Builder, name string) {
		b.State(name).
			OnEnter(func(s *State) { order = append(order, "enter "+s.Name()) }).
			OnExit(func(s *State) { order = append(order, "exit "+s.Name()) })
	}
	b := NewBuilder("m", "outer")
	track(b, "outer")
	track(b, "outer.inner")
	track(b, "outer.inner.leaf")
	track(b, "other")
	b.State("outer.inner.leaf").On("go", "other", nil)
	c := mustEnter(t, b)

	assert.Equal(t, []string{"enter outer", "enter inner", "enter leaf"}, order)
	order = nil
	require.NoError(t, c.SendEvent("go"))
	assert.Equal(t, []string{"exit leaf", "exit inner", "exit outer", "enter other"}, order)
}

func TestSelfTransitionReenters(t *testing.T) {
	entered := 0
	b := NewBuilder("m", "a")
	b.State("a").On("again", "a", nil).OnEnter(func(*State) { entered++ })
	c := mustEnter(t, b)

	require.NoError(t, c.SendEvent("again"))
	assert.Equal(t, 2, entered)
	assert.Equal(t, []string{"m.a"}, c.ActiveStates())
}

func TestTransitionIntoNestedTargetSkipsDefaults(t *testing.T) {
	b := NewBuilder("m", "off")
	b.State("off").On("deep", "on.mode.turbo", nil)
	b.State("on.mode.eco")
	b.State("on.mode.turbo")
	b.State("on.status")
	c := mustEnter(t, b)

	require.NoError(t, c.SendEvent("deep"))
	assert.Equal(t, []string{"m.on.mode.turbo"}, c.ActiveStates())
}

func TestRunTransitionFromHost(t *testing.T) {
	b := NewBuilder("m", "a")
	b.State("a")
	b.State("b")
	c := mustEnter(t, b)

	a, _ := c.Lookup("m.a")
	bID, _ := c.Lookup("m.b")
	tr := &Transition{Target: bID}
	require.NoError(t, c.RunTransition(tr, a))
	assert.Equal(t, []string{"m.b"}, c.ActiveStates())

	// a is no longer active, so the request is dropped.
	require.NoError(t, c.RunTransition(tr, a))
	assert.Equal(t, []string{"m.b"}, c.ActiveStates())

	require.ErrorIs(t, c.RunTransition(tr, StateID(99)), ErrUnknownState)
}

func TestPanickingCallbackReleasesGuards(t *testing.T) {
	boom := true
	b := NewBuilder("m", "a")
	b.State("a").On("go", "b", nil)
	b.State("b").On("back", "a", nil).OnEnter(func(*State) {
		if boom {
			boom = false
			panic("enter failed")
		}
	})
	c := mustEnter(t, b)

	assert.Panics(t, func() { _ = c.SendEvent("go") })
	assertClean(t, c)
	require.NoError(t, c.SendEvent("back"))
	require.NoError(t, c.SendEvent("go"))
	assert.Equal(t, []string{"m.b"}, c.ActiveStates())
}

func TestPanickingBatchKeepsQueuedWork(t *testing.T) {
	b := NewBuilder("m", "a")
	b.State("a").On("go", "b", nil)
	b.State("b")
	c := mustEnter(t, b)

	assert.Panics(t, func() {
		_ = c.Batch(func() error {
			_ = c.SendEvent("go")
			panic("host bug")
		})
	})
	assertClean(t, c)
	assert.Equal(t, []string{"m.a"}, c.ActiveStates())

	require.NoError(t, c.Batch(func() error { return nil }))
	assert.Equal(t, []string{"m.b"}, c.ActiveStates())
}

func TestPanickingEnterReleasesGuards(t *testing.T) {
	b := NewBuilder("m", "a")
	b.State("a").OnEnter(func(*State) { panic("enter failed") })
	c, err := b.Build()
	require.NoError(t, err)

	assert.Panics(t, func() { _ = c.Enter() })
	assertClean(t, c)
}
