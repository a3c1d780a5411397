package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/comalice/reactchart"
	"github.com/comalice/reactchart/internal/catalog"
)

// Result summarizes a finished run.
type Result struct {
	Steps      int
	Active     []string
	Properties map[string]any
}

// Runner executes scenarios.
type Runner struct {
	logger *slog.Logger
	opts   []reactchart.Option
}

// NewRunner creates a runner. Options are passed to every chart it builds.
func NewRunner(logger *slog.Logger, opts ...reactchart.Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, opts: opts}
}

// Run builds the scenario's chart, binds its scripts, enters it and performs the steps.
// It stops at the first failing step.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	opts := append([]reactchart.Option{reactchart.WithLogger(r.logger)}, r.opts...)
	c, err := catalog.Build(sc.Chart, opts...)
	if err != nil {
		return nil, err
	}
	for name, v := range sc.Properties {
		val, err := reactchart.ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		c.Properties().Set(name, val)
	}

	var scriptErrs []error
	for i, s := range sc.Scripts {
		id, ok := c.Lookup(s.State)
		if !ok {
			return nil, fmt.Errorf("script %d: state %q: %w", i, s.State, reactchart.ErrUnknownState)
		}
		h, err := compileScript(c.State(id), s.Source, &scriptErrs)
		if err != nil {
			return nil, err
		}
		trigger, event, _ := parseTrigger(s.On)
		h.bind(trigger, event)
	}

	res := &Result{}
	check := func(err error) error {
		err = errors.Join(append([]error{err}, scriptErrs...)...)
		scriptErrs = scriptErrs[:0]
		return err
	}

	if err := check(c.Enter()); err != nil {
		return nil, fmt.Errorf("enter: %w", err)
	}
	r.logger.Info("scenario started", "scenario", sc.Name, "chart", c.Name(), "active", c.ActiveStates())

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := check(r.step(c, step)); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Kind(), err)
		}
		res.Steps++
		r.logger.Debug("step done", "step", i+1, "kind", step.Kind(), "active", c.ActiveStates())
	}

	res.Active = c.ActiveStates()
	res.Properties = c.Properties().Snapshot().Native()
	return res, nil
}

func (r *Runner) step(c *reactchart.Chart, s Step) error {
	switch s.Kind() {
	case "event":
		return c.SendEvent(s.Event)
	case "set":
		var errs []error
		for _, name := range sortedKeys(s.Set) {
			errs = append(errs, c.SetProperty(name, s.Set[name]))
		}
		return errors.Join(errs...)
	case "tick":
		return c.Process(s.Tick)
	case "input":
		return c.Input(s.Input)
	case "batch":
		return c.Batch(func() error {
			var errs []error
			for _, inner := range s.Batch {
				errs = append(errs, r.step(c, inner))
			}
			return errors.Join(errs...)
		})
	case "expect":
		if got := c.ActiveStates(); !slices.Equal(got, s.Expect) {
			return fmt.Errorf("active states %v, want %v: %w", got, s.Expect, ErrExpectation)
		}
		return nil
	case "expect_properties":
		for _, name := range sortedKeys(s.ExpectProperties) {
			want, err := reactchart.ValueOf(s.ExpectProperties[name])
			if err != nil {
				return fmt.Errorf("property %q: %w", name, err)
			}
			got, err := c.Property(name)
			if err != nil {
				return err
			}
			if got != want {
				return fmt.Errorf("property %q is %s, want %s: %w", name, got, want, ErrExpectation)
			}
		}
		return nil
	}
	return fmt.Errorf("empty step")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
