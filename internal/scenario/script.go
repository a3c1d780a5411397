package scenario

import (
	"errors"
	"fmt"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/comalice/reactchart"
)

// hostScript is a compiled tengo program attached to one state reaction. Scripts see the
// globals "state" (the state's path), "delta" (tick seconds) and "input", and the functions
// send_event(name), set_property(name, value), property(name) and active(path).
// property returns undefined for a property that has never been set.
type hostScript struct {
	compiled *tengo.Compiled
	state    *reactchart.State
	errs     *[]error
}

func compileScript(s *reactchart.State, src string, errs *[]error) (*hostScript, error) {
	script := tengo.NewScript([]byte(src))
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	globals := map[string]any{
		"state": s.Path(),
		"delta": 0.0,
		"input": nil,
	}
	for name, fn := range hostFunctions(s) {
		globals[name] = fn
	}
	for name, v := range globals {
		if err := script.Add(name, v); err != nil {
			return nil, fmt.Errorf("script for %s: global %q: %w", s.Path(), name, err)
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile script for %s: %w", s.Path(), err)
	}
	return &hostScript{compiled: compiled, state: s, errs: errs}, nil
}

func hostFunctions(s *reactchart.State) map[string]*tengo.UserFunction {
	return map[string]*tengo.UserFunction{
		"send_event": {Name: "send_event", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			name, err := stringArg(args[0], "name")
			if err != nil {
				return nil, err
			}
			if err := s.Chart().SendEvent(name); err != nil {
				return nil, err
			}
			return tengo.TrueValue, nil
		}},
		"set_property": {Name: "set_property", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 2 {
				return nil, tengo.ErrWrongNumArguments
			}
			name, err := stringArg(args[0], "name")
			if err != nil {
				return nil, err
			}
			if err := s.Chart().SetProperty(name, tengo.ToInterface(args[1])); err != nil {
				return nil, err
			}
			return tengo.TrueValue, nil
		}},
		"property": {Name: "property", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			name, err := stringArg(args[0], "name")
			if err != nil {
				return nil, err
			}
			v, err := s.Chart().Property(name)
			if errors.Is(err, reactchart.ErrUndefinedProperty) {
				return tengo.UndefinedValue, nil
			}
			if err != nil {
				return nil, err
			}
			return tengo.FromInterface(v.Interface())
		}},
		"active": {Name: "active", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			path, err := stringArg(args[0], "path")
			if err != nil {
				return nil, err
			}
			if s.Chart().IsActive(path) {
				return tengo.TrueValue, nil
			}
			return tengo.FalseValue, nil
		}},
	}
}

func stringArg(arg tengo.Object, name string) (string, error) {
	str, ok := arg.(*tengo.String)
	if !ok || str.Value == "" {
		return "", tengo.ErrInvalidArgumentType{Name: name, Expected: "non-empty string", Found: arg.TypeName()}
	}
	return str.Value, nil
}

// run executes the script. Errors are collected rather than returned because reactions
// have no error channel.
func (h *hostScript) run(delta time.Duration, input any) {
	err := h.compiled.Set("delta", delta.Seconds())
	if err == nil {
		err = h.compiled.Set("input", input)
	}
	if err == nil {
		err = h.compiled.Run()
	}
	if err != nil {
		*h.errs = append(*h.errs, fmt.Errorf("script for %s: %w", h.state.Path(), err))
	}
}

// bind attaches the script to the reaction named by trigger.
func (h *hostScript) bind(trigger, event string) {
	s := h.state
	switch trigger {
	case "enter":
		s.OnEnter(func(*reactchart.State) { h.run(0, nil) })
	case "exit":
		s.OnExit(func(*reactchart.State) { h.run(0, nil) })
	case "tick":
		s.Tick().Connect(func(d time.Duration) { h.run(d, nil) })
	case "input":
		s.Input().Connect(func(ev any) { h.run(0, ev) })
	case "event":
		s.Event(event).Connect(func() { h.run(0, nil) })
	}
}
