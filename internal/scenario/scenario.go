// Package scenario runs scripted sessions against the built-in charts. A scenario is a YAML
// document naming a chart, its starting properties, optional tengo scripts attached to
// state reactions, and a list of steps:
//
//	chart: door
//	properties:
//	  locked: true
//	steps:
//	  - event: open
//	  - expect: [door.closed]
//	  - set: {locked: false}
//	  - tick: 250ms
//	  - batch:
//	      - event: open
//	      - event: close
//	  - expect_properties: {locked: false}
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrExpectation is returned when an expect step does not hold.
var ErrExpectation = errors.New("expectation failed")

// Scenario is a decoded scenario file.
type Scenario struct {
	Name       string         `mapstructure:"name"`
	Chart      string         `mapstructure:"chart"`
	Properties map[string]any `mapstructure:"properties"`
	Scripts    []Script       `mapstructure:"scripts"`
	Steps      []Step         `mapstructure:"steps"`
}

// Script binds tengo source to one reaction of one state. On is one of "enter", "exit",
// "tick", "input" or "event:<name>".
type Script struct {
	State  string `mapstructure:"state"`
	On     string `mapstructure:"on"`
	Source string `mapstructure:"source"`
}

// Step is one action of a scenario. Exactly one field is set.
type Step struct {
	Event            string         `mapstructure:"event"`
	Set              map[string]any `mapstructure:"set"`
	Tick             time.Duration  `mapstructure:"tick"`
	Input            any            `mapstructure:"input"`
	Batch            []Step         `mapstructure:"batch"`
	Expect           []string       `mapstructure:"expect"`
	ExpectProperties map[string]any `mapstructure:"expect_properties"`
}

// Kind names the action the step performs, or "" if the step sets no field.
func (s Step) Kind() string {
	switch {
	case s.Event != "":
		return "event"
	case s.Set != nil:
		return "set"
	case s.Tick > 0:
		return "tick"
	case s.Input != nil:
		return "input"
	case s.Batch != nil:
		return "batch"
	case s.Expect != nil:
		return "expect"
	case s.ExpectProperties != nil:
		return "expect_properties"
	default:
		return ""
	}
}

func (s Step) fields() int {
	n := 0
	for _, set := range []bool{
		s.Event != "", s.Set != nil, s.Tick > 0, s.Input != nil,
		s.Batch != nil, s.Expect != nil, s.ExpectProperties != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario document and checks its shape.
func Parse(data []byte) (*Scenario, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	var sc Scenario
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      &sc,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Chart == "" {
		return errors.New("scenario has no chart")
	}
	for i, s := range sc.Scripts {
		if s.State == "" || s.Source == "" {
			return fmt.Errorf("script %d: state and source are required", i)
		}
		if _, _, err := parseTrigger(s.On); err != nil {
			return fmt.Errorf("script %d: %w", i, err)
		}
	}
	return validateSteps(sc.Steps, "step")
}

func validateSteps(steps []Step, prefix string) error {
	for i, s := range steps {
		where := fmt.Sprintf("%s %d", prefix, i+1)
		if s.fields() != 1 {
			return fmt.Errorf("%s: exactly one action is required", where)
		}
		switch s.Kind() {
		case "batch":
			for _, inner := range s.Batch {
				if k := inner.Kind(); k == "batch" || k == "expect" || k == "expect_properties" {
					return fmt.Errorf("%s: %s is not allowed inside a batch", where, k)
				}
			}
			if err := validateSteps(s.Batch, where+" batch"); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseTrigger(on string) (trigger, event string, err error) {
	switch on {
	case "enter", "exit", "tick", "input":
		return on, "", nil
	}
	if name, ok := strings.CutPrefix(on, "event:"); ok && name != "" {
		return "event", name, nil
	}
	return "", "", fmt.Errorf("unknown trigger %q", on)
}
