// Package catalog holds the built-in charts used by the command line tool and the examples.
package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/comalice/reactchart"
)

// Factory returns a builder for a fresh chart. Options are applied after the chart's
// default properties, so a caller's WithProperties replaces them.
type Factory func(opts ...reactchart.Option) *reactchart.Builder

// Entry describes one built-in chart.
type Entry struct {
	Name        string
	Description string
	New         Factory
}

var registry = map[string]Entry{
	"door":    {Name: "door", Description: "door with a lock flag guarding the open transition", New: Door},
	"traffic": {Name: "traffic", Description: "tick-driven traffic light with a fault mode and history", New: Traffic},
	"unit":    {Name: "unit", Description: "game unit with parallel movement and stance regions", New: Unit},
}

// Names returns the names of the built-in charts, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the entry registered under name.
func Lookup(name string) (Entry, bool) {
	e, ok := registry[name]
	return e, ok
}

// Build builds the named chart.
func Build(name string, opts ...reactchart.Option) (*reactchart.Chart, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown chart %q", name)
	}
	return e.New(opts...).Build()
}

func withDefaults(props map[string]reactchart.Value, opts []reactchart.Option) []reactchart.Option {
	store := reactchart.NewPropertyStore()
	for name, v := range props {
		store.Set(name, v)
	}
	return append([]reactchart.Option{reactchart.WithProperties(store)}, opts...)
}

// Door is a door that opens only while the "locked" property is false.
//
//	door
//	├── closed   open [not locked] → opened, lock → locked
//	├── opened   close → closed
//	└── locked   unlock → closed
func Door(opts ...reactchart.Option) *reactchart.Builder {
	opts = withDefaults(map[string]reactchart.Value{"locked": reactchart.Bool(false)}, opts)
	b := reactchart.NewBuilder("door", "closed", opts...)
	b.State("closed").
		On("open", "opened", reactchart.Invert(reactchart.Flag("locked"))).
		On("lock", "locked", nil)
	b.State("opened").On("close", "closed", nil)
	b.State("locked").On("unlock", "closed", nil)
	return b
}

// Traffic cycles red, green and yellow, advancing every "period" seconds of tick time.
// A "fault" event switches to flashing; "repair" resumes the light that was showing.
func Traffic(opts ...reactchart.Option) *reactchart.Builder {
	opts = withDefaults(map[string]reactchart.Value{"period": reactchart.Float(1)}, opts)
	b := reactchart.NewBuilder("traffic", "running", opts...)

	var elapsed time.Duration
	b.State("running").Compound("red").
		On("fault", "flashing", nil).
		OnEnter(func(*reactchart.State) { elapsed = 0 }).
		Setup(func(s *reactchart.State) {
			s.Tick().Connect(func(d time.Duration) {
				elapsed += d
				if elapsed < period(s.Chart()) {
					return
				}
				elapsed = 0
				_ = s.Chart().SendEvent("timer")
			})
		})
	b.State("running.red").On("timer", "green", nil)
	b.State("running.green").On("timer", "yellow", nil)
	b.State("running.yellow").On("timer", "red", nil)
	b.State("running.h").History()
	b.State("flashing").On("repair", "running.h", nil)
	return b
}

func period(c *reactchart.Chart) time.Duration {
	v, err := c.Property("period")
	if err != nil {
		return time.Second
	}
	secs, ok := v.AsFloat()
	if !ok || secs <= 0 {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}

// Unit is a game unit. While alive it moves and guards independently; it dies as soon as
// "hp" drops to zero and may be revived once hp is positive again.
func Unit(opts ...reactchart.Option) *reactchart.Builder {
	opts = withDefaults(map[string]reactchart.Value{
		"hp":      reactchart.Int(10),
		"stamina": reactchart.Int(5),
	}, opts)
	b := reactchart.NewBuilder("unit", "alive", opts...)
	b.State("alive").Parallel().Always("dead", reactchart.Expression("hp <= 0"))
	b.State("alive.move.idle").On("walk", "walking", nil)
	b.State("alive.move.walking").On("stop", "idle", nil)
	b.State("alive.stance.normal").On("guard", "guarding", reactchart.Number("stamina", reactchart.OpLess, 0))
	b.State("alive.stance.guarding").On("relax", "normal", nil)
	b.State("dead").On("revive", "alive", reactchart.Expression("hp > 0"))
	return b
}
