// Package benchmarks provides chart generators shared by the benchmark tests.
package benchmarks

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/reactchart"
	"github.com/comalice/reactchart/internal/logging"
)

func quiet(opts []reactchart.Option) []reactchart.Option {
	return append([]reactchart.Option{reactchart.WithLogger(logging.NewNop())}, opts...)
}

// GenFlat creates a flat chart with n simple states cycling on "tick".
func GenFlat(n int, opts ...reactchart.Option) *reactchart.Builder {
	if n < 1 {
		n = 1
	}
	b := reactchart.NewBuilder(fmt.Sprintf("flat_%d", n), "s0", quiet(opts)...)
	for i := 0; i < n; i++ {
		b.State(fmt.Sprintf("s%d", i)).On("tick", fmt.Sprintf("s%d", (i+1)%n), nil)
	}
	return b
}

// GenDeep creates depth nested compound states with two leaves flipping on "tick" at the
// bottom, so every transition's common ancestor is the innermost compound.
func GenDeep(depth int, opts ...reactchart.Option) *reactchart.Builder {
	if depth < 1 {
		depth = 1
	}
	parts := make([]string, depth)
	for i := range parts {
		parts[i] = fmt.Sprintf("c%d", i)
	}
	path := strings.Join(parts, ".")
	b := reactchart.NewBuilder(fmt.Sprintf("deep_%d", depth), "", quiet(opts)...)
	b.State(path + ".leaf1").On("tick", "leaf2", nil)
	b.State(path + ".leaf2").On("tick", "leaf1", nil)
	return b
}

// GenWide creates one state with n guarded "tick" transitions of which only the last holds.
func GenWide(n int, opts ...reactchart.Option) *reactchart.Builder {
	if n < 1 {
		n = 1
	}
	props := reactchart.NewPropertyStore()
	props.Set("pick", reactchart.Int(int64(n-1)))
	opts = append([]reactchart.Option{reactchart.WithProperties(props)}, opts...)

	b := reactchart.NewBuilder(fmt.Sprintf("wide_%d", n), "main", quiet(opts)...)
	main := b.State("main")
	for i := 0; i < n; i++ {
		target := fmt.Sprintf("target%d", i)
		main.On("tick", target, reactchart.Number("pick", reactchart.OpEqual, i))
		b.State(target).On("tick", "main", nil)
	}
	return b
}

// GenParallel creates a parallel root with n regions of two leaves each.
func GenParallel(n int, opts ...reactchart.Option) *reactchart.Builder {
	b := reactchart.NewBuilder(fmt.Sprintf("parallel_%d", n), "", quiet(opts)...)
	b.Root().Parallel()
	for i := 0; i < n; i++ {
		b.State(fmt.Sprintf("r%d.on", i)).On("tick", "off", nil)
		b.State(fmt.Sprintf("r%d.off", i)).On("tick", "on", nil)
	}
	return b
}

// GenScenarioYAML renders a door scenario with n open/close round trips.
func GenScenarioYAML(n int) []byte {
	steps := make([]map[string]any, 0, 2*n+1)
	for i := 0; i < n; i++ {
		steps = append(steps, map[string]any{"event": "open"}, map[string]any{"event": "close"})
	}
	steps = append(steps, map[string]any{"expect": []string{"door.closed"}})
	data, err := yaml.Marshal(map[string]any{"chart": "door", "steps": steps})
	if err != nil {
		panic(err)
	}
	return data
}
