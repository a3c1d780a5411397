package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/reactchart"
	"github.com/comalice/reactchart/internal/logging"
)

func TestCollectorCountsActivity(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	col, err := New(reg)
	require.NoError(t, err)

	b := reactchart.NewBuilder("door", "closed",
		reactchart.WithName("door"),
		reactchart.WithObserver(col),
		reactchart.WithLogger(logging.NewNop()),
	)
	b.State("closed").On("open", "opened", nil)
	b.State("opened").On("close", "closed", nil)
	c, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, c.Enter())

	require.NoError(t, c.SendEvent("open"))
	require.NoError(t, c.SendEvent("close"))
	require.NoError(t, c.SendEvent("open"))
	require.NoError(t, c.SetProperty("locked", false))

	assert.Equal(t, 2.0, testutil.ToFloat64(col.events.WithLabelValues("door", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(col.events.WithLabelValues("door", "close")))
	assert.Equal(t, 1.0, testutil.ToFloat64(col.passes.WithLabelValues("door")))
	assert.Equal(t, 3.0, testutil.ToFloat64(col.transitions.WithLabelValues("door", "taken")))
	assert.Equal(t, 2.0, testutil.ToFloat64(col.entries.WithLabelValues("door", "door.closed")))

	expected := `
# HELP reactchart_state_active 1 while the state is active, 0 otherwise
# TYPE reactchart_state_active gauge
reactchart_state_active{chart="door",state="door"} 1
reactchart_state_active{chart="door",state="door.closed"} 0
reactchart_state_active{chart="door",state="door.opened"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "reactchart_state_active"))
}

func TestCollectorCountsDroppedTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	col := MustNew(reg)

	b := reactchart.NewBuilder("m", "p",
		reactchart.WithObserver(col),
		reactchart.WithLogger(logging.NewNop()),
	)
	b.State("p").Parallel()
	b.State("p.left.a").On("go", "done", nil)
	b.State("p.right.b").On("go", "p.right.c", nil)
	b.State("p.right.c")
	b.State("done")
	c, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, c.Enter())
	require.NoError(t, c.SendEvent("go"))

	assert.Equal(t, 1.0, testutil.ToFloat64(col.transitions.WithLabelValues("chart", "dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(col.transitions.WithLabelValues("chart", "taken")))
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}
