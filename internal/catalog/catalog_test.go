package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/reactchart"
	"github.com/comalice/reactchart/internal/logging"
)

func enter(t *testing.T, name string, opts ...reactchart.Option) *reactchart.Chart {
	t.Helper()
	opts = append(opts, reactchart.WithLogger(logging.NewNop()))
	c, err := Build(name, opts...)
	require.NoError(t, err)
	require.NoError(t, c.Enter())
	return c
}

func TestNamesAndLookup(t *testing.T) {
	assert.Equal(t, []string{"door", "traffic", "unit"}, Names())

	e, ok := Lookup("door")
	require.True(t, ok)
	assert.Equal(t, "door", e.Name)
	assert.NotEmpty(t, e.Description)

	_, err := Build("nope")
	require.Error(t, err)
}

func TestEveryChartBuilds(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c := enter(t, name)
			assert.NotEmpty(t, c.ActiveStates())
		})
	}
}

func TestDoor(t *testing.T) {
	c := enter(t, "door")
	require.NoError(t, c.SendEvent("open"))
	assert.Equal(t, []string{"door.opened"}, c.ActiveStates())
	require.NoError(t, c.SendEvent("close"))

	require.NoError(t, c.SetProperty("locked", true))
	require.NoError(t, c.SendEvent("open"))
	assert.Equal(t, []string{"door.closed"}, c.ActiveStates())
}

func TestTrafficAdvancesOnTicks(t *testing.T) {
	c := enter(t, "traffic")
	require.NoError(t, c.SetProperty("period", 0.5))

	require.NoError(t, c.Process(300*time.Millisecond))
	assert.Equal(t, []string{"traffic.running.red"}, c.ActiveStates())
	require.NoError(t, c.Process(300*time.Millisecond))
	assert.Equal(t, []string{"traffic.running.green"}, c.ActiveStates())

	require.NoError(t, c.SendEvent("fault"))
	assert.Equal(t, []string{"traffic.flashing"}, c.ActiveStates())
	require.NoError(t, c.Process(time.Second))
	assert.Equal(t, []string{"traffic.flashing"}, c.ActiveStates())

	require.NoError(t, c.SendEvent("repair"))
	assert.Equal(t, []string{"traffic.running.green"}, c.ActiveStates())
}

func TestUnitDiesAndRevives(t *testing.T) {
	c := enter(t, "unit")
	assert.Equal(t, []string{"unit.alive.move.idle", "unit.alive.stance.normal"}, c.ActiveStates())

	require.NoError(t, c.SendEvent("walk"))
	require.NoError(t, c.SendEvent("guard"))
	assert.Equal(t, []string{"unit.alive.move.walking", "unit.alive.stance.guarding"}, c.ActiveStates())

	require.NoError(t, c.SetProperty("hp", 0))
	assert.Equal(t, []string{"unit.dead"}, c.ActiveStates())

	require.NoError(t, c.SendEvent("revive"))
	assert.Equal(t, []string{"unit.dead"}, c.ActiveStates())

	require.NoError(t, c.SetProperty("hp", 3))
	require.NoError(t, c.SendEvent("revive"))
	assert.Equal(t, []string{"unit.alive.move.idle", "unit.alive.stance.normal"}, c.ActiveStates())
}

func TestUnitCannotGuardWhenExhausted(t *testing.T) {
	c := enter(t, "unit")
	require.NoError(t, c.SetProperty("stamina", 0))
	require.NoError(t, c.SendEvent("guard"))
	assert.Equal(t, []string{"unit.alive.move.idle", "unit.alive.stance.normal"}, c.ActiveStates())
}
