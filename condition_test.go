package reactchart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWith(pairs ...any) *PropertyStore {
	p := NewPropertyStore()
	for i := 0; i < len(pairs); i += 2 {
		v, err := ValueOf(pairs[i+1])
		if err != nil {
			panic(err)
		}
		p.Set(pairs[i].(string), v)
	}
	return p
}

func TestVacuousConditions(t *testing.T) {
	props := NewPropertyStore()
	tests := []struct {
		name string
		cond *Condition
		want bool
	}{
		{"all without children", All(), true},
		{"any without children", Any(), true},
		{"invert without child", Invert(nil), false},
		{"nil guard", nil, true},
		{"unconditional", Unconditional(), true},
		{"invert of unconditional", Invert(Unconditional()), false},
		{"invert of empty all", Invert(All()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cond.Evaluate(props)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompositeConditions(t *testing.T) {
	props := storeWith("alive", true, "stunned", false, "hp", 3)

	ok, err := All(Flag("alive"), Invert(Flag("stunned"))).Evaluate(props)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Any(Flag("stunned"), Number("hp", OpGreater, 10)).Evaluate(props)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Any(Flag("stunned"), Number("hp", OpLess, 1)).Evaluate(props)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllStopsAtFirstFalseChild(t *testing.T) {
	props := storeWith("alive", false)

	// "missing" would fail with UndefinedProperty if it were evaluated.
	ok, err := All(Flag("alive"), Flag("missing")).Evaluate(props)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Any(Invert(Flag("alive")), Flag("missing")).Evaluate(props)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFlagOnStringIsTypeMismatch(t *testing.T) {
	props := storeWith("alive", "yes")

	_, err := Flag("alive").Evaluate(props)
	require.ErrorIs(t, err, ErrTypeMismatch)

	var perr *PropertyError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "alive", perr.Property)
	assert.Equal(t, KindString, perr.Got)
}

func TestNumberLiteralIsLeftOperand(t *testing.T) {
	props := storeWith("hp", 3, "speed", 2.5)
	tests := []struct {
		name string
		cond *Condition
		want bool
	}{
		{"5 < hp", Number("hp", OpLess, 5), false},
		{"5 > hp", Number("hp", OpGreater, 5), true},
		{"3 == hp", Number("hp", OpEqual, 3), true},
		{"3 != hp", Number("hp", OpNotEqual, 3), false},
		{"3 <= hp", Number("hp", OpLessEqual, 3), true},
		{"4 >= hp", Number("hp", OpGreaterEqual, int64(4)), true},
		{"2.0 < speed", Number("speed", OpLess, 2.0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cond.Evaluate(props)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumberKindMustMatch(t *testing.T) {
	props := storeWith("hp", 3)

	_, err := Number("hp", OpLess, 5.0).Evaluate(props)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestStringConditions(t *testing.T) {
	props := NewPropertyStore()
	props.Set("stance", Name("guard"))
	props.Set("label", String("north"))

	ok, err := NameEquals("stance", "guard").Evaluate(props)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = StringEquals("label", "south").Evaluate(props)
	require.NoError(t, err)
	assert.False(t, ok)

	props.Set("label", Int(1))
	_, err = StringEquals("label", "north").Evaluate(props)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestUndefinedProperty(t *testing.T) {
	_, err := Flag("ghost").Evaluate(NewPropertyStore())
	require.ErrorIs(t, err, ErrUndefinedProperty)
}

func TestExpressionCondition(t *testing.T) {
	props := storeWith("hp", 3, "alive", true, "stance", "guard")

	ok, err := Expression(`alive and hp < 5 and stance == "guard"`).Evaluate(props)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Expression("hp +").Evaluate(props)
	require.ErrorIs(t, err, ErrExpression)
	var eerr *ExpressionError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "hp +", eerr.Source)
	assert.Equal(t, 4, eerr.Pos)

	_, err = Expression("hp * 2").Evaluate(props)
	require.ErrorIs(t, err, ErrExpression)

	_, err = Expression("mana > 1").Evaluate(props)
	require.ErrorIs(t, err, ErrExpression)
}

func TestExpressionSeesCurrentProperties(t *testing.T) {
	props := storeWith("hp", 3)
	cond := Expression("hp >= 3")

	ok, err := cond.Evaluate(props)
	require.NoError(t, err)
	assert.True(t, ok)

	props.Set("hp", Int(1))
	ok, err = cond.Evaluate(props)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsSatisfiedNeedsChart(t *testing.T) {
	_, err := Unconditional().IsSatisfied(nil)
	require.ErrorIs(t, err, ErrNotReady)

	_, err = Unconditional().IsSatisfied(&State{})
	require.ErrorIs(t, err, ErrNotReady)
}

func TestConditionValidate(t *testing.T) {
	warnings := All(Invert(nil), Flag(""), Expression("")).Validate()
	assert.Len(t, warnings, 3)
	assert.Empty(t, All(Flag("a"), Number("b", OpEqual, 1)).Validate())
}

func TestConditionString(t *testing.T) {
	c := All(Flag("alive"), Invert(Number("hp", OpLess, 5)), Expression("x > 1"))
	assert.Equal(t, "all(alive, not(5 < hp), x > 1)", c.String())
}
