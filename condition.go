package reactchart

import (
	"errors"
	"fmt"

	"github.com/comalice/reactchart/internal/expr"
)

// ConditionKind tags the variant of a Condition.
type ConditionKind uint8

const (
	CondUnconditional ConditionKind = iota
	CondAll
	CondAny
	CondInvert
	CondFlag
	CondString
	CondNumber
	CondExpression
)

var conditionKindNames = [...]string{
	CondUnconditional: "unconditional",
	CondAll:           "all",
	CondAny:           "any",
	CondInvert:        "invert",
	CondFlag:          "flag",
	CondString:        "string",
	CondNumber:        "number",
	CondExpression:    "expression",
}

func (k ConditionKind) String() string {
	if int(k) < len(conditionKindNames) {
		return conditionKindNames[k]
	}
	return fmt.Sprintf("condition(%d)", k)
}

// CompareOp selects the comparison of a Number condition.
type CompareOp uint8

const (
	OpEqual CompareOp = iota
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
)

func (op CompareOp) String() string {
	switch op {
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	}
	return fmt.Sprintf("op(%d)", op)
}

// Condition is a pure guard predicate over the chart's properties.
// A nil *Condition is Unconditional.
type Condition struct {
	Kind     ConditionKind
	Children []*Condition // All and Any; Invert uses the first child
	Property string       // Flag, String, Number
	Literal  Value        // String and Number
	Op       CompareOp    // Number
	Text     string       // Expression source
}

func Unconditional() *Condition {
	return &Condition{Kind: CondUnconditional}
}

func All(children ...*Condition) *Condition {
	return &Condition{Kind: CondAll, Children: children}
}

func Any(children ...*Condition) *Condition {
	return &Condition{Kind: CondAny, Children: children}
}

// Invert negates child. Invert(nil) is never satisfied.
func Invert(child *Condition) *Condition {
	c := &Condition{Kind: CondInvert}
	if child != nil {
		c.Children = []*Condition{child}
	}
	return c
}

// Flag is satisfied when the boolean property is true.
func Flag(property string) *Condition {
	return &Condition{Kind: CondFlag, Property: property}
}

// StringEquals compares a string or name property with literal.
func StringEquals(property, literal string) *Condition {
	return &Condition{Kind: CondString, Property: property, Literal: String(literal)}
}

// NameEquals is StringEquals with a name literal.
func NameEquals(property, literal string) *Condition {
	return &Condition{Kind: CondString, Property: property, Literal: Name(literal)}
}

// Number compares literal (left operand) against the numeric property (right operand).
// The property must have the literal's kind.
func Number[T int | int64 | float64](property string, op CompareOp, literal T) *Condition {
	c := &Condition{Kind: CondNumber, Property: property, Op: op}
	switch l := any(literal).(type) {
	case int:
		c.Literal = Int(int64(l))
	case int64:
		c.Literal = Int(l)
	case float64:
		c.Literal = Float(l)
	}
	return c
}

// Expression is satisfied when src evaluates to true. It is parsed on every evaluation.
func Expression(src string) *Condition {
	return &Condition{Kind: CondExpression, Text: src}
}

// IsSatisfied evaluates the condition against the properties of source's chart.
func (c *Condition) IsSatisfied(source *State) (bool, error) {
	if source == nil || source.chart == nil {
		return false, ErrNotReady
	}
	return c.eval(source.chart.props)
}

// Evaluate evaluates the condition against props directly.
func (c *Condition) Evaluate(props *PropertyStore) (bool, error) {
	return c.eval(props)
}

func (c *Condition) eval(props *PropertyStore) (bool, error) {
	if c == nil {
		return true, nil
	}
	switch c.Kind {
	case CondUnconditional:
		return true, nil
	case CondAll:
		for _, child := range c.Children {
			ok, err := child.eval(props)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case CondAny:
		if len(c.Children) == 0 {
			return true, nil
		}
		for _, child := range c.Children {
			ok, err := child.eval(props)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case CondInvert:
		if len(c.Children) == 0 || c.Children[0] == nil {
			return false, nil
		}
		ok, err := c.Children[0].eval(props)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case CondFlag:
		v, err := lookup(props, c.Property, "bool", KindBool)
		if err != nil {
			return false, err
		}
		b, _ := v.AsBool()
		return b, nil
	case CondString:
		v, err := lookup(props, c.Property, "string or name", KindString, KindName)
		if err != nil {
			return false, err
		}
		s, _ := v.AsString()
		lit, _ := c.Literal.AsString()
		return s == lit, nil
	case CondNumber:
		v, err := lookup(props, c.Property, c.Literal.Kind().String(), c.Literal.Kind())
		if err != nil {
			return false, err
		}
		return compareNumber(c.Op, c.Literal, v), nil
	case CondExpression:
		return evalExpression(c.Text, props)
	}
	return false, fmt.Errorf("unknown condition kind %s", c.Kind)
}

func lookup(props *PropertyStore, name, want string, kinds ...Kind) (Value, error) {
	v, err := props.Get(name)
	if err != nil {
		return Value{}, err
	}
	for _, k := range kinds {
		if v.Kind() == k {
			return v, nil
		}
	}
	return Value{}, &PropertyError{Property: name, Want: want, Got: v.Kind(), Err: ErrTypeMismatch}
}

func compareNumber(op CompareOp, lit, prop Value) bool {
	var c int
	if lit.Kind() == KindInt {
		l, _ := lit.AsInt()
		p, _ := prop.AsInt()
		c = compare(l, p)
	} else {
		l, _ := lit.AsFloat()
		p, _ := prop.AsFloat()
		c = compare(l, p)
	}
	switch op {
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	case OpLess:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	}
	return false
}

func compare[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type snapshotEnv struct{ snap Snapshot }

func (e snapshotEnv) Lookup(name string) (any, bool) {
	v, ok := e.snap.Lookup(name)
	if !ok || v.IsNil() {
		return nil, false
	}
	return v.Interface(), true
}

func evalExpression(src string, props *PropertyStore) (bool, error) {
	ok, err := expr.EvalBool(src, snapshotEnv{snap: props.Snapshot()})
	if err != nil {
		var diag *expr.Error
		if errors.As(err, &diag) {
			return false, &ExpressionError{Source: src, Pos: diag.Pos, Msg: diag.Msg}
		}
		return false, &ExpressionError{Source: src, Msg: err.Error()}
	}
	return ok, nil
}

// Validate reports non-fatal authoring problems in the condition tree.
func (c *Condition) Validate() []string {
	if c == nil {
		return nil
	}
	var warnings []string
	switch c.Kind {
	case CondAll, CondAny:
		for _, child := range c.Children {
			warnings = append(warnings, child.Validate()...)
		}
	case CondInvert:
		if len(c.Children) == 0 || c.Children[0] == nil {
			warnings = append(warnings, "invert condition has no operand and will never be satisfied")
		} else {
			warnings = append(warnings, c.Children[0].Validate()...)
		}
	case CondFlag, CondString, CondNumber:
		if c.Property == "" {
			warnings = append(warnings, fmt.Sprintf("%s condition has no property name", c.Kind))
		}
	case CondExpression:
		if c.Text == "" {
			warnings = append(warnings, "expression condition has empty text")
		}
	}
	return warnings
}

func (c *Condition) String() string {
	if c == nil {
		return "unconditional"
	}
	switch c.Kind {
	case CondFlag:
		return c.Property
	case CondString:
		return fmt.Sprintf("%s == %s", c.Property, c.Literal)
	case CondNumber:
		return fmt.Sprintf("%s %s %s", c.Literal, c.Op, c.Property)
	case CondExpression:
		return c.Text
	case CondInvert:
		if len(c.Children) == 0 {
			return "not()"
		}
		return "not(" + c.Children[0].String() + ")"
	case CondAll, CondAny:
		s := c.Kind.String() + "("
		for i, child := range c.Children {
			if i > 0 {
				s += ", "
			}
			s += child.String()
		}
		return s + ")"
	}
	return c.Kind.String()
}
