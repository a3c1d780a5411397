package expr

import (
	"fmt"
	"math"
)

// Env binds free variables. Values must be bool, int64, float64 or string.
type Env interface {
	Lookup(name string) (any, bool)
}

// MapEnv is an Env backed by a map.
type MapEnv map[string]any

func (m MapEnv) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Eval parses src and evaluates it against env.
func Eval(src string, env Env) (any, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Evaluate(n, env)
}

// EvalBool is Eval restricted to boolean results.
func EvalBool(src string, env Env) (bool, error) {
	v, err := Eval(src, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, errorf(0, "expression yields %s, not bool", typeName(v))
	}
	return b, nil
}

// Evaluate evaluates a parsed tree against env.
func Evaluate(n Node, env Env) (any, error) {
	switch n := n.(type) {
	case *literal:
		return n.val, nil
	case *ident:
		v, ok := env.Lookup(n.name)
		if !ok {
			return nil, errorf(n.pos, "undefined identifier %q", n.name)
		}
		switch v.(type) {
		case bool, int64, float64, string:
			return v, nil
		default:
			return nil, errorf(n.pos, "identifier %q has unsupported type %T", n.name, v)
		}
	case *unary:
		x, err := Evaluate(n.x, env)
		if err != nil {
			return nil, err
		}
		switch n.op {
		case tokNot:
			b, ok := x.(bool)
			if !ok {
				return nil, errorf(n.pos, "operator not requires bool, got %s", typeName(x))
			}
			return !b, nil
		case tokMinus:
			switch x := x.(type) {
			case int64:
				return -x, nil
			case float64:
				return -x, nil
			}
			return nil, errorf(n.pos, "operator - requires a number, got %s", typeName(x))
		}
	case *binary:
		if n.op == tokAnd || n.op == tokOr {
			return logical(n, env)
		}
		x, err := Evaluate(n.x, env)
		if err != nil {
			return nil, err
		}
		y, err := Evaluate(n.y, env)
		if err != nil {
			return nil, err
		}
		switch n.op {
		case tokEq, tokNe:
			eq, err := equal(n.pos, x, y)
			if err != nil {
				return nil, err
			}
			return eq == (n.op == tokEq), nil
		case tokLt, tokLe, tokGt, tokGe:
			return order(n.pos, n.op, x, y)
		default:
			return arith(n.pos, n.op, x, y)
		}
	}
	return nil, fmt.Errorf("expr: unknown node %T", n)
}

func logical(n *binary, env Env) (any, error) {
	x, err := Evaluate(n.x, env)
	if err != nil {
		return nil, err
	}
	xb, ok := x.(bool)
	if !ok {
		return nil, errorf(n.pos, "operator %s requires bool operands, got %s", n.op, typeName(x))
	}
	if n.op == tokAnd && !xb {
		return false, nil
	}
	if n.op == tokOr && xb {
		return true, nil
	}
	y, err := Evaluate(n.y, env)
	if err != nil {
		return nil, err
	}
	yb, ok := y.(bool)
	if !ok {
		return nil, errorf(n.pos, "operator %s requires bool operands, got %s", n.op, typeName(y))
	}
	return yb, nil
}

func equal(pos int, x, y any) (bool, error) {
	if xf, yf, ok := numbers(x, y); ok {
		if xi, ok := x.(int64); ok {
			if yi, ok := y.(int64); ok {
				return xi == yi, nil
			}
		}
		return xf == yf, nil
	}
	switch x := x.(type) {
	case bool:
		if y, ok := y.(bool); ok {
			return x == y, nil
		}
	case string:
		if y, ok := y.(string); ok {
			return x == y, nil
		}
	}
	return false, errorf(pos, "cannot compare %s with %s", typeName(x), typeName(y))
}

func order(pos int, op tokenKind, x, y any) (any, error) {
	var c int
	if xi, ok := x.(int64); ok {
		if yi, ok := y.(int64); ok {
			c = cmp3(xi, yi)
			return holds(op, c), nil
		}
	}
	if xf, yf, ok := numbers(x, y); ok {
		c = cmp3(xf, yf)
		return holds(op, c), nil
	}
	if xs, ok := x.(string); ok {
		if ys, ok := y.(string); ok {
			c = cmp3(xs, ys)
			return holds(op, c), nil
		}
	}
	return nil, errorf(pos, "operator %s not defined on %s and %s", op, typeName(x), typeName(y))
}

func holds(op tokenKind, c int) bool {
	switch op {
	case tokLt:
		return c < 0
	case tokLe:
		return c <= 0
	case tokGt:
		return c > 0
	default:
		return c >= 0
	}
}

func cmp3[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func arith(pos int, op tokenKind, x, y any) (any, error) {
	if op == tokPlus {
		if xs, ok := x.(string); ok {
			if ys, ok := y.(string); ok {
				return xs + ys, nil
			}
		}
	}
	xi, xInt := x.(int64)
	yi, yInt := y.(int64)
	if xInt && yInt {
		switch op {
		case tokPlus:
			return xi + yi, nil
		case tokMinus:
			return xi - yi, nil
		case tokStar:
			return xi * yi, nil
		case tokSlash, tokPercent:
			if yi == 0 {
				return nil, errorf(pos, "integer division by zero")
			}
			if op == tokSlash {
				return xi / yi, nil
			}
			return xi % yi, nil
		}
	}
	xf, yf, ok := numbers(x, y)
	if !ok {
		return nil, errorf(pos, "operator %s not defined on %s and %s", op, typeName(x), typeName(y))
	}
	switch op {
	case tokPlus:
		return xf + yf, nil
	case tokMinus:
		return xf - yf, nil
	case tokStar:
		return xf * yf, nil
	case tokSlash:
		return xf / yf, nil
	default:
		return math.Mod(xf, yf), nil
	}
}

// numbers widens two numeric operands to float64.
func numbers(x, y any) (float64, float64, bool) {
	xf, ok := toFloat(x)
	if !ok {
		return 0, 0, false
	}
	yf, ok := toFloat(y)
	if !ok {
		return 0, 0, false
	}
	return xf, yf, true
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case nil:
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
