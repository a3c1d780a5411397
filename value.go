package reactchart

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the type tag of a property Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindName
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindName:
		return "name"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable typed property value.
// Names are interned identifiers; they compare equal to strings in String conditions
// but keep their own kind so hosts can tell them apart.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Name(s string) Value   { return Value{kind: KindName, s: s} }
func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// AsString returns the text of a string or name value.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString || v.kind == KindName
}

// Interface returns the native Go value: bool, int64, float64 or string (nil for KindNil).
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString, KindName:
		return v.s
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindName:
		return "&" + strconv.Quote(v.s)
	default:
		return "nil"
	}
}

// ValueOf converts a host value into a Value.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case nil:
		return Value{}, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return unsignedValue(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return unsignedValue(t)
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported property value %T", ErrTypeMismatch, x)
	}
}

func unsignedValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrTypeMismatch, u)
	}
	return Int(int64(u)), nil
}
