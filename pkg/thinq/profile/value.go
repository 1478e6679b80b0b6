package profile

import (
	"encoding/json"
	"fmt"
	"sort"
)

type Kind int

const (
	KindInteger Kind = iota
	KindDecimal
	KindEnum
	KindBoolean
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindEnum:
		return "enum"
	case KindBoolean:
		return "boolean"
	case KindComposite:
		return "composite"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Unit string

const (
	UNIT_NONE       Unit = ""
	UNIT_CELSIUS    Unit = "C"
	UNIT_FAHRENHEIT Unit = "F"
)

// Value is a decoded property value. The zero Value is invalid.
type Value struct {
	kind  Kind
	unit  Unit
	raw   any
	valid bool
}

func IntValue(v int64) Value {
	return Value{kind: KindInteger, raw: v, valid: true}
}

func DecimalValue(v float64) Value {
	return Value{kind: KindDecimal, raw: v, valid: true}
}

func EnumValue(v string) Value {
	return Value{kind: KindEnum, raw: v, valid: true}
}

func BoolValue(v bool) Value {
	return Value{kind: KindBoolean, raw: v, valid: true}
}

func CompositeValue(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindComposite, raw: cp, valid: true}
}

func (v Value) WithUnit(u Unit) Value {
	v.unit = u
	return v
}

func (v Value) Kind() Kind  { return v.kind }
func (v Value) Unit() Unit  { return v.unit }
func (v Value) Valid() bool { return v.valid }

func (v Value) Int() (int64, bool) {
	i, ok := v.raw.(int64)
	return i, ok
}

func (v Value) Decimal() (float64, bool) {
	switch n := v.raw.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (v Value) Enum() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

func (v Value) Bool() (bool, bool) {
	b, ok := v.raw.(bool)
	return b, ok
}

func (v Value) Fields() (map[string]Value, bool) {
	m, ok := v.raw.(map[string]Value)
	return m, ok
}

// Interface returns the plain Go value: int64, float64, string, bool or
// map[string]any for composites.
func (v Value) Interface() any {
	if m, ok := v.raw.(map[string]Value); ok {
		out := make(map[string]any, len(m))
		for k, f := range m {
			out[k] = f.Interface()
		}
		return out
	}
	return v.raw
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.unit != o.unit || v.valid != o.valid {
		return false
	}
	if a, ok := v.raw.(map[string]Value); ok {
		b, ok := o.raw.(map[string]Value)
		if !ok || len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, ok := b[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	}
	return v.raw == o.raw
}

func (v Value) String() string {
	if v.unit != UNIT_NONE {
		return fmt.Sprintf("%v%s", v.Interface(), v.unit)
	}
	if m, ok := v.raw.(map[string]Value); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := "{"
		for i, k := range keys {
			if i > 0 {
				s += " "
			}
			s += k + ":" + m[k].String()
		}
		return s + "}"
	}
	return fmt.Sprintf("%v", v.raw)
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
