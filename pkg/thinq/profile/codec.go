package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Encode validates a caller supplied value against the property and returns its
// wire representation (int64, float64, string, bool or map[string]any).
// Writability is not checked here.
func Encode(spec *PropertySpec, v any) (any, error) {
	if val, ok := v.(Value); ok {
		v = val.Interface()
	}
	switch spec.Kind {
	case KindInteger:
		n, ok := toFloat(v)
		if !ok {
			return nil, newValueError(ErrTypeMismatch, "%s expects an integer, got %T", spec.ID, v)
		}
		if !finite(n) {
			return nil, newValueError(ErrValueOutOfDomain, "%v is not a finite number", n)
		}
		if n != math.Trunc(n) {
			return nil, newValueError(ErrTypeMismatch, "%s expects an integer, got %v", spec.ID, n)
		}
		if spec.Range != nil && !spec.Range.Contains(n) {
			return nil, newValueError(ErrValueOutOfDomain, "%v not in %s", n, describeRange(spec.Range))
		}
		return int64(n), nil
	case KindDecimal:
		n, ok := toFloat(v)
		if !ok {
			return nil, newValueError(ErrTypeMismatch, "%s expects a number, got %T", spec.ID, v)
		}
		if !finite(n) {
			return nil, newValueError(ErrValueOutOfDomain, "%v is not a finite number", n)
		}
		if spec.Range != nil && !spec.Range.Contains(n) {
			return nil, newValueError(ErrValueOutOfDomain, "%v not in %s", n, describeRange(spec.Range))
		}
		return n, nil
	case KindEnum:
		s, ok := v.(string)
		if !ok {
			if n, isNum := toFloat(v); isNum {
				return nil, newValueError(ErrValueOutOfDomain, "%v not in %v", n, spec.Values)
			}
			return nil, newValueError(ErrTypeMismatch, "%s expects a string, got %T", spec.ID, v)
		}
		if !spec.HasValue(s) {
			return nil, newValueError(ErrValueOutOfDomain, "%q not in %v", s, spec.Values)
		}
		return s, nil
	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, newValueError(ErrTypeMismatch, "%s expects a boolean, got %T", spec.ID, v)
		}
		return b, nil
	case KindComposite:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, newValueError(ErrTypeMismatch, "%s expects an object, got %T", spec.ID, v)
		}
		out := make(map[string]any, len(m))
		for k, fv := range m {
			f := spec.field(k)
			if f == nil {
				return nil, newValueError(ErrValueOutOfDomain, "%s has no member %q", spec.ID, k)
			}
			wire, err := Encode(f, fv)
			if err != nil {
				return nil, err
			}
			out[f.WireKey] = wire
		}
		return out, nil
	}
	return nil, newValueError(ErrTypeMismatch, "unsupported kind %s", spec.Kind)
}

// Decode coerces a wire value (as produced by encoding/json or by Encode)
// into a typed Value. Domain membership is not enforced: devices may report
// states newer than the catalog.
func Decode(spec *PropertySpec, wire any) (Value, error) {
	var out Value
	switch spec.Kind {
	case KindInteger:
		n, ok := toFloat(wire)
		if !ok {
			n, ok = parseNumericString(wire)
		}
		if !ok || n != math.Trunc(n) {
			return Value{}, newValueError(ErrUnparsableValue, "%v is not an integer", wire)
		}
		out = IntValue(int64(n))
	case KindDecimal:
		n, ok := toFloat(wire)
		if !ok {
			n, ok = parseNumericString(wire)
		}
		if !ok {
			return Value{}, newValueError(ErrUnparsableValue, "%v is not a number", wire)
		}
		out = DecimalValue(n)
	case KindEnum:
		s, ok := wire.(string)
		if !ok {
			return Value{}, newValueError(ErrUnparsableValue, "%v is not a string", wire)
		}
		out = EnumValue(s)
	case KindBoolean:
		switch b := wire.(type) {
		case bool:
			out = BoolValue(b)
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return Value{}, newValueError(ErrUnparsableValue, "%q is not a boolean", b)
			}
			out = BoolValue(parsed)
		default:
			return Value{}, newValueError(ErrUnparsableValue, "%v is not a boolean", wire)
		}
	case KindComposite:
		m, ok := wire.(map[string]any)
		if !ok {
			return Value{}, newValueError(ErrUnparsableValue, "%v is not an object", wire)
		}
		fields := make(map[string]Value, len(m))
		for _, f := range spec.Fields {
			raw, present := m[f.WireKey]
			if !present {
				continue
			}
			fv, err := Decode(f, raw)
			if err != nil {
				return Value{}, err
			}
			fields[f.ID] = fv
		}
		out = CompositeValue(fields)
	default:
		return Value{}, newValueError(ErrUnparsableValue, "unsupported kind %s", spec.Kind)
	}
	return out.WithUnit(spec.Unit), nil
}

// CoerceText converts a textual command value (MQTT payloads, query strings)
// into the Go type Encode expects for the property.
func CoerceText(spec *PropertySpec, text string) (any, error) {
	text = strings.TrimSpace(text)
	switch spec.Kind {
	case KindInteger, KindDecimal:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, newValueError(ErrTypeMismatch, "%q is not a number", text)
		}
		return n, nil
	case KindBoolean:
		switch strings.ToLower(text) {
		case "on", "true", "1", "yes":
			return true, nil
		case "off", "false", "0", "no":
			return false, nil
		}
		return nil, newValueError(ErrTypeMismatch, "%q is not a boolean", text)
	case KindComposite:
		var m map[string]any
		if err := json.Unmarshal([]byte(text), &m); err != nil {
			return nil, newValueError(ErrTypeMismatch, "%q is not a JSON object", text)
		}
		return m, nil
	default:
		return text, nil
	}
}

func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func parseNumericString(v any) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func describeRange(r *Range) string {
	s := fmt.Sprintf("[%v..%v", r.Min, r.Max)
	if r.Step > 0 {
		s += fmt.Sprintf(" step %v", r.Step)
	}
	if len(r.Except) > 0 {
		s += fmt.Sprintf(" except %v", r.Except)
	}
	return s + "]"
}
