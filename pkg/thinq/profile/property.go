package profile

import (
	"math"
	"slices"
	"strings"
	"unicode"
)

const stepEpsilon = 1e-9

type Range struct {
	Min    float64   `json:"min" yaml:"min"`
	Max    float64   `json:"max" yaml:"max"`
	Step   float64   `json:"step,omitempty" yaml:"step,omitempty"`
	Except []float64 `json:"except,omitempty" yaml:"except,omitempty"`
}

func (r *Range) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if v < r.Min-stepEpsilon || v > r.Max+stepEpsilon {
		return false
	}
	if r.Step > 0 {
		rem := math.Mod(v-r.Min, r.Step)
		if rem > stepEpsilon && r.Step-rem > stepEpsilon {
			return false
		}
	}
	for _, e := range r.Except {
		if math.Abs(e-v) < stepEpsilon {
			return false
		}
	}
	return true
}

// Samples returns legal values spread over the range.
func (r *Range) Samples() []float64 {
	step := r.Step
	if step <= 0 {
		step = 1
	}
	candidates := []float64{r.Min, r.Min + step, r.Max - step, r.Max}
	var out []float64
	for _, c := range candidates {
		if r.Contains(c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// PropertySpec describes one field of a resource. Specs are immutable once
// the catalog is built.
type PropertySpec struct {
	ID       string
	WireKey  string
	Kind     Kind
	Writable bool
	Required bool
	Range    *Range
	// Values is the legal set for enums. Empty means any string decodes and
	// encodes (only allowed on read-only properties).
	Values []string
	// Unit and Pair are set on Celsius/Fahrenheit variants; Pair is the
	// logical quantity both variants share.
	Unit   Unit
	Pair   string
	Fields []*PropertySpec
	// Locations limits a Sub property to some locations of its profile.
	// Empty means every location.
	Locations []string
}

// AvailableAt reports whether the property exists at the given location.
func (p *PropertySpec) AvailableAt(location string) bool {
	if len(p.Locations) == 0 {
		return true
	}
	return slices.ContainsFunc(p.Locations, func(l string) bool {
		return strings.EqualFold(l, location)
	})
}

func (p *PropertySpec) HasValue(v string) bool {
	return len(p.Values) == 0 || slices.Contains(p.Values, v)
}

func (p *PropertySpec) field(id string) *PropertySpec {
	for _, f := range p.Fields {
		if f.ID == id || f.WireKey == id {
			return f
		}
	}
	return nil
}

// snakeCase turns wire keys (targetTemperatureC, PM10, mCReminder) into
// logical identifiers (target_temperature_c, pm10, m_c_reminder).
func snakeCase(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					sb.WriteByte('_')
				}
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
