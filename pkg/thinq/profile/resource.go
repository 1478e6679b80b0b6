package profile

// UNIT_WIRE_KEY is the member that carries the active temperature unit of a
// resource on the wire.
const UNIT_WIRE_KEY = "unit"

type UnitStyle int

const (
	// UnitSuffixed resources use distinct wire keys per unit
	// (targetTemperatureC / targetTemperatureF).
	UnitSuffixed UnitStyle = iota
	// UnitSibling resources use one wire key and name the unit in the
	// sibling "unit" member.
	UnitSibling
)

// ResourceSpec groups properties that travel together under one wire key.
type ResourceSpec struct {
	ID         string
	WireKey    string
	UnitStyle  UnitStyle
	Properties []*PropertySpec

	byID   map[string]*PropertySpec
	byWire map[string][]*PropertySpec
}

func (r *ResourceSpec) Property(id string) (*PropertySpec, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// AvailableAt reports whether any property of the resource exists at the
// given location.
func (r *ResourceSpec) AvailableAt(location string) bool {
	for _, p := range r.Properties {
		if p.AvailableAt(location) {
			return true
		}
	}
	return false
}

// wireProperties returns the specs reading a given wire key. Sibling unit
// pairs share a key, so there may be more than one.
func (r *ResourceSpec) wireProperties(key string) []*PropertySpec {
	return r.byWire[key]
}

func (r *ResourceSpec) index() {
	r.byID = make(map[string]*PropertySpec, len(r.Properties))
	r.byWire = make(map[string][]*PropertySpec, len(r.Properties))
	for _, p := range r.Properties {
		r.byID[p.ID] = p
		r.byWire[p.WireKey] = append(r.byWire[p.WireKey], p)
	}
}
