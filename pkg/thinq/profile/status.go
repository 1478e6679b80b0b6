package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type parseMode int

const (
	// parseFull treats the document as the complete device status.
	parseFull parseMode = iota
	// parseReport treats the document as a partial push report.
	parseReport
)

// ParseStatus decodes a complete status document. Individual field failures
// never abort parsing: they are returned as diagnostics next to a snapshot of
// everything that decoded. The error is set only when raw is not a JSON
// object or list, or the profile is nil.
func ParseStatus(p *DeviceProfile, raw []byte) (*Snapshot, []*FieldError, error) {
	return parseDocument(p, raw, parseFull)
}

// ParseReport decodes a partial push report. Missing required properties are
// not diagnosed since reports only carry what changed.
func ParseReport(p *DeviceProfile, raw []byte) (*Snapshot, []*FieldError, error) {
	return parseDocument(p, raw, parseReport)
}

type statusParser struct {
	profile   *DeviceProfile
	snap      *Snapshot
	diags     []*FieldError
	locations map[string]bool
}

func parseDocument(p *DeviceProfile, raw []byte, mode parseMode) (*Snapshot, []*FieldError, error) {
	if p == nil {
		return nil, nil, &FieldError{Err: ErrUnknownDeviceType}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, &FieldError{Err: ErrUnparsableValue, Detail: err.Error()}
	}

	sp := &statusParser{profile: p, snap: newSnapshot(p.Type), locations: map[string]bool{}}
	switch d := doc.(type) {
	case map[string]any:
		if _, ok := d["location"]; ok && p.LocationShape == LocationEnvelope {
			sp.envelope(d)
		} else {
			sp.object(d)
		}
	case []any:
		for i, item := range d {
			m, ok := item.(map[string]any)
			if !ok {
				sp.diag(fieldError(ErrUnparsableValue, "", "", "", "status item %d is %T", i, item))
				continue
			}
			sp.envelope(m)
		}
	default:
		return nil, nil, &FieldError{Err: ErrUnparsableValue, Detail: fmt.Sprintf("status document is %T", doc)}
	}
	if mode == parseFull {
		sp.checkRequired()
	}
	return sp.snap, sp.diags, nil
}

func (sp *statusParser) diag(fe *FieldError) {
	sp.diags = append(sp.diags, fe)
}

// object handles {<resource>:{...}} documents, including in-resource and
// keyed location shapes.
func (sp *statusParser) object(doc map[string]any) {
	p := sp.profile
	for _, key := range sortedKeys(doc) {
		val := doc[key]
		if location, ok := p.Location(key); ok && p.LocationShape == LocationKeyed {
			sp.keyed(location, val)
			continue
		}
		if res, ok := p.mainByWire[key]; ok {
			sp.resource("", res, val)
			continue
		}
		if res, ok := p.subByWire[key]; ok && p.LocationShape == LocationInResource {
			sp.inResource(res, val)
			continue
		}
		sp.diag(&FieldError{Err: ErrUnrecognizedField, Resource: key})
	}
}

func (sp *statusParser) keyed(location string, val any) {
	m, ok := val.(map[string]any)
	if !ok {
		sp.diag(fieldError(ErrUnparsableValue, location, "", "", "location body is %T", val))
		return
	}
	sp.locations[location] = true
	for _, key := range sortedKeys(m) {
		res, ok := sp.profile.subByWire[key]
		if !ok {
			sp.diag(&FieldError{Err: ErrUnrecognizedField, Location: location, Resource: key})
			continue
		}
		sp.resource(location, res, m[key])
	}
}

func (sp *statusParser) inResource(res *ResourceSpec, val any) {
	var items []any
	switch v := val.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		sp.diag(fieldError(ErrUnparsableValue, "", res.ID, "", "resource body is %T", val))
		return
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			sp.diag(fieldError(ErrUnparsableValue, "", res.ID, "", "resource item is %T", item))
			continue
		}
		name, _ := m[LOCATION_NAME_KEY].(string)
		location, ok := sp.profile.Location(name)
		if !ok {
			sp.diag(fieldError(ErrLocationNotApplicable, name, res.ID, "", "one of %v", sp.profile.Locations))
			continue
		}
		sp.locations[location] = true
		sp.resource(location, res, m)
	}
}

// envelope handles one {location:{locationName}, <resource>:{...}} item.
func (sp *statusParser) envelope(item map[string]any) {
	p := sp.profile
	location := ""
	if loc, ok := item["location"].(map[string]any); ok {
		location, _ = loc[LOCATION_NAME_KEY].(string)
	}
	canonical, knownLocation := p.Location(location)
	knownLocation = knownLocation && location != ""
	if location != "" && !knownLocation {
		sp.diag(fieldError(ErrLocationNotApplicable, location, "", "", "one of %v", p.Locations))
	}
	if knownLocation {
		location = canonical
		sp.locations[location] = true
	}
	for _, key := range sortedKeys(item) {
		if key == "location" {
			continue
		}
		if res, ok := p.subByWire[key]; ok && location != "" {
			if knownLocation {
				sp.resource(location, res, item[key])
			}
			continue
		}
		if res, ok := p.mainByWire[key]; ok {
			sp.resource("", res, item[key])
			continue
		}
		sp.diag(&FieldError{Err: ErrUnrecognizedField, Location: location, Resource: key})
	}
}

func (sp *statusParser) resource(location string, res *ResourceSpec, val any) {
	m, ok := val.(map[string]any)
	if !ok {
		sp.diag(fieldError(ErrUnparsableValue, location, res.ID, "", "resource body is %T", val))
		return
	}
	if location != "" && !res.AvailableAt(location) {
		sp.diag(&FieldError{Err: ErrUnrecognizedField, Location: location, Resource: res.ID})
		return
	}
	unit := ""
	if res.UnitStyle == UnitSibling {
		unit, _ = m[UNIT_WIRE_KEY].(string)
	}
	for _, key := range sortedKeys(m) {
		if key == LOCATION_NAME_KEY && location != "" {
			continue
		}
		specs := res.wireProperties(key)
		if len(specs) == 0 {
			sp.diag(&FieldError{Err: ErrUnrecognizedField, Location: location, Resource: res.ID, Property: key})
			continue
		}
		spec := specs[0]
		if res.UnitStyle == UnitSibling && spec.Unit != UNIT_NONE {
			spec = pickUnit(specs, Unit(unit))
			if spec == nil {
				sp.diag(fieldError(ErrUnparsableValue, location, res.ID, specs[0].Pair, "no usable %q member (got %q)", UNIT_WIRE_KEY, unit))
				continue
			}
		}
		if location != "" && !spec.AvailableAt(location) {
			sp.diag(&FieldError{Err: ErrUnrecognizedField, Location: location, Resource: res.ID, Property: key})
			continue
		}
		v, err := Decode(spec, m[key])
		if err != nil {
			sp.diag(asFieldError(err, location, res.ID, spec.ID))
			continue
		}
		sp.snap.values[Key{Location: location, Resource: res.ID, Property: spec.ID}] = v
	}
}

func pickUnit(specs []*PropertySpec, u Unit) *PropertySpec {
	for _, s := range specs {
		if s.Unit == u {
			return s
		}
	}
	return nil
}

// checkRequired reports required properties absent from the snapshot. Sub
// properties are only checked for locations the document mentioned.
func (sp *statusParser) checkRequired() {
	p := sp.profile
	for _, res := range p.Main {
		for _, prop := range res.Properties {
			if prop.Required && !sp.has("", res, prop) {
				sp.diag(&FieldError{Err: ErrMissingRequiredProperty, Resource: res.ID, Property: prop.ID})
			}
		}
	}
	for _, location := range p.Locations {
		if !sp.locations[location] {
			continue
		}
		for _, res := range p.Sub {
			for _, prop := range res.Properties {
				if prop.Required && prop.AvailableAt(location) && !sp.has(location, res, prop) {
					sp.diag(&FieldError{Err: ErrMissingRequiredProperty, Location: location, Resource: res.ID, Property: prop.ID})
				}
			}
		}
	}
}

func (sp *statusParser) has(location string, res *ResourceSpec, prop *PropertySpec) bool {
	if _, ok := sp.snap.values[Key{Location: location, Resource: res.ID, Property: prop.ID}]; ok {
		return true
	}
	// either variant of a unit pair satisfies the pair
	if prop.Pair != "" {
		for _, other := range res.Properties {
			if other.Pair == prop.Pair {
				if _, ok := sp.snap.values[Key{Location: location, Resource: res.ID, Property: other.ID}]; ok {
					return true
				}
			}
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
