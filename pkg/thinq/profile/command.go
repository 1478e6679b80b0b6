package profile

import (
	"encoding/json"

	"go.uber.org/multierr"
)

const LOCATION_NAME_KEY = "locationName"

// Write is one requested property change. Location is required for Sub
// resources and forbidden for Main resources; it matches the profile
// locations regardless of case.
type Write struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Value    any    `json:"value"`
	Location string `json:"location,omitempty"`
}

// CommandEntry is a validated write carrying the encoded wire value.
type CommandEntry struct {
	Location string `json:"location,omitempty"`
	Resource string `json:"resource"`
	Property string `json:"property"`
	Value    any    `json:"value"`
}

// Command is the result of BuildCommand. It addresses at most one location.
type Command struct {
	DeviceType DeviceType
	Location   string
	Entries    []CommandEntry

	payload map[string]any
}

// Payload returns the wire body sent to the control endpoint.
func (c *Command) Payload() map[string]any {
	return c.payload
}

func (c *Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.payload)
}

type resolvedWrite struct {
	write Write
	res   *ResourceSpec
	prop  *PropertySpec
	sub   bool
	wire  any
}

// BuildCommand validates every write against the profile and assembles the
// wire payload. All failures are reported together; use FieldErrors to
// inspect them. No state is modified.
func BuildCommand(p *DeviceProfile, writes ...Write) (*Command, error) {
	if p == nil {
		return nil, &FieldError{Err: ErrUnknownDeviceType}
	}
	if len(writes) == 0 {
		return nil, &FieldError{Err: ErrEmptyCommand}
	}

	var errs error
	resolved := make([]resolvedWrite, 0, len(writes))
	for _, w := range writes {
		rw, err := resolveWrite(p, w)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		resolved = append(resolved, rw)
	}
	errs = multierr.Append(errs, checkAddressing(p, resolved))
	errs = multierr.Append(errs, checkUnits(resolved))
	if errs != nil {
		return nil, errs
	}

	cmd := &Command{DeviceType: p.Type, payload: map[string]any{}}
	for _, rw := range resolved {
		if rw.sub {
			cmd.Location = rw.write.Location
		}
		cmd.Entries = append(cmd.Entries, CommandEntry{
			Location: rw.write.Location,
			Resource: rw.res.ID,
			Property: rw.prop.ID,
			Value:    rw.wire,
		})
		body := resourceBody(cmd.payload, p.LocationShape, rw)
		body[rw.prop.WireKey] = rw.wire
		if rw.res.UnitStyle == UnitSibling && rw.prop.Unit != UNIT_NONE {
			body[UNIT_WIRE_KEY] = string(rw.prop.Unit)
		}
	}
	return cmd, nil
}

func resolveWrite(p *DeviceProfile, w Write) (resolvedWrite, error) {
	res, sub, ok := p.Resource(w.Resource)
	if !ok {
		return resolvedWrite{}, fieldError(ErrUnknownResource, w.Location, w.Resource, w.Property, "%s has no resource %q", p.Type, w.Resource)
	}
	prop, ok := res.Property(w.Property)
	if !ok {
		return resolvedWrite{}, fieldError(ErrUnknownProperty, w.Location, w.Resource, w.Property, "resource %s has no property %q", w.Resource, w.Property)
	}
	if !prop.Writable {
		return resolvedWrite{}, &FieldError{Err: ErrNotWritable, Location: w.Location, Resource: res.ID, Property: prop.ID}
	}
	switch {
	case sub && w.Location == "":
		return resolvedWrite{}, fieldError(ErrLocationRequired, "", res.ID, prop.ID, "one of %v", p.Locations)
	case !sub && w.Location != "":
		return resolvedWrite{}, fieldError(ErrLocationNotApplicable, w.Location, res.ID, prop.ID, "main resource")
	case sub:
		location, known := p.Location(w.Location)
		if !known {
			return resolvedWrite{}, fieldError(ErrLocationNotApplicable, w.Location, res.ID, prop.ID, "one of %v", p.Locations)
		}
		if !prop.AvailableAt(location) {
			return resolvedWrite{}, fieldError(ErrUnknownProperty, location, res.ID, prop.ID, "%s has no %s.%s", location, res.ID, prop.ID)
		}
		w.Location = location
	}
	wire, err := Encode(prop, w.Value)
	if err != nil {
		return resolvedWrite{}, asFieldError(err, w.Location, res.ID, prop.ID)
	}
	return resolvedWrite{write: w, res: res, prop: prop, sub: sub, wire: wire}, nil
}

// checkAddressing rejects commands that would need more than one location
// member, or that mix main and sub resources in an envelope payload.
func checkAddressing(p *DeviceProfile, writes []resolvedWrite) error {
	var errs error
	location := ""
	hasMain := false
	for _, rw := range writes {
		if !rw.sub {
			hasMain = true
			continue
		}
		if location == "" {
			location = rw.write.Location
			continue
		}
		if rw.write.Location != location {
			errs = multierr.Append(errs, fieldError(ErrLocationConflict, rw.write.Location, rw.res.ID, rw.prop.ID,
				"command already addresses %s", location))
		}
	}
	if p.LocationShape == LocationEnvelope && hasMain && location != "" {
		errs = multierr.Append(errs, fieldError(ErrLocationConflict, location, "", "",
			"main and %s resources cannot share one command", location))
	}
	return errs
}

// checkUnits rejects sibling-style writes that disagree on the unit member
// of one resource.
func checkUnits(writes []resolvedWrite) error {
	var errs error
	units := map[*ResourceSpec]Unit{}
	for _, rw := range writes {
		if rw.res.UnitStyle != UnitSibling || rw.prop.Unit == UNIT_NONE {
			continue
		}
		u, seen := units[rw.res]
		if !seen {
			units[rw.res] = rw.prop.Unit
			continue
		}
		if u != rw.prop.Unit {
			errs = multierr.Append(errs, fieldError(ErrUnitConflict, rw.write.Location, rw.res.ID, rw.prop.ID,
				"resource already written in %s", u))
		}
	}
	return errs
}

// resourceBody returns the object that receives the properties of rw's
// resource, creating the location wrapping the profile shape asks for.
func resourceBody(payload map[string]any, shape LocationShape, rw resolvedWrite) map[string]any {
	parent := payload
	if rw.sub {
		switch shape {
		case LocationEnvelope:
			payload["location"] = map[string]any{LOCATION_NAME_KEY: rw.write.Location}
		case LocationKeyed:
			parent = childObject(payload, rw.write.Location)
		}
	}
	body := childObject(parent, rw.res.WireKey)
	if rw.sub && shape == LocationInResource {
		body[LOCATION_NAME_KEY] = rw.write.Location
	}
	return body
}

func childObject(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	parent[key] = m
	return m
}
