package profile

import (
	"strings"
)

type DeviceType string

const (
	DEVICE_TYPE_AIR_CONDITIONER     DeviceType = "DEVICE_AIR_CONDITIONER"
	DEVICE_TYPE_AIR_PURIFIER        DeviceType = "DEVICE_AIR_PURIFIER"
	DEVICE_TYPE_AIR_PURIFIER_FAN    DeviceType = "DEVICE_AIR_PURIFIER_FAN"
	DEVICE_TYPE_CEILING_FAN         DeviceType = "DEVICE_CEILING_FAN"
	DEVICE_TYPE_COOKTOP             DeviceType = "DEVICE_COOKTOP"
	DEVICE_TYPE_DEHUMIDIFIER        DeviceType = "DEVICE_DEHUMIDIFIER"
	DEVICE_TYPE_DISH_WASHER         DeviceType = "DEVICE_DISH_WASHER"
	DEVICE_TYPE_DRYER               DeviceType = "DEVICE_DRYER"
	DEVICE_TYPE_HOME_BREW           DeviceType = "DEVICE_HOME_BREW"
	DEVICE_TYPE_HOOD                DeviceType = "DEVICE_HOOD"
	DEVICE_TYPE_HUMIDIFIER          DeviceType = "DEVICE_HUMIDIFIER"
	DEVICE_TYPE_KIMCHI_REFRIGERATOR DeviceType = "DEVICE_KIMCHI_REFRIGERATOR"
	DEVICE_TYPE_MICROWAVE_OVEN      DeviceType = "DEVICE_MICROWAVE_OVEN"
	DEVICE_TYPE_OVEN                DeviceType = "DEVICE_OVEN"
	DEVICE_TYPE_PLANT_CULTIVATOR    DeviceType = "DEVICE_PLANT_CULTIVATOR"
	DEVICE_TYPE_REFRIGERATOR        DeviceType = "DEVICE_REFRIGERATOR"
	DEVICE_TYPE_ROBOT_CLEANER       DeviceType = "DEVICE_ROBOT_CLEANER"
	DEVICE_TYPE_STICK_CLEANER       DeviceType = "DEVICE_STICK_CLEANER"
	DEVICE_TYPE_STYLER              DeviceType = "DEVICE_STYLER"
	DEVICE_TYPE_SYSTEM_BOILER       DeviceType = "DEVICE_SYSTEM_BOILER"
	DEVICE_TYPE_VENTILATOR          DeviceType = "DEVICE_VENTILATOR"
	DEVICE_TYPE_WASHER              DeviceType = "DEVICE_WASHER"
	DEVICE_TYPE_WASHCOMBO_MAIN      DeviceType = "DEVICE_WASHCOMBO_MAIN"
	DEVICE_TYPE_WASHCOMBO_MINI      DeviceType = "DEVICE_WASHCOMBO_MINI"
	DEVICE_TYPE_WASHTOWER           DeviceType = "DEVICE_WASHTOWER"
	DEVICE_TYPE_WASHTOWER_DRYER     DeviceType = "DEVICE_WASHTOWER_DRYER"
	DEVICE_TYPE_WASHTOWER_WASHER    DeviceType = "DEVICE_WASHTOWER_WASHER"
	DEVICE_TYPE_WATER_HEATER        DeviceType = "DEVICE_WATER_HEATER"
	DEVICE_TYPE_WATER_PURIFIER      DeviceType = "DEVICE_WATER_PURIFIER"
	DEVICE_TYPE_WINE_CELLAR         DeviceType = "DEVICE_WINE_CELLAR"
)

const deviceTypePrefix = "DEVICE_"

// ParseDeviceType accepts both "DEVICE_WASHER" and "WASHER". Membership in the
// catalog is checked by Lookup, not here.
func ParseDeviceType(s string) DeviceType {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, deviceTypePrefix) {
		s = deviceTypePrefix + s
	}
	return DeviceType(s)
}

// Short returns the type without the DEVICE_ prefix.
func (t DeviceType) Short() string {
	return strings.TrimPrefix(string(t), deviceTypePrefix)
}

type LocationShape int

const (
	LocationNone LocationShape = iota
	// LocationEnvelope: status is a list of {location:{locationName}, <resource>:{...}}
	// and commands carry a top-level location member.
	LocationEnvelope
	// LocationInResource: each sub resource is a list of {locationName, ...}.
	LocationInResource
	// LocationKeyed: sub resources are nested under the location name,
	// {<location>:{<resource>:{...}}}.
	LocationKeyed
)

func (s LocationShape) String() string {
	switch s {
	case LocationEnvelope:
		return "envelope"
	case LocationInResource:
		return "in_resource"
	case LocationKeyed:
		return "keyed"
	default:
		return "none"
	}
}

func (s LocationShape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DeviceProfile is the capability description of one device type. Profiles
// are shared read-only by every device of that type.
type DeviceProfile struct {
	Type          DeviceType
	Revision      int
	Main          []*ResourceSpec
	Sub           []*ResourceSpec
	Locations     []string
	LocationShape LocationShape

	mainByID   map[string]*ResourceSpec
	subByID    map[string]*ResourceSpec
	mainByWire map[string]*ResourceSpec
	subByWire  map[string]*ResourceSpec
}

// Resource finds a resource by logical id and reports whether it belongs to
// the Sub set.
func (p *DeviceProfile) Resource(id string) (res *ResourceSpec, sub bool, ok bool) {
	if r, found := p.mainByID[id]; found {
		return r, false, true
	}
	if r, found := p.subByID[id]; found {
		return r, true, true
	}
	return nil, false, false
}

// Location resolves a location name, ignoring case, to its catalog spelling.
func (p *DeviceProfile) Location(name string) (string, bool) {
	for _, l := range p.Locations {
		if strings.EqualFold(l, name) {
			return l, true
		}
	}
	return "", false
}

func (p *DeviceProfile) HasLocation(name string) bool {
	_, ok := p.Location(name)
	return ok
}

func (p *DeviceProfile) HasSub() bool {
	return len(p.Sub) > 0
}

// Properties visits every (resource, property) pair, Main first.
func (p *DeviceProfile) Properties(fn func(res *ResourceSpec, prop *PropertySpec, sub bool)) {
	for _, r := range p.Main {
		for _, prop := range r.Properties {
			fn(r, prop, false)
		}
	}
	for _, r := range p.Sub {
		for _, prop := range r.Properties {
			fn(r, prop, true)
		}
	}
}

func (p *DeviceProfile) index() {
	p.mainByID = make(map[string]*ResourceSpec, len(p.Main))
	p.mainByWire = make(map[string]*ResourceSpec, len(p.Main))
	for _, r := range p.Main {
		r.index()
		p.mainByID[r.ID] = r
		p.mainByWire[r.WireKey] = r
	}
	p.subByID = make(map[string]*ResourceSpec, len(p.Sub))
	p.subByWire = make(map[string]*ResourceSpec, len(p.Sub))
	for _, r := range p.Sub {
		r.index()
		p.subByID[r.ID] = r
		p.subByWire[r.WireKey] = r
	}
}
