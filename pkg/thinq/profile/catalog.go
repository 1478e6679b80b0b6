package profile

import "strings"

// The compiled-in catalog. Each device type is declared as data; location
// handling and unit styles are flags on the profile/resource, never code paths
// keyed on the device type.

func catalog() []*DeviceProfile {
	return []*DeviceProfile{
		airConditioner(),
		airPurifier(),
		airPurifierFan(),
		ceilingFan(),
		dehumidifier(),
		humidifier(),
		systemBoiler(),
		ventilator(),
		waterHeater(),
		cooktop(),
		dishWasher(),
		homeBrew(),
		hood(),
		kimchiRefrigerator(),
		microwaveOven(),
		oven(),
		plantCultivator(),
		refrigerator(),
		waterPurifier(),
		wineCellar(),
		dryer(),
		robotCleaner(),
		stickCleaner(),
		styler(),
		washer(),
		washcomboMain(),
		washcomboMini(),
		washtower(),
		washtowerDryer(),
		washtowerWasher(),
	}
}

var (
	powerOnOff    = []string{"POWER_ON", "POWER_OFF"}
	startStop     = []string{"START", "STOP"}
	laundryOps    = []string{"START", "STOP", "POWER_OFF", "WAKE_UP"}
	temperatureCF = []string{"C", "F"}
	displayLevels = []string{"OFF", "LEVEL_1", "LEVEL_2", "LEVEL_3"}
)

type propertyGroup interface {
	specs() []*PropertySpec
}

func (p *PropertySpec) specs() []*PropertySpec {
	return []*PropertySpec{p}
}

type unitPair [2]*PropertySpec

func (u unitPair) specs() []*PropertySpec {
	return u[:]
}

func (u unitPair) rw() unitPair {
	u[0].Writable = true
	u[1].Writable = true
	return u
}

func resource(wire string, props ...propertyGroup) *ResourceSpec {
	r := &ResourceSpec{ID: snakeCase(wire), WireKey: wire}
	for _, g := range props {
		r.Properties = append(r.Properties, g.specs()...)
	}
	return r
}

// siblingResource declares a resource whose temperatures are qualified by
// the "unit" member.
func siblingResource(wire string, props ...propertyGroup) *ResourceSpec {
	r := resource(wire, props...)
	r.UnitStyle = UnitSibling
	return r
}

func newProperty(kind Kind, wire string) *PropertySpec {
	return &PropertySpec{ID: snakeCase(wire), WireKey: wire, Kind: kind}
}

func enum(wire string, values ...string) *PropertySpec {
	p := newProperty(KindEnum, wire)
	p.Values = values
	return p
}

func integer(wire string) *PropertySpec {
	return newProperty(KindInteger, wire)
}

func ranged(wire string, min, max, step float64) *PropertySpec {
	p := newProperty(KindInteger, wire)
	p.Range = &Range{Min: min, Max: max, Step: step}
	return p
}

func decimal(wire string) *PropertySpec {
	return newProperty(KindDecimal, wire)
}

func boolean(wire string) *PropertySpec {
	return newProperty(KindBoolean, wire)
}

func composite(wire string, fields ...*PropertySpec) *PropertySpec {
	p := newProperty(KindComposite, wire)
	p.Fields = fields
	return p
}

func (p *PropertySpec) rw() *PropertySpec {
	p.Writable = true
	return p
}

func (p *PropertySpec) required() *PropertySpec {
	p.Required = true
	return p
}

func (p *PropertySpec) except(values ...float64) *PropertySpec {
	p.Range.Except = values
	return p
}

// at limits a Sub property to some locations.
func (p *PropertySpec) at(locations ...string) *PropertySpec {
	p.Locations = locations
	return p
}

// at limits every property of a Sub resource to some locations.
func (r *ResourceSpec) at(locations ...string) *ResourceSpec {
	for _, p := range r.Properties {
		p.Locations = locations
	}
	return r
}

func (p *PropertySpec) named(id string) *PropertySpec {
	p.ID = id
	return p
}

// suffixedPair declares <base>C / <base>F wire keys.
func suffixedPair(base string, c, f *Range) unitPair {
	id := snakeCase(base)
	return unitPair{
		{ID: id + "_c", WireKey: base + "C", Kind: KindDecimal, Unit: UNIT_CELSIUS, Pair: id, Range: c},
		{ID: id + "_f", WireKey: base + "F", Kind: KindDecimal, Unit: UNIT_FAHRENHEIT, Pair: id, Range: f},
	}
}

// siblingPair declares one wire key read as Celsius or Fahrenheit depending
// on the resource "unit" member.
func siblingPair(wire string, c, f *Range) unitPair {
	id := snakeCase(wire)
	return unitPair{
		{ID: id + "_c", WireKey: wire, Kind: KindDecimal, Unit: UNIT_CELSIUS, Pair: id, Range: c},
		{ID: id + "_f", WireKey: wire, Kind: KindDecimal, Unit: UNIT_FAHRENHEIT, Pair: id, Range: f},
	}
}

func span(min, max, step float64) *Range {
	return &Range{Min: min, Max: max, Step: step}
}

func unit() *PropertySpec {
	return enum(UNIT_WIRE_KEY, temperatureCF...).named("temperature_unit")
}

func clockTimer(wire string, prefixes ...string) *ResourceSpec {
	var props []propertyGroup
	for _, prefix := range prefixes {
		props = append(props,
			ranged(prefix+"HourTo"+wire, 0, 23, 1).rw(),
			ranged(prefix+"MinuteTo"+wire, 0, 59, 1).rw(),
		)
	}
	return resource("timer", props...)
}

// withStop adds a ...ToStop twin for every ...ToStart timer property.
func (r *ResourceSpec) withStop() *ResourceSpec {
	for _, p := range r.Properties {
		if !strings.HasSuffix(p.WireKey, "ToStart") {
			continue
		}
		stop := *p
		stop.WireKey = strings.TrimSuffix(p.WireKey, "ToStart") + "ToStop"
		stop.ID = snakeCase(stop.WireKey)
		r.Properties = append(r.Properties, &stop)
	}
	return r
}

func sleepTimer() *ResourceSpec {
	return resource("sleepTimer",
		ranged("relativeHourToStop", 0, 12, 1).rw(),
		ranged("relativeMinuteToStop", 0, 59, 1).rw(),
	)
}

func remoteControl() *ResourceSpec {
	return resource("remoteControlEnable", boolean("remoteControlEnabled"))
}

func runState() *ResourceSpec {
	return resource("runState", enum("currentState").required())
}

func airQuality(extra ...propertyGroup) *ResourceSpec {
	props := []propertyGroup{
		integer("PM1"),
		integer("PM2"),
		integer("PM10"),
		integer("odor"),
		enum("odorLevel", "INVALID", "WEAK", "NORMAL", "STRONG", "VERY_STRONG"),
		integer("humidity"),
		integer("totalPollution"),
		enum("totalPollutionLevel", "INVALID", "GOOD", "NORMAL", "BAD", "VERY_BAD"),
		enum("monitoringEnabled", "ON_WORKING", "ALWAYS").rw(),
	}
	return resource("airQualitySensor", append(props, extra...)...)
}

func battery() *ResourceSpec {
	return resource("battery",
		enum("level", "HIGH", "MID", "LOW", "WARNING"),
		ranged("percent", 0, 100, 1),
	)
}
