package domain

import (
	"fmt"
	"strings"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"
)

const (
	PLATFORM_SENSOR        = "sensor"
	PLATFORM_BINARY_SENSOR = "binary_sensor"
	PLATFORM_SWITCH        = "switch"
	PLATFORM_SELECT        = "select"
	PLATFORM_NUMBER        = "number"

	MANUFACTURER = "LG"
)

type HADevice struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

// Entity is one Home Assistant entity backed by a catalog property.
type Entity struct {
	Id       string
	Platform string
	Name     string
	UniqueId string

	Location string
	Resource string
	Property string

	UnitOfMeasurement string
	DeviceClass       string
	Options           []string
	Min               float64
	Max               float64
	Step              float64
}

// Writable reports whether the entity accepts commands.
func (e Entity) Writable() bool {
	switch e.Platform {
	case PLATFORM_SWITCH, PLATFORM_SELECT, PLATFORM_NUMBER:
		return true
	}
	return false
}

func BridgeDevice(baseTopic, version string) HADevice {
	return HADevice{
		Id:           fmt.Sprintf("%s_bridge", baseTopic),
		Name:         "ThinQ2MQTT Bridge",
		Version:      version,
		Model:        "thinq2mqtt",
		Manufacturer: "thinq2mqtt",
	}
}

func ApplianceDevice(info device.Info, viaDevice string) HADevice {
	name := info.Alias
	if name == "" {
		name = fmt.Sprintf("%s %s", humanize(info.DeviceType.Short()), info.DeviceID)
	}
	return HADevice{
		Id:           info.DeviceID,
		Name:         name,
		Model:        info.Model,
		Manufacturer: MANUFACTURER,
		ViaDevice:    viaDevice,
	}
}

// DeviceEntities derives one entity per catalog property of the device,
// repeated per location for Sub resources that exist there.
func DeviceEntities(info device.Info, p *profile.DeviceProfile) []Entity {
	var entities []Entity
	p.Properties(func(res *profile.ResourceSpec, prop *profile.PropertySpec, sub bool) {
		if prop.Kind == profile.KindComposite {
			return
		}
		if !sub {
			entities = append(entities, propertyEntity(info.DeviceID, "", res, prop))
			return
		}
		for _, loc := range p.Locations {
			if prop.AvailableAt(loc) {
				entities = append(entities, propertyEntity(info.DeviceID, loc, res, prop))
			}
		}
	})
	return entities
}

func propertyEntity(deviceID, location string, res *profile.ResourceSpec, prop *profile.PropertySpec) Entity {
	id := res.ID + "_" + prop.ID
	name := humanize(prop.ID)
	if location != "" {
		id = strings.ToLower(location) + "_" + id
		name = humanize(location) + " " + name
	}
	e := Entity{
		Id:       id,
		Name:     name,
		UniqueId: fmt.Sprintf("thinq_%s_%s", deviceID, id),
		Location: location,
		Resource: res.ID,
		Property: prop.ID,
		Platform: PLATFORM_SENSOR,
	}
	switch prop.Unit {
	case profile.UNIT_CELSIUS:
		e.UnitOfMeasurement = "°C"
		e.DeviceClass = "temperature"
	case profile.UNIT_FAHRENHEIT:
		e.UnitOfMeasurement = "°F"
		e.DeviceClass = "temperature"
	}

	switch {
	case prop.Kind == profile.KindBoolean && prop.Writable:
		e.Platform = PLATFORM_SWITCH
	case prop.Kind == profile.KindBoolean:
		e.Platform = PLATFORM_BINARY_SENSOR
	case prop.Kind == profile.KindEnum && prop.Writable && len(prop.Values) > 0:
		e.Platform = PLATFORM_SELECT
		e.Options = prop.Values
	case (prop.Kind == profile.KindInteger || prop.Kind == profile.KindDecimal) && prop.Writable && prop.Range != nil:
		e.Platform = PLATFORM_NUMBER
		e.Min = prop.Range.Min
		e.Max = prop.Range.Max
		e.Step = prop.Range.Step
	}
	return e
}

func humanize(id string) string {
	words := strings.Split(strings.ToLower(id), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
