package mqtt

import (
	"fmt"
	"strings"

	"github.com/berfenger/thinq2mqtt/internal/core/domain"
)

const HA_AVAILABILITY_MODE_ALL = "all"

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice         `json:"device"`
	StateTopic        string                    `json:"state_topic"`
	ValueTemplate     string                    `json:"value_template,omitempty"`
	CommandTopic      string                    `json:"command_topic,omitempty"`
	StateClass        string                    `json:"state_class,omitempty"`
	DeviceClass       string                    `json:"device_class,omitempty"`
	UnitOfMeasurement string                    `json:"unit_of_measurement,omitempty"`
	AvTopic           string                    `json:"availability_topic,omitempty"`
	Availability      []HADiscoveryAvailability `json:"availability,omitempty"`
	AvailabilityMode  string                    `json:"availability_mode,omitempty"`
	EntityCategory    string                    `json:"entity_category,omitempty"`
	Name              string                    `json:"name"`
	UniqueId          string                    `json:"unique_id"`
	Platform          string                    `json:"platform"`
	PayloadOn         string                    `json:"payload_on,omitempty"`
	PayloadOff        string                    `json:"payload_off,omitempty"`
	Icon              string                    `json:"icon,omitempty"`
	Options           []string                  `json:"options,omitempty"`
	Min               float64                   `json:"min,omitempty"`
	Max               float64                   `json:"max,omitempty"`
	Step              float64                   `json:"step,omitempty"`
	Mode              string                    `json:"mode,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

type HADiscoveryAvailability struct {
	Topic string `json:"topic"`
}

func HADiscoveryTopic(prefix string, dev domain.HADevice, entity domain.Entity) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, entity.Platform, dev.Id, entity.Id)
}

// BridgeStateToHADiscoveryMessage describes the connectivity sensor of the
// bridge itself.
func BridgeStateToHADiscoveryMessage(client *MQTTClient, dev domain.HADevice) (domain.Entity, HADiscoveryConfig) {
	entity := domain.Entity{
		Id:          "bridge_state",
		Platform:    domain.PLATFORM_BINARY_SENSOR,
		Name:        "Bridge State",
		UniqueId:    fmt.Sprintf("%s_state", dev.Id),
		DeviceClass: "connectivity",
	}
	return entity, HADiscoveryConfig{
		Device:         device(dev),
		StateTopic:     client.BridgeStateTopic(),
		DeviceClass:    entity.DeviceClass,
		EntityCategory: "diagnostic",
		Name:           entity.Name,
		UniqueId:       entity.UniqueId,
		Platform:       "mqtt",
		PayloadOn:      MQTT_PAYLOAD_ONLINE,
		PayloadOff:     MQTT_PAYLOAD_OFFLINE,
	}
}

// EntityToHADiscoveryMessage describes one property entity of a device. The
// state is read from the retained snapshot document of the device.
func EntityToHADiscoveryMessage(client *MQTTClient, dev domain.HADevice, entity domain.Entity) HADiscoveryConfig {
	disConfig := HADiscoveryConfig{
		Device:     device(dev),
		StateTopic: client.DeviceStateTopic(dev.Id),
		Availability: []HADiscoveryAvailability{
			{Topic: client.BridgeStateTopic()},
			{Topic: client.DeviceAvailabilityTopic(dev.Id)},
		},
		AvailabilityMode:  HA_AVAILABILITY_MODE_ALL,
		DeviceClass:       entity.DeviceClass,
		UnitOfMeasurement: entity.UnitOfMeasurement,
		Name:              entity.Name,
		UniqueId:          entity.UniqueId,
		Platform:          "mqtt",
	}
	path := valuePath(entity)
	switch entity.Platform {
	case domain.PLATFORM_SWITCH, domain.PLATFORM_BINARY_SENSOR:
		disConfig.ValueTemplate = fmt.Sprintf("{{ '%s' if %s else '%s' }}", MQTT_PAYLOAD_ON, path, MQTT_PAYLOAD_OFF)
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	case domain.PLATFORM_SELECT:
		disConfig.ValueTemplate = fmt.Sprintf("{{ %s }}", path)
		disConfig.Options = entity.Options
	case domain.PLATFORM_NUMBER:
		disConfig.ValueTemplate = fmt.Sprintf("{{ %s }}", path)
		disConfig.Min = entity.Min
		disConfig.Max = entity.Max
		disConfig.Step = entity.Step
		disConfig.Mode = "box"
	default:
		disConfig.ValueTemplate = fmt.Sprintf("{{ %s | default(None) }}", path)
		if entity.UnitOfMeasurement != "" {
			disConfig.StateClass = "measurement"
		}
	}
	if entity.Writable() {
		disConfig.CommandTopic = client.DeviceCommandTopic(dev.Id, entity.Location, entity.Resource, entity.Property)
	}
	return disConfig
}

func valuePath(entity domain.Entity) string {
	parts := []string{"value_json"}
	if entity.Location != "" {
		parts = append(parts, "locations", entity.Location)
	}
	parts = append(parts, entity.Resource, entity.Property)
	return strings.Join(parts, ".")
}

func device(d domain.HADevice) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
