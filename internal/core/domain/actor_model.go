package domain

import (
	"encoding/json"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"
)

const (
	ACTOR_ID_MASTER        = "master"
	ACTOR_ID_DISPATCHER    = "dispatcher"
	ACTOR_ID_PUSH          = "push"
	ACTOR_ID_MQTT          = "mqtt"
	ACTOR_ID_HA_DISCOVERY  = "hadiscovery"
	ACTOR_ID_DEVICE_PREFIX = "device-"
)

type RegisterDeviceRequest struct {
	ActorRequestMixIn
	DeviceID   string
	DeviceType profile.DeviceType
	Alias      string
	Model      string
}

type RegisterDeviceResponse struct {
	ActorResponseMixIn
	Device device.Info
	// Flushed counts held events delivered on registration.
	Flushed int
}

type DeregisterDeviceRequest struct {
	ActorRequestMixIn
	DeviceID string
}

type DeregisterDeviceResponse struct {
	ActorResponseMixIn
}

type SetCallbackRequest struct {
	ActorRequestMixIn
	queryMixIn
	DeviceID string
	Callback device.Callback
}

type SetCallbackResponse struct {
	ActorResponseMixIn
}

type GetSnapshotRequest struct {
	ActorRequestMixIn
	queryMixIn
	DeviceID string
}

type GetSnapshotResponse struct {
	ActorResponseMixIn
	Device      device.Info
	Snapshot    *profile.Snapshot
	Diagnostics []*profile.FieldError
}

type GetDeviceRequest struct {
	ActorRequestMixIn
	queryMixIn
	DeviceID string
}

type GetDeviceResponse struct {
	ActorResponseMixIn
	Device  device.Info
	Profile *profile.DeviceProfile
}

type ListDevicesRequest struct {
	ActorRequestMixIn
}

type ListDevicesResponse struct {
	ActorResponseMixIn
	Devices []device.Info
}

// ApplyStatusRequest injects a full status document fetched from the API
// into the device's ordered event stream.
type ApplyStatusRequest struct {
	ActorRequestMixIn
	DeviceID   string
	Payload    json.RawMessage
	ReceivedAt time.Time
}

type ApplyStatusResponse struct {
	ActorResponseMixIn
	Update device.Update
}

// DeviceListChanged tells the master the account device list must be
// synchronised again.
type DeviceListChanged struct {
	DeviceID string
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

// PublishDiscoveryRequest publishes (or with Remove, clears) the discovery
// configs of a device. Bridge marks the bridge device itself.
type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Device   HADevice
	Entities []Entity
	Bridge   bool
	Remove   bool
}

type ActorHealthRequest struct {
	ActorRequestMixIn
	queryMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
