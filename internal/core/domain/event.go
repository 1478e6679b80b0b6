package domain

import (
	"encoding/json"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"
)

type PushKind int

const (
	PUSH_KIND_UNKNOWN PushKind = iota
	PUSH_KIND_STATUS
	PUSH_KIND_NOTIFICATION
	PUSH_KIND_REGISTERED
	PUSH_KIND_UNREGISTERED
)

func (k PushKind) String() string {
	switch k {
	case PUSH_KIND_STATUS:
		return "status"
	case PUSH_KIND_NOTIFICATION:
		return "notification"
	case PUSH_KIND_REGISTERED:
		return "registered"
	case PUSH_KIND_UNREGISTERED:
		return "unregistered"
	default:
		return "unknown"
	}
}

// PushEvent is one message of the external push stream.
type PushEvent struct {
	Kind       PushKind
	DeviceID   string
	DeviceType string
	Payload    json.RawMessage
	// Code is the notification code of PUSH_KIND_NOTIFICATION events.
	Code       string
	ReceivedAt time.Time
}

// PushSubscriptionChanged is sent by the push adapter whenever its
// subscription is (re)established or dropped.
type PushSubscriptionChanged struct {
	Subscribed bool
	Error      error
}

// Events published on the event stream.

type SnapshotUpdatedEvent struct {
	Update device.Update
}

type AvailabilityEvent struct {
	DeviceID  string
	Available bool
	State     device.State
}

type NotificationEvent struct {
	DeviceID   string
	Code       string
	ReceivedAt time.Time
}

type DeviceRegisteredEvent struct {
	Device  device.Info
	Profile *profile.DeviceProfile
}

type DeviceDeregisteredEvent struct {
	DeviceID string
}
