package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/core/domain"
)

const (
	PUSH_TYPE_DEVICE_STATUS       = "DEVICE_STATUS"
	PUSH_TYPE_DEVICE_PUSH         = "DEVICE_PUSH"
	PUSH_TYPE_DEVICE_REGISTERED   = "DEVICE_REGISTERED"
	PUSH_TYPE_DEVICE_UNREGISTERED = "DEVICE_UNREGISTERED"
)

var ErrMalformedPush = errors.New("malformed push message")

type pushMessage struct {
	PushType   string          `json:"pushType"`
	DeviceID   string          `json:"deviceId"`
	DeviceType string          `json:"deviceType"`
	Report     json.RawMessage `json:"report"`
	PushCode   string          `json:"pushCode"`
}

// DecodePushMessage decodes one message of the ThinQ push topic. Unknown
// push types decode to PUSH_KIND_UNKNOWN without error.
func DecodePushMessage(payload []byte, receivedAt time.Time) (domain.PushEvent, error) {
	var msg pushMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return domain.PushEvent{}, fmt.Errorf("%w: %v", ErrMalformedPush, err)
	}
	if msg.DeviceID == "" {
		return domain.PushEvent{}, fmt.Errorf("%w: no deviceId", ErrMalformedPush)
	}
	ev := domain.PushEvent{
		DeviceID:   msg.DeviceID,
		DeviceType: msg.DeviceType,
		ReceivedAt: receivedAt,
	}
	switch msg.PushType {
	case PUSH_TYPE_DEVICE_STATUS:
		if len(msg.Report) == 0 {
			return domain.PushEvent{}, fmt.Errorf("%w: status without report", ErrMalformedPush)
		}
		ev.Kind = domain.PUSH_KIND_STATUS
		ev.Payload = msg.Report
	case PUSH_TYPE_DEVICE_PUSH:
		ev.Kind = domain.PUSH_KIND_NOTIFICATION
		ev.Code = msg.PushCode
	case PUSH_TYPE_DEVICE_REGISTERED:
		ev.Kind = domain.PUSH_KIND_REGISTERED
	case PUSH_TYPE_DEVICE_UNREGISTERED:
		ev.Kind = domain.PUSH_KIND_UNREGISTERED
	default:
		ev.Kind = domain.PUSH_KIND_UNKNOWN
	}
	return ev, nil
}
