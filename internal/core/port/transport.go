package port

import (
	"context"
	"encoding/json"

	"github.com/berfenger/thinq2mqtt/pkg/thinqapi"
)

// Transport is the request/response collaborator talking to the cloud API.
// Implementations do not retry.
type Transport interface {
	FetchDeviceList(ctx context.Context) ([]thinqapi.DeviceSummary, error)
	FetchStatus(ctx context.Context, deviceID string) (json.RawMessage, error)
	FetchProfile(ctx context.Context, deviceID string) (json.RawMessage, error)
	SendCommand(ctx context.Context, deviceID string, payload any) (json.RawMessage, error)
}

// Subscriber manages the per-device push and event subscriptions of the
// account. Transports without it rely on subscriptions made elsewhere.
type Subscriber interface {
	SubscribePush(ctx context.Context, deviceID string) error
	UnsubscribePush(ctx context.Context, deviceID string) error
	SubscribeEvents(ctx context.Context, deviceID string) error
	UnsubscribeEvents(ctx context.Context, deviceID string) error
}

var _ Transport = (*thinqapi.Client)(nil)
var _ Subscriber = (*thinqapi.Client)(nil)
var _ Transport = (*thinqapi.TestTransport)(nil)
