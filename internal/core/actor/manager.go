package actor

import (
	"context"
	"errors"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/core/port"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/asynkron/protoactor-go/actor"
)

const DEFAULT_ASK_TIMEOUT = 2 * time.Second

// ActorDeviceManager implements the caller API on top of the actor tree.
// Device state requests are answered by the dispatcher; control and status
// fetches run on the caller's goroutine bounded by its context.
type ActorDeviceManager struct {
	root           *actor.RootContext
	target         *actor.PID
	control        port.ControlService
	askTimeout     time.Duration
	controlTimeout time.Duration
}

func NewActorDeviceManager(root *actor.RootContext, target *actor.PID, control port.ControlService, controlTimeout time.Duration) *ActorDeviceManager {
	return &ActorDeviceManager{
		root:           root,
		target:         target,
		control:        control,
		askTimeout:     DEFAULT_ASK_TIMEOUT,
		controlTimeout: controlTimeout,
	}
}

func ask[T domain.ActorResponse](ctx context.Context, m *ActorDeviceManager, msg any) (T, error) {
	var zero T
	timeout := m.askTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return zero, domain.ErrActorTimeout
	}
	res, err := m.root.RequestFuture(m.target, msg, timeout).Result()
	if err != nil {
		if errors.Is(err, actor.ErrTimeout) {
			return zero, domain.ErrActorTimeout
		}
		return zero, err
	}
	resp, ok := res.(T)
	if !ok {
		return zero, errors.New("unexpected actor response")
	}
	if resp.HasResponseError() {
		return resp, resp.GetResponseError()
	}
	return resp, nil
}

func (m *ActorDeviceManager) RegisterDevice(ctx context.Context, deviceID string, deviceType profile.DeviceType, alias, model string) (device.Info, error) {
	if _, err := profile.Lookup(deviceType); err != nil {
		return device.Info{}, err
	}
	resp, err := ask[domain.RegisterDeviceResponse](ctx, m, domain.RegisterDeviceRequest{
		DeviceID:   deviceID,
		DeviceType: deviceType,
		Alias:      alias,
		Model:      model,
	})
	return resp.Device, err
}

func (m *ActorDeviceManager) DeregisterDevice(ctx context.Context, deviceID string) error {
	_, err := ask[domain.DeregisterDeviceResponse](ctx, m, domain.DeregisterDeviceRequest{DeviceID: deviceID})
	return err
}

func (m *ActorDeviceManager) SetCallback(ctx context.Context, deviceID string, cb device.Callback) error {
	_, err := ask[domain.SetCallbackResponse](ctx, m, domain.SetCallbackRequest{DeviceID: deviceID, Callback: cb})
	return err
}

func (m *ActorDeviceManager) GetSnapshot(ctx context.Context, deviceID string) (*profile.Snapshot, []*profile.FieldError, error) {
	resp, err := ask[domain.GetSnapshotResponse](ctx, m, domain.GetSnapshotRequest{DeviceID: deviceID})
	if err != nil {
		return nil, nil, err
	}
	return resp.Snapshot, resp.Diagnostics, nil
}

func (m *ActorDeviceManager) GetProfile(deviceType profile.DeviceType) (*profile.DeviceProfile, error) {
	return profile.Lookup(deviceType)
}

func (m *ActorDeviceManager) Device(ctx context.Context, deviceID string) (device.Info, *profile.DeviceProfile, error) {
	resp, err := ask[domain.GetDeviceResponse](ctx, m, domain.GetDeviceRequest{DeviceID: deviceID})
	if err != nil {
		return device.Info{}, nil, err
	}
	return resp.Device, resp.Profile, nil
}

func (m *ActorDeviceManager) Devices(ctx context.Context) ([]device.Info, error) {
	resp, err := ask[domain.ListDevicesResponse](ctx, m, domain.ListDevicesRequest{})
	return resp.Devices, err
}

// SendControl validates and sends writes. Without a caller deadline the
// configured control timeout applies.
func (m *ActorDeviceManager) SendControl(ctx context.Context, deviceID string, writes ...profile.Write) (*profile.Command, error) {
	_, p, err := m.Device(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := m.withControlTimeout(ctx)
	defer cancel()
	return m.control.SendControl(ctx, deviceID, p, writes)
}

// RefreshStatus fetches the full status and applies it in order with the
// push events of the device.
func (m *ActorDeviceManager) RefreshStatus(ctx context.Context, deviceID string) (device.Update, error) {
	if _, _, err := m.Device(ctx, deviceID); err != nil {
		return device.Update{}, err
	}
	fetchCtx, cancel := m.withControlTimeout(ctx)
	defer cancel()
	raw, err := m.control.FetchStatus(fetchCtx, deviceID)
	if err != nil {
		return device.Update{}, err
	}
	resp, err := ask[domain.ApplyStatusResponse](ctx, m, domain.ApplyStatusRequest{
		DeviceID:   deviceID,
		Payload:    raw,
		ReceivedAt: time.Now(),
	})
	return resp.Update, err
}

func (m *ActorDeviceManager) CheckDrift(ctx context.Context, deviceID string) (*profile.DriftReport, error) {
	_, p, err := m.Device(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := m.withControlTimeout(ctx)
	defer cancel()
	return m.control.CheckDrift(ctx, deviceID, p)
}

func (m *ActorDeviceManager) withControlTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || m.controlTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.controlTimeout)
}

// ensure interface compliance
var _ port.DeviceManager = (*ActorDeviceManager)(nil)
