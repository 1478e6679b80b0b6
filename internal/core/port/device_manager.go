package port

import (
	"context"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"
)

// DeviceManager is the caller facing API of the device layer.
type DeviceManager interface {
	RegisterDevice(ctx context.Context, deviceID string, deviceType profile.DeviceType, alias, model string) (device.Info, error)
	DeregisterDevice(ctx context.Context, deviceID string) error
	SetCallback(ctx context.Context, deviceID string, cb device.Callback) error
	GetSnapshot(ctx context.Context, deviceID string) (*profile.Snapshot, []*profile.FieldError, error)
	SendControl(ctx context.Context, deviceID string, writes ...profile.Write) (*profile.Command, error)
	GetProfile(deviceType profile.DeviceType) (*profile.DeviceProfile, error)

	Device(ctx context.Context, deviceID string) (device.Info, *profile.DeviceProfile, error)
	Devices(ctx context.Context) ([]device.Info, error)
	RefreshStatus(ctx context.Context, deviceID string) (device.Update, error)
	CheckDrift(ctx context.Context, deviceID string) (*profile.DriftReport, error)
}
