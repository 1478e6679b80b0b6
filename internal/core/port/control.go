package port

import (
	"context"
	"encoding/json"

	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"
)

type ControlService interface {
	// SendControl validates writes against the profile and sends the
	// resulting command. Validation failures never reach the transport.
	SendControl(ctx context.Context, deviceID string, p *profile.DeviceProfile, writes []profile.Write) (*profile.Command, error)
	FetchStatus(ctx context.Context, deviceID string) (json.RawMessage, error)
	CheckDrift(ctx context.Context, deviceID string, p *profile.DeviceProfile) (*profile.DriftReport, error)
}
