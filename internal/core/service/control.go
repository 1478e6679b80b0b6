package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/core/port"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"go.uber.org/zap"
)

type DefaultControlService struct {
	Transport port.Transport
	Logger    *zap.Logger
}

func NewControlService(transport port.Transport, logger *zap.Logger) *DefaultControlService {
	return &DefaultControlService{
		Transport: transport,
		Logger:    logger,
	}
}

func (s *DefaultControlService) SendControl(ctx context.Context, deviceID string, p *profile.DeviceProfile, writes []profile.Write) (*profile.Command, error) {
	cmd, err := profile.BuildCommand(p, writes...)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug("control: sending command",
		zap.String("device", deviceID),
		zap.String("location", cmd.Location),
		zap.Int("entries", len(cmd.Entries)))
	if _, err := s.Transport.SendCommand(ctx, deviceID, cmd.Payload()); err != nil {
		return nil, transportError(ctx, deviceID, "control", err)
	}
	return cmd, nil
}

func (s *DefaultControlService) FetchStatus(ctx context.Context, deviceID string) (json.RawMessage, error) {
	raw, err := s.Transport.FetchStatus(ctx, deviceID)
	if err != nil {
		return nil, transportError(ctx, deviceID, "status", err)
	}
	return raw, nil
}

func (s *DefaultControlService) CheckDrift(ctx context.Context, deviceID string, p *profile.DeviceProfile) (*profile.DriftReport, error) {
	raw, err := s.Transport.FetchProfile(ctx, deviceID)
	if err != nil {
		return nil, transportError(ctx, deviceID, "profile", err)
	}
	report, err := profile.DetectDrift(p, raw)
	if err != nil {
		return nil, err
	}
	if report.HasDrift() {
		s.Logger.Warn("control: device profile drifted from catalog",
			zap.String("device", deviceID),
			zap.Strings("missing_in_catalog", report.MissingInCatalog),
			zap.Strings("writability_mismatch", report.WritabilityMismatch))
	}
	return report, nil
}

// transportError maps a deadline on the caller context to ErrCommandTimedOut
// and wraps anything else.
func transportError(ctx context.Context, deviceID, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrCommandTimedOut
	}
	return &domain.TransportError{DeviceID: deviceID, Op: op, Err: err}
}

// ensure interface compliance
var _ port.ControlService = (*DefaultControlService)(nil)
