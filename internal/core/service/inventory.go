package service

import (
	"context"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/core/port"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type SyncResult struct {
	Registered   []string
	Deregistered []string
	Skipped      []string
}

// SyncDevices reconciles the registered devices with the account device
// list. Devices of unknown type are skipped, devices no longer listed are
// deregistered. The initial status of every listed device is fetched and
// applied through the manager.
func SyncDevices(ctx context.Context, transport port.Transport, manager port.DeviceManager, logger *zap.Logger) (SyncResult, error) {
	var result SyncResult
	list, err := transport.FetchDeviceList(ctx)
	if err != nil {
		return result, &domain.TransportError{Op: "devices", Err: err}
	}
	current, err := manager.Devices(ctx)
	if err != nil {
		return result, err
	}
	known := make(map[string]device.Info, len(current))
	for _, info := range current {
		known[info.DeviceID] = info
	}

	var errs error
	listed := make(map[string]bool, len(list))
	for _, summary := range list {
		dt := profile.ParseDeviceType(summary.DeviceType)
		if _, err := profile.Lookup(dt); err != nil {
			logger.Info("sync: skipping device of unsupported type",
				zap.String("device", summary.DeviceID),
				zap.String("type", summary.DeviceType))
			result.Skipped = append(result.Skipped, summary.DeviceID)
			continue
		}
		listed[summary.DeviceID] = true
		if _, ok := known[summary.DeviceID]; !ok {
			if _, err := manager.RegisterDevice(ctx, summary.DeviceID, dt, summary.Alias, summary.ModelName); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			result.Registered = append(result.Registered, summary.DeviceID)
			subscribe(ctx, transport, summary.DeviceID, logger)
		}
		if _, err := manager.RefreshStatus(ctx, summary.DeviceID); err != nil {
			// an offline device is still registered; its snapshot arrives by push
			logger.Warn("sync: cannot fetch initial status",
				zap.String("device", summary.DeviceID), zap.Error(err))
		}
	}
	for id := range known {
		if listed[id] {
			continue
		}
		if err := manager.DeregisterDevice(ctx, id); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		result.Deregistered = append(result.Deregistered, id)
		unsubscribe(ctx, transport, id, logger)
	}
	logger.Info("sync: device list synchronised",
		zap.Int("registered", len(result.Registered)),
		zap.Int("deregistered", len(result.Deregistered)),
		zap.Int("skipped", len(result.Skipped)))
	return result, errs
}

// subscribe asks for push notifications and state reports of a device.
// Failures are logged only: ALREADY_SUBSCRIBED is the usual case after a
// restart.
func subscribe(ctx context.Context, transport port.Transport, deviceID string, logger *zap.Logger) {
	sub, ok := transport.(port.Subscriber)
	if !ok {
		return
	}
	if err := sub.SubscribePush(ctx, deviceID); err != nil {
		logger.Debug("sync: push subscription failed", zap.String("device", deviceID), zap.Error(err))
	}
	if err := sub.SubscribeEvents(ctx, deviceID); err != nil {
		logger.Debug("sync: event subscription failed", zap.String("device", deviceID), zap.Error(err))
	}
}

func unsubscribe(ctx context.Context, transport port.Transport, deviceID string, logger *zap.Logger) {
	sub, ok := transport.(port.Subscriber)
	if !ok {
		return
	}
	err := multierr.Combine(sub.UnsubscribePush(ctx, deviceID), sub.UnsubscribeEvents(ctx, deviceID))
	if err != nil {
		logger.Debug("sync: unsubscribe failed", zap.String("device", deviceID), zap.Error(err))
	}
}
