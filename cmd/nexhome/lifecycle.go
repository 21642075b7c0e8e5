package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/nexhome-core/internal/coordinator"
	"github.com/nerrad567/nexhome-core/internal/device"
	"github.com/nerrad567/nexhome-core/internal/entity"
	"github.com/nerrad567/nexhome-core/internal/gateway"
	"github.com/nerrad567/nexhome-core/internal/infrastructure/logging"
)

const (
	// setupRetryInterval is the wait between setup attempts while the
	// gateway is not ready.
	setupRetryInterval = 30 * time.Second

	historyPruneInterval = time.Hour

	commandRecordTimeout = 5 * time.Second
)

// deviceLister is the discovery half of the gateway client.
type deviceLister interface {
	ListDevices(ctx context.Context) ([]device.Device, error)
}

// deviceStore is the part of device.Registry used during discovery.
type deviceStore interface {
	Sync(ctx context.Context, discovered []device.Device) error
	RefreshCache(ctx context.Context) error
	ListDevices() []device.Device
}

// commandWriter receives accepted commands for time-series storage.
type commandWriter interface {
	WriteCommand(address, identifier, value string)
}

// historyPruner deletes state history older than a retention window.
type historyPruner interface {
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}

// setupWithRetry runs entry.Setup until it succeeds, fails permanently, or
// ctx ends. Only setup_retry outcomes are retried; a permanent failure is
// logged at error level before it is returned.
func setupWithRetry(ctx context.Context, entry *entity.ConfigEntry, fn entity.SetupFunc, interval time.Duration, log *logging.Logger) error {
	for attempt := 1; ; attempt++ {
		err := entry.Setup(ctx, fn)
		if err == nil {
			log.Info("entry loaded", "entry", entry.ID, "attempts", attempt)
			return nil
		}
		if entry.State() != entity.EntryStateSetupRetry {
			log.Error("entry setup failed",
				"entry", entry.ID,
				"state", entry.State(),
				"attempt", attempt,
				"error", err,
			)
			return err
		}

		log.Warn("gateway not ready, retrying setup",
			"entry", entry.ID,
			"attempt", attempt,
			"retry_in", interval,
			"error", err,
		)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// discoverDevices asks the gateway for its device list and stores it.
//
// When the gateway cannot be asked, the last stored list is used instead.
// With nothing stored either, the error wraps coordinator.ErrNotReady so the
// entry is retried.
func discoverDevices(ctx context.Context, gw deviceLister, store deviceStore, log *logging.Logger) ([]device.Device, error) {
	devices, err := gw.ListDevices(ctx)
	if err == nil {
		if syncErr := store.Sync(ctx, devices); syncErr != nil {
			return nil, fmt.Errorf("storing discovered devices: %w", syncErr)
		}
		return store.ListDevices(), nil
	}

	log.Warn("device discovery failed, using stored devices", "error", err)
	if refreshErr := store.RefreshCache(ctx); refreshErr != nil {
		return nil, errors.Join(err, fmt.Errorf("loading stored devices: %w", refreshErr))
	}

	stored := store.ListDevices()
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: discovering devices: %w", coordinator.ErrNotReady, err)
	}
	return stored, nil
}

// commandRecorder returns a gateway observer that stores each accepted
// command in the state history and, when w is non-nil, in InfluxDB.
func commandRecorder(ctx context.Context, history device.StateHistoryRepository, w commandWriter, log *logging.Logger) gateway.CommandObserver {
	return func(address string, cmd gateway.Command) {
		if w != nil {
			w.WriteCommand(address, cmd.Identifier, cmd.Value)
		}

		rec := device.NewRecord(map[string]string{cmd.Identifier: cmd.Value})
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commandRecordTimeout)
		defer cancel()
		if err := history.RecordStateChange(recordCtx, address, rec, device.StateHistorySourceCommand); err != nil {
			log.Warn("failed to record command", "address", address, "identifier", cmd.Identifier, "error", err)
		}
	}
}

// runHistoryPruner deletes history older than retention every interval
// until ctx ends. A zero retention disables pruning.
func runHistoryPruner(ctx context.Context, pruner historyPruner, retention, interval time.Duration, log *logging.Logger) {
	if retention <= 0 {
		log.Info("state history pruning disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := pruner.PruneHistory(ctx, retention)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("state history prune failed", "error", err)
				}
				continue
			}
			if n > 0 {
				log.Debug("state history pruned", "rows", n, "retention", retention)
			}
		}
	}
}
