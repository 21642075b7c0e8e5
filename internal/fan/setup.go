package fan

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/nexhome-core/internal/coordinator"
	"github.com/nerrad567/nexhome-core/internal/device"
	"github.com/nerrad567/nexhome-core/internal/entity"
	"github.com/nerrad567/nexhome-core/internal/gateway"
)

// firstRefreshLimit caps concurrent first refreshes so a large install does
// not flood the gateway with requests at startup.
const firstRefreshLimit = 8

// Logger is the logging interface used during setup.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Gateway is what fans and their coordinators need from the control client.
type Gateway interface {
	ControlClient
	coordinator.Querier
}

// EntityHost receives the entities Setup builds.
type EntityHost interface {
	AddEntities(entities []entity.Entity) error
	RemoveEntities(ids ...string)
	Get(id string) (entity.Entity, error)
}

// SetupParams are the inputs of Setup.
type SetupParams struct {
	Entry   *entity.ConfigEntry
	Host    EntityHost
	Gateway Gateway

	// Devices is the discovered device list.
	Devices []device.Device
	Catalog device.Catalog

	PollInterval time.Duration

	// Recorders receive every changed record from every coordinator.
	Recorders []coordinator.Recorder

	Logger Logger
}

// Setup creates one coordinator and one Fan for every fan entity the
// catalogue declares for the discovered devices.
//
// Devices whose type is not in the catalogue, or that has no known fan
// model, are skipped. When the entry is in setup_in_progress every new
// coordinator is refreshed once, concurrently, before any fan is added; a
// failure aborts setup with an error wrapping coordinator.ErrNotReady.
// All fans are added to the host in one batch and polling starts once the
// host has accepted them. A batch with a taken id fails setup without
// touching the entity already holding that id. Polling stops and the fans
// are removed when the entry unloads.
func Setup(ctx context.Context, p SetupParams) ([]entity.Entity, error) {
	if p.Entry == nil || p.Host == nil || p.Gateway == nil {
		return nil, fmt.Errorf("%w: entry, host and gateway are required", ErrInvalidSetup)
	}
	logger := p.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	var (
		coords []*coordinator.Coordinator
		fans   []entity.Entity
	)
	for _, dev := range p.Devices {
		configs := p.Catalog.EntitiesFor(dev.DeviceTypeID, device.PlatformFan)
		if len(configs) == 0 {
			continue
		}
		model, ok := ModelFor(dev.DeviceTypeID)
		if !ok {
			logger.Debug("no fan model for device type", "address", dev.Address, "device_type_id", dev.DeviceTypeID)
			continue
		}

		for _, cfg := range configs {
			coord := coordinator.New(coordinator.Config{
				Address:      dev.Address,
				DeviceTypeID: dev.DeviceTypeID,
				Params:       watchParams(dev.Address, cfg.Identifiers),
				Interval:     p.PollInterval,
				Querier:      p.Gateway,
				Recorders:    p.Recorders,
				Logger:       logger,
			})
			coords = append(coords, coord)
			fans = append(fans, New(dev, cfg.Key, model, p.Gateway, coord))
		}
	}

	if p.Entry.State() == entity.EntryStateSetupInProgress {
		if err := firstRefresh(ctx, coords); err != nil {
			return nil, err
		}
	}

	// AddEntities skips ids that are already taken, so only the fans the host
	// now holds belong to this entry.
	addErr := p.Host.AddEntities(fans)
	owned := ownedIDs(p.Host, fans)
	if addErr != nil {
		p.Host.RemoveEntities(owned...)
		return nil, fmt.Errorf("adding fans: %w", addErr)
	}

	// Polling outlives the setup call; it ends on unload.
	pollCtx := context.WithoutCancel(ctx)
	for _, c := range coords {
		c.Start(pollCtx)
	}
	p.Entry.OnUnload(func() {
		p.Host.RemoveEntities(owned...)
		for _, c := range coords {
			c.Stop()
		}
	})

	logger.Info("fans set up", "count", len(fans))
	return fans, nil
}

// ownedIDs returns the ids under which host holds exactly the given entities.
func ownedIDs(host EntityHost, entities []entity.Entity) []string {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		if got, err := host.Get(e.UniqueID()); err == nil && got == e {
			ids = append(ids, e.UniqueID())
		}
	}
	return ids
}

func firstRefresh(ctx context.Context, coords []*coordinator.Coordinator) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(firstRefreshLimit)
	for _, c := range coords {
		g.Go(func() error {
			return c.FirstRefresh(gctx)
		})
	}
	return g.Wait()
}

func watchParams(address string, identifiers []string) []gateway.Param {
	params := make([]gateway.Param, len(identifiers))
	for i, id := range identifiers {
		params[i] = gateway.Param{Identifier: id, Address: address}
	}
	return params
}
