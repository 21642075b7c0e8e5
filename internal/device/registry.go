package device

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
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

// Registry caches the gateway device list in memory on top of a Repository.
//
// The repository is the source of truth; the cache exists so that setup and
// the HTTP API can list devices without touching SQLite. The cache is loaded
// by RefreshCache at startup and rebuilt by Sync after every successful
// discovery.
//
// Thread Safety:
//   - All methods are safe for concurrent use
//   - Reads take a read lock; Sync and RefreshCache swap the whole map
type Registry struct {
	repo    Repository
	cache   map[string]Device
	cacheMu sync.RWMutex
	logger  Logger
}

// NewRegistry creates a registry persisting through repo.
//
// The cache starts empty. Call RefreshCache to load previously stored
// devices, or Sync with a fresh discovery result.
//
// Parameters:
//   - repo: Persistent device storage (normally the SQLite repository)
//
// Returns:
//   - *Registry: Ready to use, logging to a no-op logger until SetLogger
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
// Call before the registry is shared between goroutines.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads the cache from the repository.
//
// Used at startup and when discovery fails, so the last known device list
// can still be set up.
//
// Parameters:
//   - ctx: Context for cancellation of the repository read
//
// Returns:
//   - error: Wrapped repository error; the existing cache is kept on failure
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.replaceCache(devices)
	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// Sync stores a freshly discovered device list and makes it the cache.
//
// Devices that fail validation are skipped with a warning so one bad entry
// from the gateway does not hide the rest. Stored devices missing from
// discovered are removed.
//
// Parameters:
//   - ctx: Context for cancellation of the repository write
//   - discovered: Device list as reported by the gateway
//
// Returns:
//   - error: Wrapped repository error; the cache is unchanged on failure
func (r *Registry) Sync(ctx context.Context, discovered []Device) error {
	valid := make([]Device, 0, len(discovered))
	for _, d := range discovered {
		if err := ValidateDevice(d); err != nil {
			r.logger.Warn("skipping invalid device", "address", d.Address, "error", err)
			continue
		}
		valid = append(valid, d)
	}

	if err := r.repo.ReplaceAll(ctx, valid); err != nil {
		return fmt.Errorf("storing devices: %w", err)
	}

	r.replaceCache(valid)
	r.logger.Info("device list synchronised", "count", len(valid), "skipped", len(discovered)-len(valid))
	return nil
}

func (r *Registry) replaceCache(devices []Device) {
	cache := make(map[string]Device, len(devices))
	for _, d := range devices {
		cache[d.Address] = d
	}

	r.cacheMu.Lock()
	r.cache = cache
	r.cacheMu.Unlock()
}

// GetDevice returns the device at address, falling back to the repository
// when it is not cached.
//
// A device found only in the repository is added to the cache.
//
// Parameters:
//   - ctx: Context for cancellation of the repository lookup
//   - address: Gateway device address (e.g. "0a12")
//
// Returns:
//   - Device: The stored device
//   - error: ErrDeviceNotFound if no device has that address
func (r *Registry) GetDevice(ctx context.Context, address string) (Device, error) {
	r.cacheMu.RLock()
	d, ok := r.cache[address]
	r.cacheMu.RUnlock()
	if ok {
		return d, nil
	}

	stored, err := r.repo.GetByAddress(ctx, address)
	if err != nil {
		return Device{}, err
	}

	r.cacheMu.Lock()
	r.cache[address] = *stored
	r.cacheMu.Unlock()

	return *stored, nil
}

// ListDevices returns every cached device ordered by address.
//
// Returns:
//   - []Device: A copy of the cache; callers may modify it freely
func (r *Registry) ListDevices() []Device {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	devices := make([]Device, 0, len(r.cache))
	for _, d := range r.cache {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Address < devices[j].Address
	})
	return devices
}

// Count returns the number of cached devices.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}
