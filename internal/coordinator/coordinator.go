package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/nexhome-core/internal/device"
	"github.com/nerrad567/nexhome-core/internal/gateway"
)

// defaultInterval is used when Config.Interval is not positive.
const defaultInterval = 10 * time.Second

// Querier reads identifier values from the gateway.
type Querier interface {
	Query(ctx context.Context, params []gateway.Param) ([]gateway.Value, error)
}

// Listener is called after a refresh that changed the record or availability.
type Listener func(rec *device.Record)

// Logger is the logging interface used by coordinators.
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

// Config describes what one coordinator polls.
type Config struct {
	// Address and DeviceTypeID identify the device being polled.
	Address      string
	DeviceTypeID string

	// Params are the {identifier, address} pairs to read on each refresh.
	Params []gateway.Param

	Interval  time.Duration
	Querier   Querier
	Recorders []Recorder
	Logger    Logger
}

// Coordinator polls one device's identifiers into a shared Record.
//
// The Record is immutable and replaced atomically on every successful
// refresh, so Data never returns a partially updated snapshot. Readers hold
// no locks.
type Coordinator struct {
	cfg    Config
	logger Logger

	record      atomic.Pointer[device.Record]
	lastSuccess atomic.Bool
	lastUpdate  atomic.Int64 // unix nanos of the last successful refresh

	lastErr   error
	lastErrMu sync.RWMutex

	// refreshMu serialises refreshes so a poll and an explicit refresh do
	// not interleave their record swaps.
	refreshMu sync.Mutex

	listeners  map[int]Listener
	nextID     int
	listenerMu sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	started  atomic.Bool
}

// New creates a coordinator. It does not poll until FirstRefresh, Refresh or
// Start is called.
func New(cfg Config) *Coordinator {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	c := &Coordinator{
		cfg:       cfg,
		logger:    logger,
		listeners: make(map[int]Listener),
		done:      make(chan struct{}),
	}
	c.record.Store(device.NewRecord(nil))
	return c
}

// Address returns the polled device's address.
func (c *Coordinator) Address() string {
	return c.cfg.Address
}

// Params returns a copy of the polled parameters.
func (c *Coordinator) Params() []gateway.Param {
	return append([]gateway.Param(nil), c.cfg.Params...)
}

// Data returns the current record. It is never nil.
func (c *Coordinator) Data() *device.Record {
	return c.record.Load()
}

// LastUpdateSuccess reports whether the most recent refresh succeeded.
func (c *Coordinator) LastUpdateSuccess() bool {
	return c.lastSuccess.Load()
}

// LastUpdate returns the time of the last successful refresh, or the zero
// time if none has succeeded.
func (c *Coordinator) LastUpdate() time.Time {
	ns := c.lastUpdate.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// LastError returns the error of the most recent failed refresh, or nil
// after a success.
func (c *Coordinator) LastError() error {
	c.lastErrMu.RLock()
	defer c.lastErrMu.RUnlock()
	return c.lastErr
}

// FirstRefresh performs the initial refresh during setup.
//
// Parameters:
//   - ctx: Context for the gateway query
//
// Returns:
//   - error: The refresh failure wrapping ErrNotReady, so the entry is
//     retried instead of failing permanently
func (c *Coordinator) FirstRefresh(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotReady, c.cfg.Address, err)
	}
	return nil
}

// Refresh queries the gateway once and publishes the result.
//
// Values reported for other addresses are ignored. Listeners run when the
// record or availability changed; recorders run when the record changed.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	wasAvailable := c.lastSuccess.Load()

	values, err := c.cfg.Querier.Query(ctx, c.cfg.Params)
	if err != nil {
		c.setLastErr(err)
		c.lastSuccess.Store(false)
		if wasAvailable {
			c.logger.Warn("device refresh failed", "address", c.cfg.Address, "error", err)
			c.notify(c.Data())
		}
		return err
	}

	rec := c.buildRecord(values)
	prev := c.record.Swap(rec)
	c.setLastErr(nil)
	c.lastSuccess.Store(true)
	c.lastUpdate.Store(time.Now().UnixNano())

	changed := !prev.Equal(rec)
	if changed {
		c.logger.Debug("device record changed", "address", c.cfg.Address, "values", rec.Values())
		for _, r := range c.cfg.Recorders {
			r.RecordRefresh(ctx, c.cfg.Address, c.cfg.DeviceTypeID, rec)
		}
	}
	if changed || !wasAvailable {
		c.notify(rec)
	}
	return nil
}

func (c *Coordinator) buildRecord(values []gateway.Value) *device.Record {
	wanted := make(map[string]bool, len(c.cfg.Params))
	for _, p := range c.cfg.Params {
		if p.Address == c.cfg.Address {
			wanted[p.Identifier] = true
		}
	}

	out := make(map[string]string, len(values))
	for _, v := range values {
		if v.Address != c.cfg.Address || !wanted[v.Identifier] {
			continue
		}
		out[v.Identifier] = v.Value
	}
	return device.NewRecord(out)
}

func (c *Coordinator) setLastErr(err error) {
	c.lastErrMu.Lock()
	c.lastErr = err
	c.lastErrMu.Unlock()
}

// AddListener registers l and returns a function that removes it.
func (c *Coordinator) AddListener(l Listener) (remove func()) {
	c.listenerMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.listenerMu.Unlock()

	return func() {
		c.listenerMu.Lock()
		delete(c.listeners, id)
		c.listenerMu.Unlock()
	}
}

func (c *Coordinator) notify(rec *device.Record) {
	c.listenerMu.RLock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.listenerMu.RUnlock()

	for _, l := range listeners {
		l(rec)
	}
}

// Start begins periodic polling until ctx ends or Stop is called.
// Calling Start more than once has no effect.
func (c *Coordinator) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	c.wg.Add(1)
	go c.pollLoop(ctx)
}

// Stop ends polling and waits for an in-progress refresh to finish.
// Safe to call multiple times.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
	})
}

func (c *Coordinator) pollLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithCancel(ctx)
			go func() {
				select {
				case <-c.done:
					cancel()
				case <-refreshCtx.Done():
				}
			}()
			if err := c.Refresh(refreshCtx); err != nil {
				c.logger.Debug("poll failed", "address", c.cfg.Address, "error", err)
			}
			cancel()
		}
	}
}
