package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/nexhome-core/internal/coordinator"
)

// EntryState is the lifecycle state of a config entry.
type EntryState string

// Config entry states.
const (
	EntryStateNotLoaded       EntryState = "not_loaded"
	EntryStateSetupInProgress EntryState = "setup_in_progress"
	EntryStateLoaded          EntryState = "loaded"
	EntryStateSetupRetry      EntryState = "setup_retry"
	EntryStateSetupError      EntryState = "setup_error"
)

// SetupFunc sets up an entry's platforms.
type SetupFunc func(ctx context.Context, entry *ConfigEntry) error

// ConfigEntry is one configured gateway integration.
//
// Setup moves the entry through setup_in_progress to loaded. A setup that
// fails because data was not ready leaves the entry in setup_retry; any other
// failure leaves it in setup_error. Either way the unload callbacks registered
// so far are run.
type ConfigEntry struct {
	ID    string
	Title string

	// Host and Serial identify the gateway this entry controls.
	Host   string
	Serial string

	state   EntryState
	unloads []func()
	mu      sync.Mutex
}

// NewConfigEntry creates an entry in the not_loaded state.
func NewConfigEntry(id, title, host, serial string) *ConfigEntry {
	return &ConfigEntry{
		ID:     id,
		Title:  title,
		Host:   host,
		Serial: serial,
		state:  EntryStateNotLoaded,
	}
}

// State returns the entry's current state.
func (e *ConfigEntry) State() EntryState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Setup runs fn with the entry in setup_in_progress.
func (e *ConfigEntry) Setup(ctx context.Context, fn SetupFunc) error {
	e.mu.Lock()
	switch e.state {
	case EntryStateNotLoaded, EntryStateSetupRetry, EntryStateSetupError:
	default:
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot set up entry in state %s", ErrEntryState, state)
	}
	e.state = EntryStateSetupInProgress
	e.mu.Unlock()

	err := fn(ctx, e)
	if err == nil {
		e.setState(EntryStateLoaded)
		return nil
	}

	e.runUnloads()
	if errors.Is(err, coordinator.ErrNotReady) {
		e.setState(EntryStateSetupRetry)
	} else {
		e.setState(EntryStateSetupError)
	}
	return fmt.Errorf("setting up entry %s: %w", e.ID, err)
}

// OnUnload registers fn to run when the entry is unloaded or its setup
// fails. Callbacks run in reverse registration order.
func (e *ConfigEntry) OnUnload(fn func()) {
	e.mu.Lock()
	e.unloads = append(e.unloads, fn)
	e.mu.Unlock()
}

// Unload runs the unload callbacks and returns the entry to not_loaded.
func (e *ConfigEntry) Unload() error {
	e.mu.Lock()
	if e.state != EntryStateLoaded {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot unload entry in state %s", ErrEntryState, state)
	}
	e.mu.Unlock()

	e.runUnloads()
	e.setState(EntryStateNotLoaded)
	return nil
}

func (e *ConfigEntry) runUnloads() {
	e.mu.Lock()
	unloads := e.unloads
	e.unloads = nil
	e.mu.Unlock()

	for i := len(unloads) - 1; i >= 0; i-- {
		unloads[i]()
	}
}

func (e *ConfigEntry) setState(s EntryState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}
