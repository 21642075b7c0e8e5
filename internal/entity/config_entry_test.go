package entity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nerrad567/nexhome-core/internal/coordinator"
)

func TestConfigEntry_SetupLoaded(t *testing.T) {
	e := NewConfigEntry("gw", "Gateway", "192.168.1.50", "NX1")
	if e.State() != EntryStateNotLoaded {
		t.Fatalf("initial state = %s", e.State())
	}

	var during EntryState
	err := e.Setup(context.Background(), func(_ context.Context, entry *ConfigEntry) error {
		during = entry.State()
		return nil
	})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if during != EntryStateSetupInProgress {
		t.Errorf("state during setup = %s, want setup_in_progress", during)
	}
	if e.State() != EntryStateLoaded {
		t.Errorf("state after setup = %s, want loaded", e.State())
	}

	if err := e.Setup(context.Background(), func(context.Context, *ConfigEntry) error { return nil }); !errors.Is(err, ErrEntryState) {
		t.Errorf("second Setup() error = %v, want ErrEntryState", err)
	}
}

func TestConfigEntry_SetupFailure(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		state EntryState
	}{
		{"not ready", fmt.Errorf("%w: 0a12: timeout", coordinator.ErrNotReady), EntryStateSetupRetry},
		{"other", errors.New("bad catalogue"), EntryStateSetupError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewConfigEntry("gw", "Gateway", "h", "s")
			unloaded := false

			err := e.Setup(context.Background(), func(_ context.Context, entry *ConfigEntry) error {
				entry.OnUnload(func() { unloaded = true })
				return tt.err
			})
			if !errors.Is(err, tt.err) {
				t.Errorf("Setup() error = %v, want %v", err, tt.err)
			}
			if e.State() != tt.state {
				t.Errorf("state = %s, want %s", e.State(), tt.state)
			}
			if !unloaded {
				t.Error("unload callbacks not run after failed setup")
			}

			// A failed entry can be set up again.
			if err := e.Setup(context.Background(), func(context.Context, *ConfigEntry) error { return nil }); err != nil {
				t.Errorf("retry Setup() error = %v", err)
			}
		})
	}
}

func TestConfigEntry_Unload(t *testing.T) {
	e := NewConfigEntry("gw", "Gateway", "h", "s")

	if err := e.Unload(); !errors.Is(err, ErrEntryState) {
		t.Errorf("Unload() before setup error = %v, want ErrEntryState", err)
	}

	var order []int
	err := e.Setup(context.Background(), func(_ context.Context, entry *ConfigEntry) error {
		entry.OnUnload(func() { order = append(order, 1) })
		entry.OnUnload(func() { order = append(order, 2) })
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Unload(); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("unload order = %v, want [2 1]", order)
	}
	if e.State() != EntryStateNotLoaded {
		t.Errorf("state = %s, want not_loaded", e.State())
	}
}
