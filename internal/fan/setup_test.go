package fan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/nexhome-core/internal/coordinator"
	"github.com/nerrad567/nexhome-core/internal/device"
	"github.com/nerrad567/nexhome-core/internal/entity"
	"github.com/nerrad567/nexhome-core/internal/gateway"
)

// fakeGateway answers every query with PowerSwitch "1" and WindSpeed "3"
// unless queryErr is set.
type fakeGateway struct {
	fakeControl

	qmu      sync.Mutex
	queries  int
	queryErr error
}

func (g *fakeGateway) Query(_ context.Context, params []gateway.Param) ([]gateway.Value, error) {
	g.qmu.Lock()
	defer g.qmu.Unlock()
	g.queries++
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	values := make([]gateway.Value, 0, len(params))
	for _, p := range params {
		v := "1"
		if p.Identifier == device.WindSpeed {
			v = "3"
		}
		values = append(values, gateway.Value{Identifier: p.Identifier, Address: p.Address, Value: v})
	}
	return values, nil
}

func (g *fakeGateway) queryCount() int {
	g.qmu.Lock()
	defer g.qmu.Unlock()
	return g.queries
}

// recordingHost captures AddEntities batches.
type recordingHost struct {
	*entity.Host
	batches [][]entity.Entity
}

func (h *recordingHost) AddEntities(entities []entity.Entity) error {
	h.batches = append(h.batches, entities)
	return h.Host.AddEntities(entities)
}

var testDevices = []device.Device{
	{DeviceTypeID: device.TypeFanMultiSpeed, Address: "0a12", Name: "Bedroom"},
	{DeviceTypeID: device.TypeFanDualSpeed, Address: "0b01", Name: "Bathroom"},
	{DeviceTypeID: device.TypeSwitch, Address: "0c00", Name: "Hall light"},
	{DeviceTypeID: "999", Address: "0d00", Name: "Unknown"},
}

func setupParams(entry *entity.ConfigEntry, host EntityHost, gw Gateway) SetupParams {
	return SetupParams{
		Entry:        entry,
		Host:         host,
		Gateway:      gw,
		Devices:      testDevices,
		Catalog:      device.DefaultCatalog(),
		PollInterval: time.Hour,
	}
}

// releaseEntry runs the unload callbacks registered on an entry that Setup
// was called with directly, stopping its coordinators.
func releaseEntry(t *testing.T, entry *entity.ConfigEntry) {
	t.Helper()
	if entry.State() != entity.EntryStateLoaded {
		noop := func(context.Context, *entity.ConfigEntry) error { return nil }
		if err := entry.Setup(context.Background(), noop); err != nil {
			t.Fatalf("loading entry for unload: %v", err)
		}
	}
	if err := entry.Unload(); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
}

func TestSetup(t *testing.T) {
	gw := &fakeGateway{}
	host := &recordingHost{Host: entity.NewHost()}
	entry := entity.NewConfigEntry("gw", "Gateway", "192.168.1.50", "NX1")

	var fans []entity.Entity
	err := entry.Setup(context.Background(), func(ctx context.Context, e *entity.ConfigEntry) error {
		var err error
		fans, err = Setup(ctx, setupParams(e, host, gw))
		return err
	})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(func() { _ = entry.Unload() })

	if len(fans) != 2 {
		t.Fatalf("Setup() built %d fans, want 2", len(fans))
	}
	if len(host.batches) != 1 || len(host.batches[0]) != 2 {
		t.Errorf("AddEntities batches = %d, want one batch of 2", len(host.batches))
	}

	multi := fans[0].(*Fan)
	dual := fans[1].(*Fan)
	if multi.Model() != ModelMultiSpeed || dual.Model() != ModelDualSpeed {
		t.Errorf("models = %v, %v", multi.Model(), dual.Model())
	}
	if multi.UniqueID() != "0a12_fan" || dual.UniqueID() != "0b01_fan" {
		t.Errorf("ids = %q, %q", multi.UniqueID(), dual.UniqueID())
	}

	// First refresh ran before the fans were handed over.
	if gw.queryCount() != 2 {
		t.Errorf("queries = %d, want 2 first refreshes", gw.queryCount())
	}
	if !multi.IsOn() || !multi.Available() {
		t.Error("multi-speed fan has no data after setup")
	}
	if p, ok := dual.PresetMode(); !ok || p != PresetHigh {
		t.Errorf("dual PresetMode() = %q, %v, want high", p, ok)
	}

	if _, err := host.Get("0c00_fan"); !errors.Is(err, entity.ErrEntityNotFound) {
		t.Error("switch device produced a fan")
	}
	if _, err := host.Get("0d00_fan"); !errors.Is(err, entity.ErrEntityNotFound) {
		t.Error("unknown device type produced a fan")
	}
}

func TestSetup_UnknownModelInCatalog(t *testing.T) {
	gw := &fakeGateway{}
	host := entity.NewHost()
	entry := entity.NewConfigEntry("gw", "Gateway", "h", "s")

	catalog := device.Catalog{
		"77": {{Key: "fan", Platform: device.PlatformFan, Identifiers: []string{device.PowerSwitch}}},
	}
	p := setupParams(entry, host, gw)
	p.Catalog = catalog
	p.Devices = []device.Device{{DeviceTypeID: "77", Address: "0e00"}}

	fans, err := Setup(context.Background(), p)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if len(fans) != 0 || len(host.Entities()) != 0 {
		t.Errorf("catalogued fan type with no model produced %d fans", len(fans))
	}
}

func TestSetup_NoFirstRefreshOutsideSetup(t *testing.T) {
	gw := &fakeGateway{}
	host := entity.NewHost()
	entry := entity.NewConfigEntry("gw", "Gateway", "h", "s")

	fans, err := Setup(context.Background(), setupParams(entry, host, gw))
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(func() { releaseEntry(t, entry) })

	if gw.queryCount() != 0 {
		t.Errorf("queries = %d, want none when entry is not setting up", gw.queryCount())
	}
	if fans[0].Available() {
		t.Error("fan available before any refresh")
	}
}

func TestSetup_FirstRefreshFailure(t *testing.T) {
	gw := &fakeGateway{queryErr: errors.New("gateway offline")}
	host := &recordingHost{Host: entity.NewHost()}
	entry := entity.NewConfigEntry("gw", "Gateway", "h", "s")

	err := entry.Setup(context.Background(), func(ctx context.Context, e *entity.ConfigEntry) error {
		_, err := Setup(ctx, setupParams(e, host, gw))
		return err
	})
	if !errors.Is(err, coordinator.ErrNotReady) {
		t.Fatalf("Setup() error = %v, want ErrNotReady", err)
	}
	if entry.State() != entity.EntryStateSetupRetry {
		t.Errorf("entry state = %s, want setup_retry", entry.State())
	}
	if len(host.batches) != 0 {
		t.Error("fans added despite failed first refresh")
	}
}

func TestSetup_TakenID(t *testing.T) {
	gw := &fakeGateway{}
	host := entity.NewHost()
	entry := entity.NewConfigEntry("gw", "Gateway", "h", "s")

	dev := device.Device{DeviceTypeID: device.TypeFanDualSpeed, Address: "0b01"}
	existing := New(dev, "fan", ModelDualSpeed, &fakeControl{}, &fakeSource{rec: device.NewRecord(nil), available: true})
	if err := host.AddEntities([]entity.Entity{existing}); err != nil {
		t.Fatal(err)
	}

	p := setupParams(entry, host, gw)
	p.PollInterval = 5 * time.Millisecond
	err := entry.Setup(context.Background(), func(ctx context.Context, e *entity.ConfigEntry) error {
		_, err := Setup(ctx, p)
		return err
	})
	if !errors.Is(err, entity.ErrDuplicateEntity) {
		t.Fatalf("Setup() error = %v, want ErrDuplicateEntity", err)
	}
	if entry.State() != entity.EntryStateSetupError {
		t.Errorf("entry state = %s, want setup_error", entry.State())
	}

	got, err := host.Get("0b01_fan")
	if err != nil || got != entity.Entity(existing) {
		t.Errorf("Get(0b01_fan) = %v, %v, want the entity registered first", got, err)
	}
	if _, err := host.Get("0a12_fan"); !errors.Is(err, entity.ErrEntityNotFound) {
		t.Error("fan from the failed batch left behind")
	}

	// Only the two first refreshes ran; no coordinator started polling.
	time.Sleep(20 * time.Millisecond)
	if gw.queryCount() != 2 {
		t.Errorf("queries = %d, want 2", gw.queryCount())
	}
}

func TestSetup_Unload(t *testing.T) {
	gw := &fakeGateway{}
	host := entity.NewHost()
	entry := entity.NewConfigEntry("gw", "Gateway", "h", "s")

	p := setupParams(entry, host, gw)
	p.PollInterval = 5 * time.Millisecond
	err := entry.Setup(context.Background(), func(ctx context.Context, e *entity.ConfigEntry) error {
		_, err := Setup(ctx, p)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for gw.queryCount() < 4 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if gw.queryCount() < 4 {
		t.Fatalf("coordinators not polling: %d queries", gw.queryCount())
	}

	if err := entry.Unload(); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	if len(host.Entities()) != 0 {
		t.Errorf("entities after unload = %d", len(host.Entities()))
	}

	after := gw.queryCount()
	time.Sleep(20 * time.Millisecond)
	if gw.queryCount() != after {
		t.Error("coordinators still polling after unload")
	}
}

func TestSetup_InvalidParams(t *testing.T) {
	_, err := Setup(context.Background(), SetupParams{})
	if !errors.Is(err, ErrInvalidSetup) {
		t.Errorf("Setup() error = %v, want ErrInvalidSetup", err)
	}
}

func TestSetup_ServiceCallReachesGateway(t *testing.T) {
	gw := &fakeGateway{}
	host := entity.NewHost()
	entry := entity.NewConfigEntry("gw", "Gateway", "h", "s")

	err := entry.Setup(context.Background(), func(ctx context.Context, e *entity.ConfigEntry) error {
		_, err := Setup(ctx, setupParams(e, host, gw))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = entry.Unload() })

	call := entity.ServiceCall{Service: entity.ServiceTurnOn, Data: map[string]string{entity.AttrPresetMode: PresetHigh}}
	if err := host.Call(context.Background(), "0b01_fan", call); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	cmds := gw.commands()
	if len(cmds) != 2 || cmds[0].Identifier != device.PowerSwitch || cmds[1].Value != "3" {
		t.Errorf("commands = %v", cmds)
	}
	if gw.sent[0].address != "0b01" {
		t.Errorf("address = %q", gw.sent[0].address)
	}
}
