package fan

import (
	"context"
	"time"

	"github.com/nerrad567/nexhome-core/internal/coordinator"
	"github.com/nerrad567/nexhome-core/internal/device"
	"github.com/nerrad567/nexhome-core/internal/entity"
	"github.com/nerrad567/nexhome-core/internal/gateway"
)

// ControlClient sends commands to devices.
type ControlClient interface {
	DeviceControl(ctx context.Context, cmd gateway.Command, address string) error
}

// RecordSource provides the device's last known record.
// *coordinator.Coordinator implements it.
type RecordSource interface {
	Data() *device.Record
	LastUpdateSuccess() bool
	LastUpdate() time.Time
	AddListener(l coordinator.Listener) (remove func())
}

// TurnOnOptions are the optional arguments of TurnOn.
type TurnOnOptions struct {
	// PresetMode, when set, is applied after the power-on command.
	PresetMode string
}

// Fan is one fan entity.
//
// A Fan holds only its identity and collaborators. Every read goes through
// the record source, and every write is a separate gateway command, so a Fan
// needs no locking.
type Fan struct {
	dev    device.Device
	key    string
	model  Model
	vocab  Vocabulary
	client ControlClient
	source RecordSource
}

// New creates a fan for dev. key is the catalogue entity key.
func New(dev device.Device, key string, model Model, client ControlClient, source RecordSource) *Fan {
	return &Fan{
		dev:    dev,
		key:    key,
		model:  model,
		vocab:  model.Vocabulary(),
		client: client,
		source: source,
	}
}

// Model returns the fan's hardware model.
func (f *Fan) Model() Model { return f.model }

// Address returns the device's network address.
func (f *Fan) Address() string { return f.dev.Address }

// IsOn reports whether PowerSwitch is "1". Any other value, or none, is off.
func (f *Fan) IsOn() bool {
	return isOn(f.source.Data())
}

func isOn(rec *device.Record) bool {
	v, _ := rec.Get(device.PowerSwitch)
	return v == device.PowerOn
}

// TurnOn powers the fan on and, if opts names a preset, sets it with a
// second command. The two commands are independent: if the first fails the
// second is not sent, and nothing orders them against a concurrent refresh.
func (f *Fan) TurnOn(ctx context.Context, opts TurnOnOptions) error {
	if err := f.send(ctx, device.PowerSwitch, device.PowerOn); err != nil {
		return err
	}
	if opts.PresetMode == "" {
		return nil
	}
	return f.SetPresetMode(ctx, opts.PresetMode)
}

// TurnOff powers the fan off.
func (f *Fan) TurnOff(ctx context.Context) error {
	return f.send(ctx, device.PowerSwitch, device.PowerOff)
}

// PresetModes returns the labels this fan supports.
func (f *Fan) PresetModes() []string {
	return f.vocab.Labels()
}

// PresetMode decodes the current WindSpeed. It reports false when the value
// is missing or not in the fan's vocabulary.
func (f *Fan) PresetMode() (string, bool) {
	return f.presetMode(f.source.Data())
}

func (f *Fan) presetMode(rec *device.Record) (string, bool) {
	code, ok := rec.Get(device.WindSpeed)
	if !ok {
		return "", false
	}
	return f.vocab.Decode(code)
}

// SetPresetMode sends the WindSpeed code for label. Labels outside the fan's
// vocabulary are ignored and nil is returned.
func (f *Fan) SetPresetMode(ctx context.Context, label string) error {
	code, ok := f.vocab.Encode(label)
	if !ok {
		return nil
	}
	return f.send(ctx, device.WindSpeed, code)
}

// send forwards one command; client errors are returned unchanged.
func (f *Fan) send(ctx context.Context, identifier, value string) error {
	return f.client.DeviceControl(ctx, gateway.Command{Identifier: identifier, Value: value}, f.dev.Address)
}

// UniqueID is "{address}_{key}".
func (f *Fan) UniqueID() string {
	return f.dev.Address + "_" + f.key
}

func (f *Fan) Name() string { return f.dev.DisplayName() }

func (f *Fan) Platform() device.Platform { return device.PlatformFan }

// Available reports whether the last refresh succeeded.
func (f *Fan) Available() bool {
	return f.source.LastUpdateSuccess()
}

func (f *Fan) SupportedFeatures() entity.Feature {
	return entity.FeaturePresetMode | entity.FeatureTurnOn | entity.FeatureTurnOff
}

// State builds the user-facing state from a single record, so power and
// preset always come from the same refresh.
func (f *Fan) State() entity.State {
	rec := f.source.Data()
	s := entity.State{
		EntityID:          f.UniqueID(),
		Platform:          string(device.PlatformFan),
		Name:              f.Name(),
		SupportedFeatures: f.SupportedFeatures(),
		LastUpdated:       f.source.LastUpdate(),
		Attributes: map[string]any{
			entity.AttrPresetModes: f.PresetModes(),
			entity.AttrPresetMode:  nil,
			"address":              f.dev.Address,
			"device_type_id":       f.dev.DeviceTypeID,
			"model":                f.model.String(),
		},
	}

	switch {
	case !f.Available():
		s.State = entity.StateUnavailable
	case isOn(rec):
		s.State = entity.StateOn
	default:
		s.State = entity.StateOff
	}

	if preset, ok := f.presetMode(rec); ok {
		s.Attributes[entity.AttrPresetMode] = preset
	}
	return s
}

// HandleService dispatches a host service call.
func (f *Fan) HandleService(ctx context.Context, call entity.ServiceCall) error {
	switch call.Service {
	case entity.ServiceTurnOn:
		preset, _ := call.Get(entity.AttrPresetMode)
		return f.TurnOn(ctx, TurnOnOptions{PresetMode: preset})
	case entity.ServiceTurnOff:
		return f.TurnOff(ctx)
	case entity.ServiceSetPresetMode:
		preset, _ := call.Get(entity.AttrPresetMode)
		return f.SetPresetMode(ctx, preset)
	default:
		return entity.ErrUnsupportedService
	}
}

// Watch calls fn whenever the coordinator publishes a change.
func (f *Fan) Watch(fn func()) (remove func()) {
	return f.source.AddListener(func(*device.Record) { fn() })
}
