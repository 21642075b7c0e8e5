package entity

import (
	"context"
	"time"

	"github.com/nerrad567/nexhome-core/internal/device"
)

// Feature is a bit set of optional capabilities an entity supports.
type Feature uint32

// Fan features. Values match the platform's published fan flags.
const (
	FeaturePresetMode Feature = 8
	FeatureTurnOff    Feature = 16
	FeatureTurnOn     Feature = 32
)

// Has reports whether every bit of want is set.
func (f Feature) Has(want Feature) bool {
	return f&want == want
}

// Service names accepted by Host.Call.
const (
	ServiceTurnOn        = "turn_on"
	ServiceTurnOff       = "turn_off"
	ServiceSetPresetMode = "set_preset_mode"
)

// AttrPresetMode is the service data key and state attribute for the
// active preset.
const AttrPresetMode = "preset_mode"

// AttrPresetModes is the state attribute listing the available presets.
const AttrPresetModes = "preset_modes"

// State strings.
const (
	StateOn          = "on"
	StateOff         = "off"
	StateUnavailable = "unavailable"
)

// serviceFeature maps each service to the feature it requires.
var serviceFeature = map[string]Feature{
	ServiceTurnOn:        FeatureTurnOn,
	ServiceTurnOff:       FeatureTurnOff,
	ServiceSetPresetMode: FeaturePresetMode,
}

// ServiceCall is one user action aimed at an entity.
type ServiceCall struct {
	Service string            `json:"service"`
	Data    map[string]string `json:"data,omitempty"`
}

// Get returns the value of key in the call data.
func (c ServiceCall) Get(key string) (string, bool) {
	v, ok := c.Data[key]
	return v, ok
}

// State is a point-in-time view of an entity, as shown to users.
type State struct {
	EntityID          string         `json:"entity_id"`
	Platform          string         `json:"platform"`
	Name              string         `json:"name"`
	State             string         `json:"state"`
	Attributes        map[string]any `json:"attributes,omitempty"`
	SupportedFeatures Feature        `json:"supported_features"`
	LastUpdated       time.Time      `json:"last_updated"`
}

// Entity is one controllable thing exposed to users.
type Entity interface {
	// UniqueID is stable across restarts.
	UniqueID() string
	Name() string
	Platform() device.Platform
	Available() bool
	SupportedFeatures() Feature
	State() State

	// HandleService performs call. The host has already checked that the
	// service is supported.
	HandleService(ctx context.Context, call ServiceCall) error
}

// Watcher is implemented by entities that can report their own changes.
type Watcher interface {
	Watch(fn func()) (remove func())
}
