package device

import "slices"

// Platform is the kind of entity a device exposes to the host.
type Platform string

// Known platforms. Only fans are built by this module today; the others keep
// the catalogue faithful to what the gateway reports.
const (
	PlatformFan    Platform = "fan"
	PlatformSwitch Platform = "switch"
	PlatformLight  Platform = "light"
)

// Additional identifiers used by non-fan catalogue entries.
const (
	Brightness = "Brightness"
)

// EntityConfig describes one entity a device type exposes.
type EntityConfig struct {
	// Key distinguishes entities of the same device. It forms part of the
	// entity's unique id.
	Key string

	Platform Platform

	// Identifiers are the data identifiers the entity's coordinator polls.
	Identifiers []string
}

// Catalog maps a gateway device-type id to the entities that type exposes.
type Catalog map[string][]EntityConfig

// Device-type ids known to the catalogue.
const (
	TypeFanMultiSpeed = "10"
	TypeFanDualSpeed  = "133"
	TypeSwitch        = "1"
	TypeDimmer        = "2"
)

// DefaultCatalog returns the built-in device catalogue.
func DefaultCatalog() Catalog {
	fan := []EntityConfig{{
		Key:         "fan",
		Platform:    PlatformFan,
		Identifiers: []string{PowerSwitch, WindSpeed},
	}}

	return Catalog{
		TypeFanMultiSpeed: fan,
		TypeFanDualSpeed:  fan,
		TypeSwitch: {{
			Key:         "switch",
			Platform:    PlatformSwitch,
			Identifiers: []string{PowerSwitch},
		}},
		TypeDimmer: {{
			Key:         "light",
			Platform:    PlatformLight,
			Identifiers: []string{PowerSwitch, Brightness},
		}},
	}
}

// Lookup returns the entity configs for deviceTypeID.
// The returned slice is a copy.
func (c Catalog) Lookup(deviceTypeID string) ([]EntityConfig, bool) {
	configs, ok := c[deviceTypeID]
	if !ok {
		return nil, false
	}
	out := make([]EntityConfig, len(configs))
	for i, cfg := range configs {
		cfg.Identifiers = slices.Clone(cfg.Identifiers)
		out[i] = cfg
	}
	return out, true
}

// EntitiesFor returns the entity configs of deviceTypeID on platform.
func (c Catalog) EntitiesFor(deviceTypeID string, platform Platform) []EntityConfig {
	configs, _ := c.Lookup(deviceTypeID)
	var out []EntityConfig
	for _, cfg := range configs {
		if cfg.Platform == platform {
			out = append(out, cfg)
		}
	}
	return out
}
