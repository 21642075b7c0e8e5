package device

import (
	"maps"
	"slices"
	"time"
)

// Data identifiers reported by the gateway for fan devices.
const (
	PowerSwitch = "PowerSwitch"
	WindSpeed   = "WindSpeed"
)

// Encoded PowerSwitch values.
const (
	PowerOn  = "1"
	PowerOff = "0"
)

// Device is one physical device as reported by gateway discovery.
// Address and DeviceTypeID never change for the lifetime of a device.
type Device struct {
	DeviceTypeID string    `json:"device_type_id"`
	Address      string    `json:"address"`
	Name         string    `json:"name"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName returns Name, or the address when the gateway gave no name.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Address
}

// Record is the last-known attribute snapshot for one device, keyed by
// data identifier. A Record is immutable once built; refreshes replace the
// whole value.
type Record struct {
	values map[string]string
}

// NewRecord builds a Record from values. The map is copied.
func NewRecord(values map[string]string) *Record {
	return &Record{values: maps.Clone(values)}
}

// Get returns the raw value for identifier. Nil records and absent
// identifiers report ("", false).
func (r *Record) Get(identifier string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[identifier]
	return v, ok
}

// Values returns a copy of the snapshot.
func (r *Record) Values() map[string]string {
	if r == nil {
		return map[string]string{}
	}
	out := maps.Clone(r.values)
	if out == nil {
		out = map[string]string{}
	}
	return out
}

// Len returns the number of identifiers held.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.values)
}

// Identifiers returns the held identifiers, sorted.
func (r *Record) Identifiers() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.values))
}

// Equal reports whether two records hold the same values.
func (r *Record) Equal(other *Record) bool {
	return maps.Equal(r.Values(), other.Values())
}
