// Package device holds the Nexhome device model.
//
// It provides:
//   - Device, one physical device as reported by gateway discovery
//   - Record, the immutable attribute snapshot a coordinator publishes
//   - Catalog, the static mapping from device-type id to entity configs
//   - Registry and Repository, the cached and SQLite-backed device list
//   - StateHistoryRepository, a local audit trail of Record snapshots
//
// Records are never mutated in place. A coordinator builds a new Record on
// every refresh and swaps it in atomically, so readers always see a
// consistent snapshot:
//
//	rec := device.NewRecord(map[string]string{device.PowerSwitch: device.PowerOn})
//	v, ok := rec.Get(device.PowerSwitch) // "1", true
package device
