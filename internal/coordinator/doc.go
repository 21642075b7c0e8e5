// Package coordinator keeps a polled snapshot of one device's state.
//
// A Coordinator queries the gateway for a fixed set of identifiers on an
// interval and publishes the result as an immutable device.Record. Entities
// read the current record with Data and subscribe to changes with
// AddListener.
//
// FirstRefresh is called once during setup. It fails with ErrNotReady when
// the gateway cannot be reached, and the caller should retry setup later
// rather than create entities with no data.
//
// Changed records are fanned out to Recorders, which persist them in the
// SQLite state history and InfluxDB.
package coordinator
