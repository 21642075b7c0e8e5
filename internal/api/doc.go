// Package api implements the HTTP REST API and WebSocket stream for the
// Nexhome integration.
//
// It exposes entity state and service calls to user interfaces, the
// discovered device list with its state history, and a WebSocket stream of
// entity state changes.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
