// Package logging provides structured logging for the Nexhome integration.
//
// It wraps log/slog so every component logs with the same handler, level
// filtering and default fields (service, version).
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	fanLog := logger.Component("fan")
//	fanLog.Info("fan added", "entity_id", id)
//
// Never log the gateway password or the InfluxDB token.
package logging
