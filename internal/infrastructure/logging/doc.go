// Package logging provides structured logging for the energy sensors service.
//
// It wraps log/slog so every component logs through the same handler with
// the service and version attributes attached.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("event stored", "event_id", id, "device_id", rec.DeviceID)
//
// Telegram payloads can be large; log their length, not their content.
package logging
