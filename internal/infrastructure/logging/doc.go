// Package logging provides structured logging for the bridge.
//
// This package wraps Go's standard log/slog package. Every entry carries
// service=obsosc and the build version; subsystems add component=<name>.
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
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Component("obs").Info("connected", "url", cfg.OBS.URL)
//
// Never log the OBS or MQTT passwords.
package logging
