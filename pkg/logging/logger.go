// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// ConfigFromSettings derives the logger configuration from the
// MINICRM_LOG_LEVEL and MINICRM_LOG_PRETTY settings.
func ConfigFromSettings(s config.Settings) Config {
	cfg := DefaultConfig()
	if s.LogLevel != "" {
		cfg.Level = LogLevel(s.LogLevel)
	}
	cfg.Pretty = s.LogPretty
	return cfg
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Component derives a component logger from base, or from the global
// logger when base is nil.
func Component(base *zerolog.Logger, component string) zerolog.Logger {
	if base == nil {
		return NewLogger(component)
	}
	return base.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss, key, TTL)
//   - Event bus traffic and fired timers
//   - Discarded stale search results
//
// Info: Normal operation events
//   - Successful webhook calls
//   - Navigation transitions
//   - Created qualifications and generated documents
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Retry attempts
//   - Retry-After blocks on a webhook
//   - Failed searches (reported as no results)
//   - Cache errors (the call proceeds uncached)
//
// Error: Error conditions requiring attention
//   - Failed calls (after retries)
//   - Event handler failures and panics
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package
//   - webhook: logical webhook name
//   - request_id: request envelope id
//   - attempt: 1-based attempt number
//   - status: HTTP status code
//   - error_class: timeout, network, client, server, protocol, application
//   - cache_key: session cache key
//   - event: event bus topic
//   - timer: debounce timer name
//   - query, seq: search query and its dispatch sequence number
