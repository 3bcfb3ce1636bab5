package config

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is wrapped by every ConfigError.
var ErrNotConfigured = errors.New("not configured")

// ConfigError reports a lookup of a name outside the registry's enumerated
// set. It signals a programming error and should fail fast.
type ConfigError struct {
	// Kind is the table that was searched ("webhook", "element").
	Kind string
	// Name is the unknown key.
	Name string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %q %s", e.Kind, e.Name, ErrNotConfigured)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConfigError) Unwrap() error {
	return ErrNotConfigured
}
