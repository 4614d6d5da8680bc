// internal/config/errors.go
package config

import "fmt"

// ConfigurationError is an invalid startup parameter.
// It is fatal: the watchdog never starts with one.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}
