// Package config loads, defaults, and validates the kinobot configuration.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Model: ModelConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
		},
		Dialog: DialogConfig{
			MaxGenres: 1,
		},
		Admin: AdminConfig{
			Port: 18790,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
