package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid. Missing
// collaborator credentials are validation failures: startup must abort
// rather than run a bot that cannot talk to its model or transport.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Model.Provider != "gemini" {
		issues = append(issues, ValidationIssue{
			Path:    "model.provider",
			Message: fmt.Sprintf("must be %q, got %q", "gemini", cfg.Model.Provider),
		})
	}
	if cfg.Model.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "model.apiKey",
			Message: "API key is required",
		})
	}

	if cfg.Channels.Telegram == nil && cfg.Channels.IRC == nil {
		issues = append(issues, ValidationIssue{
			Path:    "channels",
			Message: "at least one channel must be configured",
		})
	}

	if tg := cfg.Channels.Telegram; tg != nil {
		if tg.Token == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.telegram.token",
				Message: "token is required",
			})
		}
		if tg.PollSeconds < 0 || tg.PollSeconds > 90 {
			issues = append(issues, ValidationIssue{
				Path:    "channels.telegram.pollSeconds",
				Message: fmt.Sprintf("must be 0-90, got %d", tg.PollSeconds),
			})
		}
	}

	if irc := cfg.Channels.IRC; irc != nil {
		if irc.Server == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.server",
				Message: "server is required",
			})
		}
		if irc.Nick == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.nick",
				Message: "nick is required",
			})
		}
		if irc.Port < 0 || irc.Port > 65535 {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.port",
				Message: fmt.Sprintf("port must be 0-65535, got %d", irc.Port),
			})
		}
		if irc.SASL && irc.Password == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.sasl",
				Message: "SASL requires a password to be set",
			})
		}
	}

	if cfg.Dialog.MaxGenres < 1 || cfg.Dialog.MaxGenres > 3 {
		issues = append(issues, ValidationIssue{
			Path:    "dialog.maxGenres",
			Message: fmt.Sprintf("must be 1-3, got %d", cfg.Dialog.MaxGenres),
		})
	}

	if cfg.Admin.Enabled {
		if cfg.Admin.Port < 1 || cfg.Admin.Port > 65535 {
			issues = append(issues, ValidationIssue{
				Path:    "admin.port",
				Message: fmt.Sprintf("port must be 1-65535, got %d", cfg.Admin.Port),
			})
		}
		if cfg.Admin.Token == "" {
			issues = append(issues, ValidationIssue{
				Path:    "admin.token",
				Message: "token is required when the admin server is enabled",
			})
		}
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
