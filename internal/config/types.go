package config

// Config is the root configuration for kinobot.
type Config struct {
	Model    ModelConfig    `yaml:"model,omitempty"`
	Channels ChannelsConfig `yaml:"channels,omitempty"`
	Dialog   DialogConfig   `yaml:"dialog,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	Admin    AdminConfig    `yaml:"admin,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// ModelConfig selects and configures the generation backend.
type ModelConfig struct {
	Provider string `yaml:"provider,omitempty"` // "gemini"
	APIKey   string `yaml:"apiKey,omitempty"`
	Model    string `yaml:"model,omitempty"` // model ID, e.g. "gemini-2.0-flash"
}

// ChannelsConfig defines the transport channels. A nil entry leaves that
// channel disabled.
type ChannelsConfig struct {
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`
	IRC      *IRCConfig      `yaml:"irc,omitempty"`
}

// TelegramConfig defines the Telegram Bot API channel.
type TelegramConfig struct {
	Token       string `yaml:"token"`
	PollSeconds int    `yaml:"pollSeconds,omitempty"` // long-poll timeout, default 50
}

// IRCConfig defines the IRC channel.
type IRCConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port,omitempty"`
	Nick     string `yaml:"nick"`
	Password string `yaml:"password,omitempty"`
	UseTLS   bool   `yaml:"useTLS,omitempty"`
	SASL     bool   `yaml:"sasl,omitempty"`
}

// DialogConfig tunes the conversation flow.
type DialogConfig struct {
	MaxGenres int `yaml:"maxGenres,omitempty"` // 1..3, default 1
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"` // default <data dir>/kinobot.db
}

// AdminConfig controls the optional admin status server.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Port    int    `yaml:"port,omitempty"` // default 18790
	Token   string `yaml:"token,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" ... "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
