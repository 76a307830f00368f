package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" validate:"required"`
	Channels   ChannelsConfig   `mapstructure:"channels"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig selects and configures the persistence backend.
type DatabaseConfig struct {
	// Driver is either "memory" or "postgres".
	Driver string `mapstructure:"driver" validate:"required,oneof=memory postgres"`
	// URL is required when Driver is "postgres".
	URL string `mapstructure:"url" validate:"required_if=Driver postgres,omitempty,url"`
}

// AuthConfig contains API authentication settings.
// An empty JWTSecret disables bearer-token checks on the API.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	// TokenLifetime bounds tokens issued by cmd/issue-token.
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
}

// DispatcherConfig tunes the notification drain loop.
type DispatcherConfig struct {
	// Pacing is the pause between two processed records.
	Pacing time.Duration `mapstructure:"pacing" validate:"gte=0"`
	// RecoverOnStart re-queues records left in queued state by a previous process.
	RecoverOnStart bool `mapstructure:"recover_on_start"`
}

// ChannelsConfig holds the simulated dispatch latency of each channel.
type ChannelsConfig struct {
	EmailLatency time.Duration `mapstructure:"email_latency" validate:"gte=0"`
	SMSLatency   time.Duration `mapstructure:"sms_latency"   validate:"gte=0"`
	PushLatency  time.Duration `mapstructure:"push_latency"  validate:"gte=0"`
}
