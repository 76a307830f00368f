package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. NOTIFY_SERVER_PORT or NOTIFY_DISPATCHER_PACING.
const EnvPrefix = "NOTIFY"

// defaults lists every known key. Viper only unmarshals environment values
// for keys it already knows, so each key must appear here.
var defaults = map[string]any{
	"server.port":                 8080,
	"server.log_level":            "info",
	"server.shutdown_timeout":     10 * time.Second,
	"database.driver":             "memory",
	"database.url":                "",
	"auth.jwt_secret":             "",
	"auth.token_lifetime":         time.Hour,
	"dispatcher.pacing":           100 * time.Millisecond,
	"dispatcher.recover_on_start": true,
	"channels.email_latency":      300 * time.Millisecond,
	"channels.sms_latency":        200 * time.Millisecond,
	"channels.push_latency":       150 * time.Millisecond,
}

// Load configuration from environment variables and optionally a config file
// named config.{yaml,json,toml} in the working directory.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
