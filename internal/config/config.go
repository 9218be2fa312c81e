package config

import (
	"fmt"
	"time"
)

// Config holds client and gateway configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MagicLinkPerMin   int           `mapstructure:"magic_link_rate_limit" yaml:"magic_link_rate_limit"`

	API  APIConfig  `mapstructure:"api" yaml:"api"`
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`
}

// APIConfig locates the upstream game server.
type APIConfig struct {
	Protocol string        `mapstructure:"protocol" yaml:"protocol"`
	Host     string        `mapstructure:"host" yaml:"host"`
	Port     int           `mapstructure:"port" yaml:"port"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// BaseURL joins protocol, host and port.
func (a APIConfig) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", a.Protocol, a.Host, a.Port)
}

// AuthConfig configures the magic-link identity provider. Auth is enabled
// only when both SupabaseURL and SupabaseAnonKey are set.
type AuthConfig struct {
	SupabaseURL     string `mapstructure:"supabase_url" yaml:"supabase_url"`
	SupabaseAnonKey string `mapstructure:"supabase_anon_key" yaml:"supabase_anon_key"`
	PublicURL       string `mapstructure:"public_url" yaml:"public_url"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "tombola.db",
		PollInterval:      2 * time.Second,
		MagicLinkPerMin:   10,
		API: APIConfig{
			Protocol: "http",
			Host:     "127.0.0.1",
			Port:     3000,
			Timeout:  10 * time.Second,
		},
		Auth: AuthConfig{
			PublicURL: "http://localhost:8080",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.PollInterval != 0 {
		c.PollInterval = other.PollInterval
	}
	if other.MagicLinkPerMin != 0 {
		c.MagicLinkPerMin = other.MagicLinkPerMin
	}
	if other.API.Protocol != "" {
		c.API.Protocol = other.API.Protocol
	}
	if other.API.Host != "" {
		c.API.Host = other.API.Host
	}
	if other.API.Port != 0 {
		c.API.Port = other.API.Port
	}
	if other.API.Timeout != 0 {
		c.API.Timeout = other.API.Timeout
	}
	if other.Auth.SupabaseURL != "" {
		c.Auth.SupabaseURL = other.Auth.SupabaseURL
	}
	if other.Auth.SupabaseAnonKey != "" {
		c.Auth.SupabaseAnonKey = other.Auth.SupabaseAnonKey
	}
	if other.Auth.PublicURL != "" {
		c.Auth.PublicURL = other.Auth.PublicURL
	}
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port (must be between 1-65535 inclusive): %d", c.API.Port)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	return nil
}
