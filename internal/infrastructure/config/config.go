package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Terminal  TerminalConfig  `toml:"terminal" yaml:"terminal"`
	Logging   LogConfig       `toml:"logging" yaml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	CORS      CORSConfig      `toml:"cors" yaml:"cors"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          string   `envconfig:"PORT" toml:"port" yaml:"port"`
	Host          string   `envconfig:"HOST" toml:"host" yaml:"host"`
	ShutdownGrace Duration `envconfig:"SHUTDOWN_GRACE" toml:"shutdown_grace" yaml:"shutdown_grace"`
	// MaxConnections caps concurrently open client connections; 0 is unlimited.
	MaxConnections int `envconfig:"MAX_CONNECTIONS" toml:"max_connections" yaml:"max_connections"`
}

// TerminalConfig holds pty session settings.
type TerminalConfig struct {
	// Shell overrides the platform default shell when set.
	Shell            string   `envconfig:"TERMHUB_SHELL" toml:"shell" yaml:"shell"`
	Term             string   `envconfig:"TERMHUB_TERM" toml:"term" yaml:"term"`
	Cols             int      `envconfig:"TERMHUB_COLS" toml:"cols" yaml:"cols"`
	Rows             int      `envconfig:"TERMHUB_ROWS" toml:"rows" yaml:"rows"`
	KillTimeout      Duration `envconfig:"TERMHUB_KILL_TIMEOUT" toml:"kill_timeout" yaml:"kill_timeout"`
	ShutdownTimeout  Duration `envconfig:"TERMHUB_SHUTDOWN_TIMEOUT" toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	DrainTimeout     Duration `envconfig:"TERMHUB_DRAIN_TIMEOUT" toml:"drain_timeout" yaml:"drain_timeout"`
	SubscriberBuffer int      `envconfig:"TERMHUB_SUBSCRIBER_BUFFER" toml:"subscriber_buffer" yaml:"subscriber_buffer"`
	// AllowedDirs are doublestar patterns a requested cwd must match.
	AllowedDirs []string `envconfig:"TERMHUB_ALLOWED_DIRS" toml:"allowed_dirs" yaml:"allowed_dirs"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled" yaml:"enabled"`
}

// CORSConfig holds allowed origins for the HTTP and WebSocket surface.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" toml:"origins" yaml:"origins"`
}

// Duration is a time.Duration that decodes from strings such as "5s" in
// environment variables, TOML and YAML alike.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load loads configuration from environment variables on top of defaults.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile layers defaults, then the file at path (if any), then environment
// variables. The file format is chosen by extension: .toml, .yaml or .yml.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "127.0.0.1",
			ShutdownGrace:  Duration(5 * time.Second),
			MaxConnections: 256,
		},
		Terminal: TerminalConfig{
			Term:             "xterm-256color",
			Cols:             80,
			Rows:             24,
			KillTimeout:      Duration(5 * time.Second),
			ShutdownTimeout:  Duration(10 * time.Second),
			DrainTimeout:     Duration(500 * time.Millisecond),
			SubscriberBuffer: 256,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
