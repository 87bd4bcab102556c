package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Session   SessionConfig
	Mux       MuxConfig
	Project   ProjectConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the HTTP ops surface configuration.
type ServerConfig struct {
	Port    string `envconfig:"PORT" default:"8090"`
	Host    string `envconfig:"HOST" default:"127.0.0.1"`
	Enabled bool   `envconfig:"HTTP_ENABLED" default:"false"`
}

// SessionConfig holds bounded-read and buffer settings shared by all
// session media.
type SessionConfig struct {
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"500ms"`
	ReadQuietWindow time.Duration `envconfig:"READ_QUIET_WINDOW" default:"50ms"`
	ReadBufferLimit int           `envconfig:"READ_BUFFER_LIMIT" default:"1048576"`
	StopGrace       time.Duration `envconfig:"STOP_GRACE" default:"2s"`
}

// MuxConfig holds terminal-multiplexer settings.
type MuxConfig struct {
	Binary string `envconfig:"TMUX_BINARY" default:"tmux"`
	Socket string `envconfig:"TMUX_SOCKET" default:""`
}

// ProjectConfig holds the project registry location.
type ProjectConfig struct {
	BaseDir string `envconfig:"BASE_DIR" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	File        string `envconfig:"LOG_FILE" default:""`
}

// RateLimitConfig holds rate limiting for the HTTP ops surface.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from PTYBRIDGE_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("PTYBRIDGE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.applyFallbacks()
	return &cfg, nil
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
	cfg := &Config{
		Server: ServerConfig{
			Port:    "8090",
			Host:    "127.0.0.1",
			Enabled: false,
		},
		Session: SessionConfig{
			ReadTimeout:     500 * time.Millisecond,
			ReadQuietWindow: 50 * time.Millisecond,
			ReadBufferLimit: 1 << 20,
			StopGrace:       2 * time.Second,
		},
		Mux: MuxConfig{
			Binary: "tmux",
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
	}
	cfg.applyFallbacks()
	return cfg
}

// applyFallbacks fills values that depend on the runtime environment.
func (c *Config) applyFallbacks() {
	if c.Project.BaseDir == "" {
		c.Project.BaseDir = defaultBaseDir()
	}
}

// defaultBaseDir resolves the XDG data directory for the project registry.
func defaultBaseDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "ptybridge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ptybridge")
	}
	return filepath.Join(home, ".local", "share", "ptybridge")
}
