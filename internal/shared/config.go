package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Breaker   BreakerConfig   `toml:"breaker"`
	Callback  CallbackConfig  `toml:"callback"`
	Database  DatabaseConfig  `toml:"database"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Log       LogConfig       `toml:"log"`
}

// BackendConfig locates the statistics backend and how the session travels with each request.
type BackendConfig struct {
	BaseURL        string  `toml:"base_url" validate:"required,url"`
	SessionHeader  string  `toml:"session_header" validate:"required"`
	SessionCookie  string  `toml:"session_cookie" validate:"required"`
	TimeoutSeconds int     `toml:"timeout_seconds" validate:"min=0,max=300"`
	RateLimit      float64 `toml:"rate_limit" validate:"gte=0"`
	Burst          int     `toml:"burst" validate:"min=1"`
}

// BreakerConfig tunes the circuit breaker in front of the backend.
type BreakerConfig struct {
	Enabled          bool   `toml:"enabled"`
	MaxRequests      uint32 `toml:"max_requests" validate:"min=1"`
	IntervalSeconds  int    `toml:"interval_seconds" validate:"min=0"`
	TimeoutSeconds   int    `toml:"timeout_seconds" validate:"min=1"`
	FailureThreshold uint32 `toml:"failure_threshold" validate:"min=1"`
}

// CallbackConfig is the local listener the backend redirects to after login.
type CallbackConfig struct {
	Host           string `toml:"host" validate:"required"`
	Port           int    `toml:"port" validate:"min=0,max=65535"`
	Path           string `toml:"path" validate:"required,startswith=/"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"min=1"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"min=0"`
	MaxIdleConns int    `toml:"max_idle_conns" validate:"min=0"`
}

// DashboardConfig holds presentation defaults.
type DashboardConfig struct {
	TimeRange     string   `toml:"time_range" validate:"oneof=short_term medium_term long_term"`
	Palette       []string `toml:"palette" validate:"omitempty,dive,hexcolor"`
	SaveSnapshots bool     `toml:"save_snapshots"`
}

type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
	File  string `toml:"file"`
}

// Addr is the host:port the callback listener binds.
func (c CallbackConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL is the address the backend is expected to redirect the browser to.
func (c CallbackConfig) URL() string {
	return "http://" + c.Addr() + c.Path
}

func (c CallbackConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults. The result is validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig validates config and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	if err := ValidateConfig(config); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
