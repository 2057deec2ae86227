package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Backend  BackendConfig  `toml:"backend"`
	Auth     AuthConfig     `toml:"auth"`
	Analysis AnalysisConfig `toml:"analysis"`
	Database DatabaseConfig `toml:"database"`
}

// ServerConfig contains gateway HTTP server settings.
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"`
}

// Addr returns the host:port listen address for the gateway.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig contains the upstream API and local model endpoint settings.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	OllamaURL      string `toml:"ollama_url"`
	APIToken       string `toml:"api_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the per-request timeout for upstream calls.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// AuthConfig contains session cookie settings.
type AuthConfig struct {
	SecureCookies          bool `toml:"secure_cookies"`
	AccessTokenTTLSeconds  int  `toml:"access_token_ttl_seconds"`
	RefreshTokenTTLSeconds int  `toml:"refresh_token_ttl_seconds"`
}

// AccessTokenTTL returns the access cookie lifetime (default 15 minutes).
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLSeconds) * time.Second
}

// RefreshTokenTTL returns the refresh cookie lifetime (default 7 days).
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	if a.RefreshTokenTTLSeconds <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.RefreshTokenTTLSeconds) * time.Second
}

// AnalysisConfig contains batch analysis timing settings.
type AnalysisConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	TaskTimeoutSeconds  int `toml:"task_timeout_seconds"`
	TaskDelaySeconds    int `toml:"task_delay_seconds"`
}

// PollInterval returns the status poll interval (default 1s).
func (a AnalysisConfig) PollInterval() time.Duration {
	if a.PollIntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(a.PollIntervalSeconds) * time.Second
}

// TaskTimeout returns the per-task give-up deadline (default 600s).
func (a AnalysisConfig) TaskTimeout() time.Duration {
	if a.TaskTimeoutSeconds <= 0 {
		return 600 * time.Second
	}
	return time.Duration(a.TaskTimeoutSeconds) * time.Second
}

// TaskDelay returns the pause between consecutive tasks (default 1s).
func (a AnalysisConfig) TaskDelay() time.Duration {
	if a.TaskDelaySeconds <= 0 {
		return time.Second
	}
	return time.Duration(a.TaskDelaySeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
