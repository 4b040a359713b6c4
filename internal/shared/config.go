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
	API      APIConfig      `toml:"api"`
	OAuth    OAuthConfig    `toml:"oauth"`
	Database DatabaseConfig `toml:"database"`
	Batch    BatchConfig    `toml:"batch"`
	Policy   PolicyConfig   `toml:"policy"`
}

// APIConfig contains review backend connection settings.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxRetries     int     `toml:"max_retries"`
	BaseDelayMS    int     `toml:"base_delay_ms"`
	BulkRateLimit  float64 `toml:"bulk_rate_limit"`
}

// OAuthConfig contains credentials for the backend's authorization code flow.
type OAuthConfig struct {
	ClientID    string `toml:"client_id"`
	AuthURL     string `toml:"auth_url"`
	TokenURL    string `toml:"token_url"`
	RedirectURI string `toml:"redirect_uri"`
}

// DatabaseConfig contains session store settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// BatchConfig contains batch move orchestration settings.
type BatchConfig struct {
	UndoWindowSeconds     int `toml:"undo_window_seconds"`
	ReportIntervalSeconds int `toml:"report_interval_seconds"`
}

// PolicyConfig contains policy poller settings.
type PolicyConfig struct {
	DefaultIntervalSeconds int `toml:"default_interval_seconds"`
}

// Timeout returns the HTTP client timeout as a [time.Duration].
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// BaseDelay returns the first retry backoff step as a [time.Duration].
func (a APIConfig) BaseDelay() time.Duration {
	if a.BaseDelayMS <= 0 {
		return 0
	}
	return time.Duration(a.BaseDelayMS) * time.Millisecond
}

// UndoWindow returns the batch undo window as a [time.Duration].
func (b BatchConfig) UndoWindow() time.Duration {
	if b.UndoWindowSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(b.UndoWindowSeconds) * time.Second
}

// ReportInterval returns the batch report polling interval as a [time.Duration].
func (b BatchConfig) ReportInterval() time.Duration {
	if b.ReportIntervalSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(b.ReportIntervalSeconds) * time.Second
}

// DefaultInterval returns the poller's fallback interval as a [time.Duration].
func (p PolicyConfig) DefaultInterval() time.Duration {
	if p.DefaultIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.DefaultIntervalSeconds) * time.Second
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
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
