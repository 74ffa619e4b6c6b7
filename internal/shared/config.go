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
	Voice    VoiceConfig    `toml:"voice"`
	Library  LibraryConfig  `toml:"library"`
	Provider ProviderConfig `toml:"provider"`
	Playback PlaybackConfig `toml:"playback"`
	Server   ServerConfig   `toml:"server"`
}

// VoiceConfig contains voice transport settings.
type VoiceConfig struct {
	Channel            string `toml:"channel"`
	Transport          string `toml:"transport"`
	ConnectTimeoutSecs int    `toml:"connect_timeout_secs"`
	ReconnectGraceSecs int    `toml:"reconnect_grace_secs"`
}

// ConnectTimeout returns the bounded wait for a dialed session to reach ready.
func (v VoiceConfig) ConnectTimeout() time.Duration {
	return time.Duration(v.ConnectTimeoutSecs) * time.Second
}

// ReconnectGrace returns the window allowed for transport-level recovery after a drop.
func (v VoiceConfig) ReconnectGrace() time.Duration {
	return time.Duration(v.ReconnectGraceSecs) * time.Second
}

// LibraryConfig contains local track library settings.
type LibraryConfig struct {
	Dir            string  `toml:"dir"`
	Extension      string  `toml:"extension"`
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	LocalResults   int     `toml:"local_results"`
	RemoteResults  int     `toml:"remote_results"`
}

// ProviderConfig contains remote media provider settings.
type ProviderConfig struct {
	BaseURL             string  `toml:"base_url"`
	RateLimit           float64 `toml:"rate_limit"`
	DownloadTimeoutSecs int     `toml:"download_timeout_secs"`
	StallWindowSecs     int     `toml:"stall_window_secs"`
}

// DownloadTimeout returns the overall bound for one download+transcode job.
func (p ProviderConfig) DownloadTimeout() time.Duration {
	return time.Duration(p.DownloadTimeoutSecs) * time.Second
}

// StallWindow returns the interval without progress after which a job is aborted.
func (p ProviderConfig) StallWindow() time.Duration {
	return time.Duration(p.StallWindowSecs) * time.Second
}

// PlaybackConfig contains playback defaults.
type PlaybackConfig struct {
	Policy string `toml:"policy"`
	Volume int    `toml:"volume"`
}

// ServerConfig contains settings for the library upload HTTP service.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
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
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidConfig)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
