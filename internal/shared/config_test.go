package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Library.Dir != "./music" {
			t.Errorf("expected library dir ./music, got %s", config.Library.Dir)
		}

		if config.Library.Extension != ".mp3" {
			t.Errorf("expected extension .mp3, got %s", config.Library.Extension)
		}

		if config.Voice.ConnectTimeout() != 30*time.Second {
			t.Errorf("expected connect timeout 30s, got %s", config.Voice.ConnectTimeout())
		}

		if config.Voice.ReconnectGrace() != 5*time.Second {
			t.Errorf("expected reconnect grace 5s, got %s", config.Voice.ReconnectGrace())
		}

		if config.Provider.BaseURL != "http://127.0.0.1:8080" {
			t.Errorf("expected provider base URL http://127.0.0.1:8080, got %s", config.Provider.BaseURL)
		}

		if config.Provider.StallWindow() != 10*time.Second {
			t.Errorf("expected stall window 10s, got %s", config.Provider.StallWindow())
		}

		if config.Playback.Policy != "round_robin" {
			t.Errorf("expected playback policy round_robin, got %s", config.Playback.Policy)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Library.Dir != defaultConfig.Library.Dir {
			t.Errorf("created config library dir doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[voice]
channel = "lounge"
transport = "local"
connect_timeout_secs = 10
reconnect_grace_secs = 2

[library]
dir = "/srv/music"
extension = ".mp3"
fuzzy_threshold = 0.4
local_results = 3
remote_results = 8

[provider]
base_url = "http://localhost:9090"
rate_limit = 1.0
download_timeout_secs = 60
stall_window_secs = 5

[playback]
policy = "shuffle"
volume = 80

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Voice.Channel != "lounge" {
			t.Errorf("expected channel lounge, got %s", config.Voice.Channel)
		}

		if config.Library.Dir != "/srv/music" {
			t.Errorf("expected library dir /srv/music, got %s", config.Library.Dir)
		}

		if config.Provider.DownloadTimeout() != 60*time.Second {
			t.Errorf("expected download timeout 60s, got %s", config.Provider.DownloadTimeout())
		}

		if config.Playback.Policy != "shuffle" {
			t.Errorf("expected playback policy shuffle, got %s", config.Playback.Policy)
		}
	})

	t.Run("LoadConfigMissingFile", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
