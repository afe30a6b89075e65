package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"obs-text-slides/internal/logging"
)

// Overlay transport modes
const (
	ModeChannel = "channel"
	ModeJSON    = "json"
)

// Config is the full application configuration
type Config struct {
	Server  ServerConfig   `toml:"server"`
	TLS     TLSConfig      `toml:"tls"`
	Storage StorageConfig  `toml:"storage"`
	Hotkeys HotkeyConfig   `toml:"hotkeys"`
	Overlay OverlayConfig  `toml:"overlay"`
	Log     logging.Config `toml:"log"`
}

// ServerConfig configures the dock HTTP server
type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
	CORS bool   `toml:"cors"`
}

// TLSConfig configures optional HTTPS
type TLSConfig struct {
	Enabled    bool   `toml:"enabled"`
	CertFile   string `toml:"cert_file"`
	KeyFile    string `toml:"key_file"`
	MinVersion string `toml:"min_version"`
}

// StorageConfig locates the durable snapshot and the published state file
type StorageConfig struct {
	DataDir   string `toml:"data_dir"`
	DBPath    string `toml:"db_path"`
	StateFile string `toml:"state_file"`
	StateKey  string `toml:"state_key"`
}

// HotkeyConfig configures the hotkey command file bridge
type HotkeyConfig struct {
	File           string `toml:"file"`
	PollIntervalMs int    `toml:"poll_interval_ms"`
}

// OverlayConfig configures the display surface
type OverlayConfig struct {
	ServerURL      string `toml:"server_url"`
	Mode           string `toml:"mode"`
	StatePath      string `toml:"state_path"`
	PollIntervalMs int    `toml:"poll_interval_ms"`
	OutFile        string `toml:"out_file"`
	Debug          bool   `toml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8787",
			CORS: true,
		},
		TLS: TLSConfig{
			MinVersion: "1.2",
		},
		Storage: StorageConfig{
			DataDir:   "./data",
			StateFile: "slides.state.json",
			StateKey:  "obsTextSlides.state",
		},
		Hotkeys: HotkeyConfig{
			File:           "hotkeys.js",
			PollIntervalMs: 1000,
		},
		Overlay: OverlayConfig{
			ServerURL:      "http://127.0.0.1:8787",
			Mode:           ModeChannel,
			StatePath:      "/data/slides.state.json",
			PollIntervalMs: 1000,
		},
		Log: logging.DefaultConfig,
	}
}

// LoadConfig builds the configuration from defaults, the TOML file at path
// (or the per-user config file when path is empty) and environment
// overrides, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = configFilePath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("tls.cert_file and tls.key_file are required when TLS is enabled")
	}
	switch c.Overlay.Mode {
	case ModeChannel, ModeJSON:
	default:
		return fmt.Errorf("overlay.mode must be %q or %q, got %q", ModeChannel, ModeJSON, c.Overlay.Mode)
	}
	if c.Hotkeys.PollIntervalMs < 0 || c.Overlay.PollIntervalMs < 0 {
		return fmt.Errorf("poll intervals must not be negative")
	}
	return nil
}

// Addr returns the listen address of the dock server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// DBPath returns the sqlite database path, defaulting into the data dir.
func (c *Config) DBPath() string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return filepath.Join(c.Storage.DataDir, "slides.db")
}

// StateFilePath returns the published snapshot path.
func (c *Config) StateFilePath() string {
	return resolveInDataDir(c.Storage.DataDir, c.Storage.StateFile)
}

// HotkeyFilePath returns the hotkey command file path.
func (c *Config) HotkeyFilePath() string {
	return resolveInDataDir(c.Storage.DataDir, c.Hotkeys.File)
}

// HotkeyPollInterval returns the hotkey poll interval.
func (c *Config) HotkeyPollInterval() time.Duration {
	return millis(c.Hotkeys.PollIntervalMs)
}

// OverlayPollInterval returns the overlay's snapshot poll interval.
func (c *Config) OverlayPollInterval() time.Duration {
	return millis(c.Overlay.PollIntervalMs)
}

func millis(ms int) time.Duration {
	if ms <= 0 {
		ms = 1000
	}
	return time.Duration(ms) * time.Millisecond
}

func resolveInDataDir(dataDir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dataDir, name)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SLIDES_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SLIDES_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("SLIDES_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = expandTilde(v)
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.DBPath = expandTilde(v)
	}
	if v := os.Getenv("SLIDES_SERVER_URL"); v != "" {
		cfg.Overlay.ServerURL = v
	}
	if v := os.Getenv("SLIDES_OVERLAY_MODE"); v != "" {
		cfg.Overlay.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("SLIDES_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Overlay.PollIntervalMs = ms
		}
	}
	if v := os.Getenv("SLIDES_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SLIDES_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	cfg.Storage.DataDir = expandTilde(cfg.Storage.DataDir)
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "obs-text-slides")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "obs-text-slides")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
