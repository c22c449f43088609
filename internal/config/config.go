// Package config provides configuration management for the pointer relay.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"padlink/internal/logging"
)

const appName = "padlink"

// Config represents the application configuration
type Config struct {
	// Server controls the HTTP/WebSocket listener
	Server ServerConfig `yaml:"server"`

	// Access controls which peers may connect
	Access AccessConfig `yaml:"access"`

	// Input selects the pointer backend
	Input InputConfig `yaml:"input"`

	// Log configures logging
	Log logging.Options `yaml:"log"`

	// General contains desktop integration settings
	General GeneralConfig `yaml:"general"`
}

// ServerConfig contains listener settings
type ServerConfig struct {
	// Host is the bind address (default: all interfaces)
	Host string `yaml:"host"`

	// Port is the listen port (default: 3030)
	Port int `yaml:"port"`

	// MaxFrameBytes caps a single WebSocket frame
	MaxFrameBytes int64 `yaml:"max_frame_bytes"`
}

// AccessConfig contains network admission settings
type AccessConfig struct {
	// AllowedNetworks are CIDR blocks admitted in addition to loopback and
	// private-use ranges (e.g. "100.64.0.0/10" for a tailnet)
	AllowedNetworks []string `yaml:"allowed_networks,omitempty"`
}

// InputConfig contains pointer backend settings
type InputConfig struct {
	// DryRun logs pointer events instead of injecting them
	DryRun bool `yaml:"dry_run"`
}

// GeneralConfig contains desktop integration settings
type GeneralConfig struct {
	// ShowTray shows the system tray icon
	ShowTray bool `yaml:"show_tray"`

	// StartOnBoot registers the app to start on login
	StartOnBoot bool `yaml:"start_on_boot"`

	// ManageFirewall opens the listen port in the Windows firewall
	ManageFirewall bool `yaml:"manage_firewall"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          3030,
			MaxFrameBytes: 64 * 1024,
		},
		Log: logging.NewOptions(),
		General: GeneralConfig{
			ShowTray:       true,
			StartOnBoot:    false,
			ManageFirewall: true,
		},
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxFrameBytes <= 0 {
		return fmt.Errorf("server.max_frame_bytes must be positive, got %d", c.Server.MaxFrameBytes)
	}
	for _, cidr := range c.Access.AllowedNetworks {
		if _, err := netip.ParsePrefix(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("access.allowed_networks: %w", err)
		}
	}
	return nil
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
}

// NewManager creates a configuration manager for path. An empty path uses
// the per-user default location.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}, nil
}

// DefaultPath returns the per-user configuration file path
func DefaultPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, appName)
	default:
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(dir, appName)
	}

	return filepath.Join(configDir, "config.yaml"), nil
}

// Path returns the file the manager reads and writes
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. Fields missing from the file keep
// their defaults; a missing file is not an error.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", m.configPath, err)
	}
	m.config = cfg
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := *m.config
	cfg.Access.AllowedNetworks = append([]string(nil), m.config.Access.AllowedNetworks...)
	return cfg
}

// Update applies fn to the configuration under the lock
func (m *Manager) Update(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.config)
}
