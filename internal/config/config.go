// Package config loads the wakeup configuration file and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvConfigPath    = "WAKEUP_CONFIG"
	EnvServerURL     = "WAKEUP_SERVER"
	EnvDBPath        = "WAKEUP_DB_PATH"
	EnvORSAPIKey     = "WAKEUP_ORS_API_KEY"
	EnvWeatherAPIKey = "WAKEUP_WEATHER_API_KEY"
)

// Fixed timings of the form controller.
const (
	AutocompleteDebounce = 300 * time.Millisecond
	CalculateTimeout     = 15 * time.Second
)

// Config is the full configuration file.
type Config struct {
	Client      ClientConfig       `yaml:"client"`
	Server      ServerConfig       `yaml:"server"`
	Keybindings *KeybindingsConfig `yaml:"keybindings,omitempty"`
}

// ClientConfig configures the terminal form.
type ClientConfig struct {
	ServerURL   string `yaml:"server_url"`
	DefaultPrep int    `yaml:"default_prep"` // minutes
	Sound       string `yaml:"sound"`        // "tone", "bell" or "none"
	Mouse       bool   `yaml:"mouse"`
	DBPath      string `yaml:"db_path"`
}

// ServerConfig configures wakeupd.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	SSHAddr     string `yaml:"ssh_addr"` // empty disables the SSH front end
	HostKeyPath string `yaml:"host_key_path"`
	DBPath      string `yaml:"db_path"`
	UserAgent   string `yaml:"user_agent"`

	NominatimURL string `yaml:"nominatim_url"`
	ORSURL       string `yaml:"ors_url"`
	WeatherURL   string `yaml:"weather_url"`

	ORSAPIKey     string `yaml:"ors_api_key"`
	WeatherAPIKey string `yaml:"weather_api_key"`

	// BadWeather lists weather conditions (lowercase) that add BadWeatherMargin.
	BadWeather       []string `yaml:"bad_weather"`
	BadWeatherMargin int      `yaml:"bad_weather_margin"` // minutes

	// NominatimRate is the allowed request rate against Nominatim, per second.
	NominatimRate float64 `yaml:"nominatim_rate"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			ServerURL:   "http://localhost:5000",
			DefaultPrep: 30,
			Sound:       "tone",
			Mouse:       true,
			DBPath:      filepath.Join(dataDir(), "client.db"),
		},
		Server: ServerConfig{
			Addr:             ":5000",
			HostKeyPath:      filepath.Join(dataDir(), "ssh_host_ed25519"),
			DBPath:           filepath.Join(dataDir(), "wakeupd.db"),
			UserAgent:        "wakeupd/1.0",
			NominatimURL:     "https://nominatim.openstreetmap.org",
			ORSURL:           "https://api.openrouteservice.org",
			WeatherURL:       "https://api.openweathermap.org",
			BadWeather:       []string{"rain", "storm", "snow"},
			BadWeatherMargin: 10,
			NominatimRate:    1,
		},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return expandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wakeup", "config.yml")
}

func dataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "wakeup")
}

// DataDir returns the directory holding databases and logs.
func DataDir() string {
	return dataDir()
}

// Load reads the default config file and applies environment overrides.
func Load() (*Config, error) {
	return LoadFromPath(DefaultPath())
}

// LoadFromPath reads a config file. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.Client.ServerURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Client.DBPath = v
		c.Server.DBPath = v
	}
	if v := os.Getenv(EnvORSAPIKey); v != "" {
		c.Server.ORSAPIKey = v
	}
	if v := os.Getenv(EnvWeatherAPIKey); v != "" {
		c.Server.WeatherAPIKey = v
	}
	if v := os.Getenv("WAKEUP_DEFAULT_PREP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Client.DefaultPrep = n
		}
	}
}

func (c *Config) normalize() {
	c.Client.ServerURL = strings.TrimRight(c.Client.ServerURL, "/")
	c.Client.DBPath = expandPath(c.Client.DBPath)
	c.Server.DBPath = expandPath(c.Server.DBPath)
	c.Server.HostKeyPath = expandPath(c.Server.HostKeyPath)
	c.Client.Sound = strings.ToLower(strings.TrimSpace(c.Client.Sound))
	for i, w := range c.Server.BadWeather {
		c.Server.BadWeather[i] = strings.ToLower(strings.TrimSpace(w))
	}
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	if c.Client.ServerURL == "" {
		return fmt.Errorf("client.server_url is required")
	}
	if c.Client.DefaultPrep < 0 {
		return fmt.Errorf("client.default_prep must not be negative")
	}
	switch c.Client.Sound {
	case "", "tone", "bell", "none":
	default:
		return fmt.Errorf("client.sound must be tone, bell or none, got %q", c.Client.Sound)
	}
	if c.Server.BadWeatherMargin < 0 {
		return fmt.Errorf("server.bad_weather_margin must not be negative")
	}
	if c.Server.NominatimRate <= 0 {
		return fmt.Errorf("server.nominatim_rate must be positive")
	}
	return nil
}

// IsBadWeather reports whether a weather condition adds the margin.
func (s *ServerConfig) IsBadWeather(condition string) bool {
	condition = strings.ToLower(condition)
	for _, w := range s.BadWeather {
		if w == condition {
			return true
		}
	}
	return false
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
