package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// KeybindingConfig represents a single keybinding configuration.
type KeybindingConfig struct {
	Keys []string `yaml:"keys"` // Key(s) that trigger the action
	Help string   `yaml:"help"` // Help text displayed in the UI
}

// KeybindingsConfig holds the customizable form keybindings.
// Keys listed here are added to the built-in arrow/enter/esc handling of the
// suggestion list; they never remove it.
type KeybindingsConfig struct {
	Up      *KeybindingConfig `yaml:"up,omitempty"`
	Down    *KeybindingConfig `yaml:"down,omitempty"`
	Select  *KeybindingConfig `yaml:"select,omitempty"`
	Dismiss *KeybindingConfig `yaml:"dismiss,omitempty"`
	Next    *KeybindingConfig `yaml:"next,omitempty"`
	Prev    *KeybindingConfig `yaml:"prev,omitempty"`
	Submit  *KeybindingConfig `yaml:"submit,omitempty"`
	Quit    *KeybindingConfig `yaml:"quit,omitempty"`
}

// KeybindingsPath returns the standalone keybindings file that sits next to
// the config file at configPath.
func KeybindingsPath(configPath string) string {
	if configPath == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(configPath), "keybindings.yml")
}

// MergeKeybindings returns base with every action set in override replaced.
// Either may be nil.
func MergeKeybindings(base, override *KeybindingsConfig) *KeybindingsConfig {
	if override == nil {
		return base
	}
	if base == nil {
		return override
	}
	merged := *base
	pick := func(dst **KeybindingConfig, src *KeybindingConfig) {
		if src != nil {
			*dst = src
		}
	}
	pick(&merged.Up, override.Up)
	pick(&merged.Down, override.Down)
	pick(&merged.Select, override.Select)
	pick(&merged.Dismiss, override.Dismiss)
	pick(&merged.Next, override.Next)
	pick(&merged.Prev, override.Prev)
	pick(&merged.Submit, override.Submit)
	pick(&merged.Quit, override.Quit)
	return &merged
}

// LoadKeybindingsFromPath loads a standalone keybindings file.
// Returns nil if the file doesn't exist (not an error - just use defaults).
func LoadKeybindingsFromPath(path string) (*KeybindingsConfig, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var config KeybindingsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GenerateDefaultConfigYAML returns an annotated example config file.
func GenerateDefaultConfigYAML() string {
	return `# wakeup configuration
client:
  server_url: "http://localhost:5000"
  default_prep: 30        # minutes
  sound: tone             # tone, bell or none
  mouse: true

server:
  addr: ":5000"
  ssh_addr: ""            # e.g. ":2222" to serve the form over SSH
  ors_api_key: ""
  weather_api_key: ""
  bad_weather: [rain, storm, snow]
  bad_weather_margin: 10  # minutes
  nominatim_rate: 1       # requests per second

# Extra keys for the form. Arrow keys, enter and esc always work.
keybindings:
  down:
    keys: ["ctrl+n"]
    help: "next suggestion"
  up:
    keys: ["ctrl+p"]
    help: "prev suggestion"
`
}
