package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadKeybindingsFromPath_NonExistent(t *testing.T) {
	cfg, err := LoadKeybindingsFromPath("/nonexistent/path/keybindings.yaml")
	if err != nil {
		t.Errorf("Expected no error for nonexistent file, got: %v", err)
	}
	if cfg != nil {
		t.Errorf("Expected nil config for nonexistent file, got: %v", cfg)
	}
}

func TestLoadKeybindingsFromPath_EmptyPath(t *testing.T) {
	cfg, err := LoadKeybindingsFromPath("")
	if err != nil {
		t.Errorf("Expected no error for empty path, got: %v", err)
	}
	if cfg != nil {
		t.Errorf("Expected nil config for empty path, got: %v", cfg)
	}
}

func TestLoadKeybindingsFromPath_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "keybindings.yaml")

	yaml := `
down:
  keys: ["ctrl+n", "ctrl+j"]
  help: "next"
submit:
  keys: ["ctrl+s"]
`
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadKeybindingsFromPath(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Down == nil || len(cfg.Down.Keys) != 2 {
		t.Fatalf("Expected 2 down keys, got %+v", cfg.Down)
	}
	if cfg.Down.Help != "next" {
		t.Errorf("Expected down help 'next', got %q", cfg.Down.Help)
	}
	if cfg.Submit == nil || cfg.Submit.Keys[0] != "ctrl+s" {
		t.Errorf("Expected submit key ctrl+s, got %+v", cfg.Submit)
	}
	if cfg.Up != nil {
		t.Errorf("Expected up to be unset, got %+v", cfg.Up)
	}
}

func TestLoadKeybindingsFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "keybindings.yaml")
	if err := os.WriteFile(configPath, []byte("down: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := LoadKeybindingsFromPath(configPath); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestGenerateDefaultConfigYAMLParses(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	if err := os.WriteFile(configPath, []byte(GenerateDefaultConfigYAML()), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("default YAML does not load: %v", err)
	}
	if cfg.Keybindings == nil || cfg.Keybindings.Down == nil {
		t.Fatal("expected keybindings section to be parsed")
	}
}

func TestKeybindingsPath(t *testing.T) {
	got := KeybindingsPath(filepath.Join("home", "me", ".config", "wakeup", "config.yml"))
	want := filepath.Join("home", "me", ".config", "wakeup", "keybindings.yml")
	if got != want {
		t.Errorf("KeybindingsPath = %q, want %q", got, want)
	}
	if KeybindingsPath("") != "" {
		t.Error("empty config path should give no keybindings path")
	}
}

func TestMergeKeybindings(t *testing.T) {
	base := &KeybindingsConfig{
		Down:   &KeybindingConfig{Keys: []string{"ctrl+n"}},
		Submit: &KeybindingConfig{Keys: []string{"ctrl+s"}},
	}
	override := &KeybindingsConfig{
		Submit: &KeybindingConfig{Keys: []string{"ctrl+g"}},
		Quit:   &KeybindingConfig{Keys: []string{"ctrl+q"}},
	}

	merged := MergeKeybindings(base, override)
	if merged.Down == nil || merged.Down.Keys[0] != "ctrl+n" {
		t.Errorf("Down = %+v, want kept from base", merged.Down)
	}
	if merged.Submit.Keys[0] != "ctrl+g" {
		t.Errorf("Submit = %+v, want override", merged.Submit)
	}
	if merged.Quit == nil || merged.Quit.Keys[0] != "ctrl+q" {
		t.Errorf("Quit = %+v, want override", merged.Quit)
	}
	if base.Submit.Keys[0] != "ctrl+s" {
		t.Error("merge modified base")
	}

	if MergeKeybindings(nil, override) != override {
		t.Error("nil base should return override")
	}
	if MergeKeybindings(base, nil) != base {
		t.Error("nil override should return base")
	}
}
