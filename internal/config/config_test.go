package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Client.ServerURL != "http://localhost:5000" {
		t.Errorf("ServerURL = %q", cfg.Client.ServerURL)
	}
	if cfg.Client.DefaultPrep != 30 {
		t.Errorf("DefaultPrep = %d, want 30", cfg.Client.DefaultPrep)
	}
	if cfg.Server.BadWeatherMargin != 10 {
		t.Errorf("BadWeatherMargin = %d, want 10", cfg.Server.BadWeatherMargin)
	}
}

func TestLoadFromPath_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
client:
  server_url: "http://alarm.local:8080/"
  default_prep: 45
  sound: Bell
server:
  bad_weather: [" Rain ", "Fog"]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvWeatherAPIKey, "weather-key")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Client.ServerURL != "http://alarm.local:8080" {
		t.Errorf("trailing slash not trimmed: %q", cfg.Client.ServerURL)
	}
	if cfg.Client.DefaultPrep != 45 {
		t.Errorf("DefaultPrep = %d, want 45", cfg.Client.DefaultPrep)
	}
	if cfg.Client.Sound != "bell" {
		t.Errorf("Sound = %q, want bell", cfg.Client.Sound)
	}
	if cfg.Server.WeatherAPIKey != "weather-key" {
		t.Errorf("env override not applied: %q", cfg.Server.WeatherAPIKey)
	}
	if !cfg.Server.IsBadWeather("FOG") || cfg.Server.IsBadWeather("snow") {
		t.Errorf("bad weather list = %v", cfg.Server.BadWeather)
	}
	// Defaults for keys absent from the file survive.
	if cfg.Server.NominatimRate != 1 {
		t.Errorf("NominatimRate = %v, want 1", cfg.Server.NominatimRate)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad sound", "client:\n  sound: trumpet\n"},
		{"negative prep", "client:\n  default_prep: -5\n"},
		{"zero rate", "server:\n  nominatim_rate: 0\n"},
		{"not yaml", "client: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFromPath(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := Default()
	cfg.Client.DefaultPrep = 12
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Client.DefaultPrep != 12 {
		t.Errorf("DefaultPrep = %d, want 12", loaded.Client.DefaultPrep)
	}
}

func TestStoreWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("server:\n  bad_weather_margin: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}

	store := NewStore(path, cfg, log.New(os.Stderr))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := store.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("server:\n  bad_weather_margin: 25\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if store.Get().Server.BadWeatherMargin == 25 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("config not reloaded, margin = %d", store.Get().Server.BadWeatherMargin)
}

func TestStoreReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("client:\n  default_prep: 20\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(path, cfg, log.New(os.Stderr))

	if err := os.WriteFile(path, []byte("client:\n  sound: kazoo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if store.Get().Client.DefaultPrep != 20 {
		t.Errorf("previous config lost: %+v", store.Get().Client)
	}
}
