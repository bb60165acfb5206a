package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"tuneharvest/internal/shared"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DestinationDir = t.TempDir()
	cfg.TempDir = t.TempDir()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}

	order, err := cfg.ProviderOrder()
	if err != nil {
		t.Fatalf("ProviderOrder failed: %v", err)
	}
	want := []shared.Provider{shared.ProviderITunes, shared.ProviderSpotify, shared.ProviderGaana}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected provider order %v, got %v", want, order)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := DefaultConfig()
			cfg.DestinationDir = "/srv/music"
			cfg.Providers = []string{"deezer", "itunes"}
			cfg.RequestTimeout = Duration{45 * time.Second}
			cfg.SaveAlbumArt = true

			if err := SaveConfig(path, cfg); err != nil {
				t.Fatalf("SaveConfig failed: %v", err)
			}

			loaded := &Config{}
			if err := LoadConfig(path, loaded); err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if !reflect.DeepEqual(cfg, loaded) {
				t.Errorf("round trip mismatch:\nsaved  %+v\nloaded %+v", cfg, loaded)
			}
		})
	}
}

func TestLoadConfigKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	content := "destination_dir = \"/data/library\"\nrequest_timeout = \"5s\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadConfig(path, cfg); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DestinationDir != "/data/library" {
		t.Errorf("expected destination from file, got %s", cfg.DestinationDir)
	}
	if cfg.RequestTimeout.Duration != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.Format != "mp3" || cfg.SampleRate != 44100 || cfg.Channels != 2 {
		t.Errorf("defaults lost: format=%s rate=%d channels=%d", cfg.Format, cfg.SampleRate, cfg.Channels)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Providers = []string{"napster"} }},
		{"no providers", func(c *Config) { c.Providers = nil }},
		{"bad format", func(c *Config) { c.Format = "wma" }},
		{"placeholder with slash", func(c *Config) { c.FilenamePlaceholder = "/" }},
		{"same dirs", func(c *Config) { c.TempDir = c.DestinationDir }},
		{"zero channels", func(c *Config) { c.Channels = 0 }},
		{"bad warning behavior", func(c *Config) { c.WarningBehavior = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DestinationDir = "/tmp/dest"
			cfg.TempDir = "/tmp/work"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestProviderOrderDropsDuplicates(t *testing.T) {
	cfg := &Config{Providers: []string{"iTunes", "gaana", "itunes", " spotify "}}
	order, err := cfg.ProviderOrder()
	if err != nil {
		t.Fatal(err)
	}
	want := []shared.Provider{shared.ProviderITunes, shared.ProviderGaana, shared.ProviderSpotify}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}
