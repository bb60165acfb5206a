package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"tuneharvest/internal/shared"
)

const (
	DefaultRequestTimeout   = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultArtworkSizeToken = "100x100"
	DefaultArtworkUpscale   = "2048x2048"
	DefaultConfigFileName   = "config.json"
)

// Duration wraps time.Duration so config files can carry "30s" style values
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// plain number of seconds
		var secs float64
		if err2 := json.Unmarshal(data, &secs); err2 != nil {
			return fmt.Errorf("invalid duration %s: %w", string(data), err)
		}
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Configuration structure
type Config struct {
	DestinationDir      string   `json:"DestinationDir" toml:"destination_dir"`
	TempDir             string   `json:"TempDir" toml:"temp_dir"`
	Format              string   `json:"Format" toml:"format"`
	Bitrate             string   `json:"Bitrate" toml:"bitrate"`
	SampleRate          int      `json:"SampleRate" toml:"sample_rate"`
	Channels            int      `json:"Channels" toml:"channels"`
	Providers           []string `json:"Providers" toml:"providers"`
	ParallelProviders   bool     `json:"ParallelProviders" toml:"parallel_providers"`
	Country             string   `json:"Country" toml:"country"`
	FilenamePlaceholder string   `json:"FilenamePlaceholder" toml:"filename_placeholder"`
	ArtworkSizeToken    string   `json:"ArtworkSizeToken" toml:"artwork_size_token"`
	ArtworkUpscaleToken string   `json:"ArtworkUpscaleToken" toml:"artwork_upscale_token"`
	SaveAlbumArt        bool     `json:"SaveAlbumArt" toml:"save_album_art"`
	RequestTimeout      Duration `json:"RequestTimeout" toml:"request_timeout"`
	MaxRetryAttempts    int      `json:"MaxRetryAttempts" toml:"max_retry_attempts"`
	SpotifyClientID     string   `json:"SpotifyClientID" toml:"spotify_client_id"`
	SpotifyClientSecret string   `json:"SpotifyClientSecret" toml:"spotify_client_secret"`
	LastFMAPIKey        string   `json:"LastFMAPIKey" toml:"lastfm_api_key"`
	NavidromeURL        string   `json:"NavidromeURL" toml:"navidrome_url"`
	NavidromeUsername   string   `json:"NavidromeUsername" toml:"navidrome_username"`
	NavidromePassword   string   `json:"NavidromePassword" toml:"navidrome_password"`
	WarningBehavior     string   `json:"WarningBehavior" toml:"warning_behavior"` // "immediate", "summary", or "silent"
}

// DefaultConfig returns the documented defaults.
// Destination is ~/Music and the working area lives under the user cache dir.
func DefaultConfig() *Config {
	dest := "~/Music"
	temp := filepath.Join(os.TempDir(), "tuneharvest")
	if cacheDir, err := os.UserCacheDir(); err == nil {
		temp = filepath.Join(cacheDir, "tuneharvest")
	}
	return &Config{
		DestinationDir:      dest,
		TempDir:             temp,
		Format:              "mp3",
		Bitrate:             "320",
		SampleRate:          44100,
		Channels:            2,
		Providers:           []string{"itunes", "spotify", "gaana"},
		Country:             "US",
		FilenamePlaceholder: shared.DefaultFilenamePlaceholder,
		ArtworkSizeToken:    DefaultArtworkSizeToken,
		ArtworkUpscaleToken: DefaultArtworkUpscale,
		RequestTimeout:      Duration{DefaultRequestTimeout},
		MaxRetryAttempts:    DefaultMaxRetries,
		WarningBehavior:     "summary",
	}
}

// DefaultConfigPath returns <user config dir>/tuneharvest/config.json
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "tuneharvest", DefaultConfigFileName)
}

func isTOML(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".toml")
}

// LoadConfig decodes the file onto config, so fields the file omits keep their current values.
// Files ending in .toml are read as TOML, everything else as JSON.
func LoadConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if isTOML(filePath) {
		if _, err := toml.Decode(string(data), config); err != nil {
			return fmt.Errorf("failed to decode toml config: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a JSON or TOML file depending on its extension
func SaveConfig(filePath string, config *Config) error {
	var data []byte
	if isTOML(filePath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("failed to encode toml config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}
	if err := shared.CreateDirIfNotExists(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var supportedFormats = map[string]bool{"mp3": true, "flac": true}

// Validate checks the configuration and expands ~ in directory fields
func (cfg *Config) Validate() error {
	cfg.DestinationDir = shared.ExpandHome(strings.TrimSpace(cfg.DestinationDir))
	cfg.TempDir = shared.ExpandHome(strings.TrimSpace(cfg.TempDir))

	if cfg.DestinationDir == "" {
		return fmt.Errorf("destination directory must be set")
	}
	if cfg.TempDir == "" {
		return fmt.Errorf("temp directory must be set")
	}
	if filepath.Clean(cfg.DestinationDir) == filepath.Clean(cfg.TempDir) {
		return fmt.Errorf("destination and temp directory must differ (%s)", cfg.TempDir)
	}

	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if !supportedFormats[cfg.Format] {
		return fmt.Errorf("unsupported output format %q (supported: mp3, flac)", cfg.Format)
	}
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", cfg.Channels)
	}
	if cfg.Format == "mp3" && strings.TrimSpace(cfg.Bitrate) == "" {
		return fmt.Errorf("bitrate must be set for mp3 output")
	}

	if len(cfg.Providers) == 0 {
		return fmt.Errorf("at least one metadata provider must be configured")
	}
	if _, err := cfg.ProviderOrder(); err != nil {
		return err
	}
	if strings.ContainsAny(cfg.FilenamePlaceholder, `/\`) {
		return fmt.Errorf("filename placeholder %q must not contain a path separator", cfg.FilenamePlaceholder)
	}
	if cfg.RequestTimeout.Duration <= 0 {
		cfg.RequestTimeout = Duration{DefaultRequestTimeout}
	}
	if cfg.MaxRetryAttempts < 0 {
		return fmt.Errorf("max retry attempts cannot be negative")
	}
	switch cfg.WarningBehavior {
	case "", "immediate", "summary", "silent":
	default:
		return fmt.Errorf("unknown warning behavior %q", cfg.WarningBehavior)
	}
	return nil
}

// ProviderOrder parses Providers into the fixed priority list, dropping duplicates
func (cfg *Config) ProviderOrder() ([]shared.Provider, error) {
	seen := make(map[shared.Provider]bool)
	var order []shared.Provider
	for _, name := range cfg.Providers {
		p, err := shared.ParseProvider(name)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		order = append(order, p)
	}
	return order, nil
}

// AudioTarget returns the transcoding target described by the config
func (cfg *Config) AudioTarget() shared.AudioTarget {
	return shared.AudioTarget{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Bitrate:    cfg.Bitrate,
		Format:     cfg.Format,
	}
}
