package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/petems/voicevault/internal/audio"
	"github.com/petems/voicevault/internal/features"
)

const (
	DefaultLogLevel        = "info"
	DefaultRecordSeconds   = 5
	DefaultChannels        = 2
	DefaultRate            = 44100
	DefaultFramesPerBuffer = 1024
)

type Config struct {
	LogLevel      string         `yaml:"log_level"`
	Audio         AudioConfig    `yaml:"audio"`
	RecordSeconds float64        `yaml:"record_seconds"`
	ClipPath      string         `yaml:"clip_path"` // empty: a fresh temp file per run
	Models        []string       `yaml:"models"`    // ordered; order is tie-break priority
	HistoryPath   string         `yaml:"history_path"`
	ModelsCache   string         `yaml:"models_cache"`
	Features      FeaturesConfig `yaml:"features"`
}

type AudioConfig struct {
	Device          string `yaml:"device"` // empty: system default input
	Format          string `yaml:"format"` // "int16" or "int32"
	Channels        int    `yaml:"channels"`
	Rate            int    `yaml:"rate"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
}

type FeaturesConfig struct {
	NumCoefficients int     `yaml:"n_mfcc"`
	FFTSize         int     `yaml:"n_fft"`
	HopSize         int     `yaml:"hop"`
	NumMels         int     `yaml:"n_mels"`
	TrimTopDB       float64 `yaml:"trim_top_db"`
}

// Default returns the built-in configuration.
func Default() *Config {
	fc := features.DefaultConfig()
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Format:          string(audio.Int16),
			Channels:        DefaultChannels,
			Rate:            DefaultRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
		RecordSeconds: DefaultRecordSeconds,
		HistoryPath:   HistoryPath(),
		ModelsCache:   ModelsPath(),
		Features: FeaturesConfig{
			NumCoefficients: fc.NumCoefficients,
			FFTSize:         fc.FFTSize,
			HopSize:         fc.HopSize,
			NumMels:         fc.NumMels,
			TrimTopDB:       fc.TrimTopDB,
		},
	}
}

// Loader reads the config file and applies environment overrides. Tests
// can set Lookup to inject a deterministic environment.
type Loader struct {
	Path   string // empty: platform default
	Lookup func(string) (string, bool)
}

// Load reads the config from disk, or returns defaults when the file does
// not exist, then applies overrides and validates the result.
func (l Loader) Load() (*Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	path := l.Path
	if path == "" {
		path = configPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	overrideString(l.Lookup, "VOICEVAULT_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "VOICEVAULT_DEVICE", &cfg.Audio.Device)
	overrideString(l.Lookup, "VOICEVAULT_HISTORY", &cfg.HistoryPath)
	if raw, ok := l.Lookup("VOICEVAULT_MODELS"); ok && strings.TrimSpace(raw) != "" {
		cfg.Models = splitList(raw)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the config at the default path with the process environment.
func Load() (*Config, error) {
	return Loader{}.Load()
}

// Save writes the config to path, or to the platform default if path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = configPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings that cannot be defaulted at use time.
func (c *Config) Validate() error {
	if c.RecordSeconds <= 0 {
		return fmt.Errorf("config: record_seconds must be positive, got %v", c.RecordSeconds)
	}
	if err := c.StreamParams().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	f := c.Features
	if f.NumCoefficients <= 0 || f.FFTSize <= 0 || f.HopSize <= 0 || f.NumMels <= 0 {
		return fmt.Errorf("config: features n_mfcc, n_fft, hop and n_mels must be positive")
	}
	if f.NumCoefficients > f.NumMels {
		return fmt.Errorf("config: n_mfcc %d exceeds n_mels %d", f.NumCoefficients, f.NumMels)
	}
	if f.TrimTopDB <= 0 {
		return fmt.Errorf("config: trim_top_db must be positive, got %v", f.TrimTopDB)
	}
	return nil
}

// StreamParams returns the capture parameters for an input stream.
func (c *Config) StreamParams() audio.StreamParams {
	return audio.StreamParams{
		Format:          audio.SampleFormat(c.Audio.Format),
		Channels:        c.Audio.Channels,
		Rate:            c.Audio.Rate,
		FramesPerBuffer: c.Audio.FramesPerBuffer,
		Input:           true,
		Device:          c.Audio.Device,
	}
}

// FeatureConfig returns the extractor settings.
func (c *Config) FeatureConfig() features.Config {
	fc := features.DefaultConfig()
	fc.NumCoefficients = c.Features.NumCoefficients
	fc.FFTSize = c.Features.FFTSize
	fc.HopSize = c.Features.HopSize
	fc.NumMels = c.Features.NumMels
	fc.TrimTopDB = c.Features.TrimTopDB
	return fc
}

// RecordDuration returns RecordSeconds as a time.Duration.
func (c *Config) RecordDuration() time.Duration {
	return time.Duration(c.RecordSeconds * float64(time.Second))
}

// ClipDestination returns where the next recording goes: ClipPath if
// set, otherwise a new uniquely named file in the temp directory.
func (c *Config) ClipDestination() string {
	if c.ClipPath != "" {
		return c.ClipPath
	}
	return filepath.Join(os.TempDir(), "voicevault-"+uuid.NewString()+".wav")
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "voicevault", "config.yaml")
}

// ModelsPath returns the platform-specific cache for downloaded model artifacts
func ModelsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "voicevault", "models")
}

// HistoryPath returns the platform-specific history log path
func HistoryPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/state"
		}
	}

	return filepath.Join(base, "voicevault", "history.txt")
}
