package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appName = "liveset"

	// EnvBaseDir overrides base_dir from the config files.
	EnvBaseDir = "LIVESET_BASE_DIR"

	soundsDirName = "preloaded_sounds"
)

type Config struct {
	BaseDir      string `koanf:"base_dir"`      // library root parent; default xdg data home
	ResourcesDir string `koanf:"resources_dir"` // default <base_dir>/resources
	InboxDir     string `koanf:"inbox_dir"`     // watched by `liveset watch`

	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds" default:"10" validate:"gte=1"`

	Log      LogConfig      `koanf:"log"`
	Playback PlaybackConfig `koanf:"playback"`
	Timers   TimersConfig   `koanf:"timers"`
	Cues     CuesConfig     `koanf:"cues"`
	Ambient  AmbientConfig  `koanf:"ambient"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level      string `koanf:"level" default:"info" validate:"oneof=debug info warn warning error"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" default:"10" validate:"gte=1"`
	MaxBackups int    `koanf:"max_backups" default:"3" validate:"gte=0"`
}

// PlaybackConfig holds transport defaults.
type PlaybackConfig struct {
	PreviousGraceSeconds int    `koanf:"previous_grace_seconds" default:"5" validate:"gte=0"`
	Repeat               string `koanf:"repeat" default:"all" validate:"oneof=all one off"`
	Shuffle              bool   `koanf:"shuffle"`
}

// TimersConfig holds the match and break lengths.
type TimersConfig struct {
	MatchSeconds int  `koanf:"match_seconds" default:"300" validate:"gte=1"`
	BreakSeconds int  `koanf:"break_seconds" default:"300" validate:"gte=1"`
	Cycling      bool `koanf:"cycling"`
}

// CuesConfig names the cue sounds inside the preloaded sounds directory.
type CuesConfig struct {
	MatchStart     string `koanf:"match_start" default:"buzzer_debut_de_match.mp3"`
	MatchEnd       string `koanf:"match_end" default:"buzzer_fin_de_match.mp3"`
	FiveSeconds    string `koanf:"five_seconds" default:"five_seconds_countdown.mp3"`
	OneMinuteMatch string `koanf:"one_minute_match" default:"une_minute_restant_match.mp3"`
	OneMinuteBreak string `koanf:"one_minute_break" default:"une_minute_restant_pause.mp3"`
}

// AmbientConfig holds ambient track settings.
type AmbientConfig struct {
	Enabled *bool    `koanf:"enabled"` // default: true
	Seeds   []string `koanf:"seeds" default:"[\"rain-falling.ogg\",\"shreksophone.mp3\"]"`
}

// Load reads the config files, applies the environment and defaults, and
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies env overrides, defaults, path expansion and validation.
func (c *Config) finish() error {
	if dir := os.Getenv(EnvBaseDir); dir != "" {
		c.BaseDir = dir
	}
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("set defaults: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.BaseDir == "" {
		c.BaseDir = filepath.Join(xdg.DataHome, appName)
	}
	c.BaseDir = expandPath(c.BaseDir)

	if c.ResourcesDir == "" {
		c.ResourcesDir = filepath.Join(c.BaseDir, "resources")
	}
	c.ResourcesDir = expandPath(c.ResourcesDir)

	if c.InboxDir != "" {
		c.InboxDir = expandPath(c.InboxDir)
	}
	if c.Log.File != "" {
		c.Log.File = expandPath(c.Log.File)
	}
	return nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/liveset/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// SoundsDir is the directory holding cue sounds and ambient seeds.
func (c *Config) SoundsDir() string {
	return filepath.Join(c.ResourcesDir, soundsDirName)
}

// SoundPath resolves a cue file name. Empty names stay empty.
func (c *Config) SoundPath(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(c.SoundsDir(), name)
}

// AmbientSeeds returns the full paths of the ambient seed files.
func (c *Config) AmbientSeeds() []string {
	out := make([]string, 0, len(c.Ambient.Seeds))
	for _, s := range c.Ambient.Seeds {
		out = append(out, c.SoundPath(s))
	}
	return out
}

// AmbientEnabled reports whether breaks request the ambient track.
func (c *Config) AmbientEnabled() bool {
	return c.Ambient.Enabled == nil || *c.Ambient.Enabled
}

// PreviousGrace returns the previous-button grace window.
func (c *Config) PreviousGrace() time.Duration {
	return time.Duration(c.Playback.PreviousGraceSeconds) * time.Second
}

// MatchLength returns the match timer length.
func (c *Config) MatchLength() time.Duration {
	return time.Duration(c.Timers.MatchSeconds) * time.Second
}

// BreakLength returns the break timer length.
func (c *Config) BreakLength() time.Duration {
	return time.Duration(c.Timers.BreakSeconds) * time.Second
}

// ShutdownTimeout bounds the library save on exit.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// HasInbox returns true if a watch directory is configured.
func (c *Config) HasInbox() bool {
	return c.InboxDir != ""
}

// IsValidation reports whether err came from field validation.
func IsValidation(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
