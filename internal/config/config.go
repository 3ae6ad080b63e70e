// Package config loads tada settings from defaults, TOML files and the
// environment. CLI flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/idilsaglam/tada/internal/kv"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todos"
)

// ErrUnknownBackend is reported by Validate for a backend kv.Open would refuse.
var ErrUnknownBackend = kv.ErrUnknownBackend

// Config is the full set of settings.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

type StorageConfig struct {
	Backend string `toml:"backend"` // file, sqlite or memory
	Path    string `toml:"path"`    // directory (file) or database file (sqlite)
	Key     string `toml:"key"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type UIConfig struct {
	Theme  string `toml:"theme"`
	Filter string `toml:"filter"`
}

const (
	defaultDataDir = ".tada"
	sqliteFileName = "tada.sqlite"
)

// Project config file names, checked in the working directory.
var projectFiles = []string{"tada.toml", ".tada.toml"}

// Default returns the built-in settings.
func Default() *Config {
	lo := logging.DefaultOptions()
	return &Config{
		Storage: StorageConfig{Backend: kv.BackendFile, Key: todos.DefaultKey},
		Log:     LogConfig{Level: lo.Level, Format: lo.Format},
		UI:      UIConfig{Theme: "classic", Filter: string(model.FilterAll)},
	}
}

// Load builds the config in priority order:
//  1. Defaults
//  2. User config file ($XDG_CONFIG_HOME/tada/config.toml)
//  3. explicit path if given, otherwise tada.toml or .tada.toml in the working directory
//  4. Environment variables (TADA_*)
func Load(explicit string) (*Config, error) {
	cfg := Default()

	if p := userConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", p, err)
		}
	}

	if explicit != "" {
		if err := loadFile(cfg, explicit); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
	} else if p := projectConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", p, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func userConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "tada", "config.toml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func projectConfigFile() string {
	for _, name := range projectFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func (c *Config) applyEnv() {
	set := func(dst *string, name string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	set(&c.Storage.Backend, "TADA_BACKEND")
	set(&c.Storage.Path, "TADA_PATH")
	set(&c.Storage.Key, "TADA_KEY")
	set(&c.Log.Level, "TADA_LOG_LEVEL")
	set(&c.Log.Format, "TADA_LOG_FORMAT")
	set(&c.UI.Theme, "TADA_THEME")
	set(&c.UI.Filter, "TADA_FILTER")
}

// Validate rejects values no component accepts.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case kv.BackendFile, kv.BackendSQLite, kv.BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if err := kv.CheckKey(c.Storage.Key); err != nil {
		return fmt.Errorf("storage.key: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormatter(c.Log.Format); err != nil {
		return err
	}
	if _, err := model.ParseFilter(c.UI.Filter); err != nil {
		return err
	}
	switch strings.ToLower(c.UI.Theme) {
	case "", "classic", "neon", "mono":
	default:
		return fmt.Errorf("unknown theme %q", c.UI.Theme)
	}
	return nil
}

// StoragePath resolves the configured path, filling the backend's default
// under ./.tada when none is set.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if strings.EqualFold(c.Storage.Backend, kv.BackendSQLite) {
		return filepath.Join(defaultDataDir, sqliteFileName)
	}
	return defaultDataDir
}

// LogOptions converts the log section for logging.New.
func (c *Config) LogOptions() logging.Options {
	o := logging.DefaultOptions()
	o.Level = c.Log.Level
	o.Format = c.Log.Format
	return o
}
