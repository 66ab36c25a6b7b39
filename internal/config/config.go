package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/habitgarden/internal/model"
	"github.com/sandeepkv93/habitgarden/internal/storage"
)

const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"

	// EnvConfigFile names the YAML file loaded before the environment.
	EnvConfigFile = "HABITGARDEN_CONFIG"
)

type RuntimeConfig struct {
	Backend      string `yaml:"backend" env:"HABITGARDEN_BACKEND"`
	SQLiteDriver string `yaml:"sqlite_driver" env:"HABITGARDEN_SQLITE_DRIVER"`
	DBPath       string `yaml:"db_path" env:"HABITGARDEN_DB"`
	StatePath    string `yaml:"state_path" env:"HABITGARDEN_STATE_FILE"`
	LogFile      string `yaml:"log_file" env:"HABITGARDEN_LOG_FILE"`
	LogLevel     string `yaml:"log_level" env:"HABITGARDEN_LOG_LEVEL"`
	EventBuffer  int    `yaml:"event_buffer" env:"HABITGARDEN_EVENT_BUFFER"`
	DefaultTheme string `yaml:"default_theme" env:"HABITGARDEN_THEME"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	dir := defaultDataDir()
	return RuntimeConfig{
		Backend:      BackendSQLite,
		SQLiteDriver: storage.DriverCGO,
		DBPath:       filepath.Join(dir, "habitgarden.db"),
		StatePath:    filepath.Join(dir, "habitgarden.json"),
		LogLevel:     "info",
		EventBuffer:  16,
		DefaultTheme: string(model.ThemeLight),
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "habitgarden")
	}
	return ".habitgarden"
}

// Load layers defaults, the YAML file at path (or $HABITGARDEN_CONFIG) and
// the environment, then validates the result.
func Load(path string) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if strings.TrimSpace(path) != "" {
		var err error
		cfg, err = FromFile(cfg, path)
		if err != nil {
			return RuntimeConfig{}, err
		}
	}
	cfg, err := FromEnv(cfg)
	if err != nil {
		return RuntimeConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

// FromFile overlays the fields present in a YAML file onto base. A missing
// file is not an error.
func FromFile(base RuntimeConfig, path string) (RuntimeConfig, error) {
	raw, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return base, fmt.Errorf("read config: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overlays HABITGARDEN_* variables onto base. Unset variables keep
// the base value.
func FromEnv(base RuntimeConfig) (RuntimeConfig, error) {
	cfg := base
	if err := env.Parse(&cfg); err != nil {
		return base, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c RuntimeConfig) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.SQLiteDriver != storage.DriverCGO && c.SQLiteDriver != storage.DriverPureGo {
			return fmt.Errorf("config: unsupported sqlite driver %q", c.SQLiteDriver)
		}
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("config: db path is required")
		}
	case BackendJSON:
		if strings.TrimSpace(c.StatePath) == "" {
			return errors.New("config: state path is required")
		}
	default:
		return fmt.Errorf("config: unsupported backend %q", c.Backend)
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("config: event buffer must be positive, got %d", c.EventBuffer)
	}
	if !model.Theme(c.DefaultTheme).IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidTheme, c.DefaultTheme)
	}
	return nil
}

// OpenRepository opens the storage backend selected by the config.
func (c RuntimeConfig) OpenRepository(ctx context.Context) (storage.Repository, error) {
	switch c.Backend {
	case BackendJSON:
		repo, err := storage.NewFileRepository(c.StatePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		if dir := filepath.Dir(c.DBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		repo, err := storage.OpenSQLite(ctx, c.DBPath, c.SQLiteDriver)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}
