// Package config loads the portal dashboard configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/storage"
)

// Environment variables read by Load.
const (
	EnvStorage         = "PORTAL_DASHBOARD_STORAGE"
	EnvPath            = "PORTAL_DASHBOARD_PATH"
	EnvCycleInterval   = "PORTAL_DASHBOARD_CYCLE_INTERVAL"
	EnvLogLevel        = "PORTAL_DASHBOARD_LOG_LEVEL"
	EnvJWTSecret       = "PORTAL_DASHBOARD_JWT_SECRET"
	EnvListen          = "PORTAL_DASHBOARD_LISTEN"
	EnvRestrictedWords = "PORTAL_DASHBOARD_RESTRICTED_WORDS_URL"
)

// Config is the full service configuration.
type Config struct {
	Storage         StorageConfig         `yaml:"storage"`
	Dashboard       DashboardConfig       `yaml:"dashboard"`
	HTTP            HTTPConfig            `yaml:"http"`
	Logging         LoggingConfig         `yaml:"logging"`
	RestrictedWords RestrictedWordsConfig `yaml:"restricted_words"`
}

// StorageConfig selects the preset storage backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Watch  bool   `yaml:"watch"`
}

// DashboardConfig tunes the preset store and widget catalog.
type DashboardConfig struct {
	Manifests     []string `yaml:"manifests"`
	CycleInterval int      `yaml:"cycle_interval"`
	MaxPresets    int      `yaml:"max_presets"`
}

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	Listen    string `yaml:"listen"`
	BasePath  string `yaml:"base_path"`
	JWTSecret string `yaml:"jwt_secret"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// RestrictedWordsConfig points at the backend serving restricted preset name words.
type RestrictedWordsConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	TTL      string `yaml:"ttl"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path, applies defaults and environment overrides. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = storage.DriverMemory
	}
	if c.Storage.Path == "" {
		switch c.Storage.Driver {
		case storage.DriverFile:
			c.Storage.Path = "data/presets"
		case storage.DriverSQLite:
			c.Storage.Path = "data/portal.db"
		}
	}
	if c.Dashboard.CycleInterval <= 0 {
		c.Dashboard.CycleInterval = dashboard.DefaultCycleInterval
	}
	c.Dashboard.CycleInterval = dashboard.ClampCycleInterval(c.Dashboard.CycleInterval)
	if c.Dashboard.MaxPresets <= 0 {
		c.Dashboard.MaxPresets = dashboard.DefaultMaxPresets
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = ":8080"
	}
	if c.HTTP.BasePath == "" {
		c.HTTP.BasePath = "/portal"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.RestrictedWords.TTL == "" {
		c.RestrictedWords.TTL = "10m"
	}
}

func (c *Config) applyEnvOverrides() error {
	if v := strings.TrimSpace(os.Getenv(EnvStorage)); v != "" {
		c.Storage.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPath)); v != "" {
		c.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCycleInterval)); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvCycleInterval, err)
		}
		c.Dashboard.CycleInterval = seconds
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.HTTP.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		c.HTTP.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRestrictedWords)); v != "" {
		c.RestrictedWords.Endpoint = v
	}
	return nil
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case storage.DriverMemory, storage.DriverFile, storage.DriverSQLite:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Watch && c.Storage.Driver != storage.DriverFile {
		return fmt.Errorf("config: storage.watch requires the file driver")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: logging.level: %w", err)
	}
	if _, err := time.ParseDuration(c.RestrictedWords.TTL); err != nil {
		return fmt.Errorf("config: restricted_words.ttl: %w", err)
	}
	return nil
}

// StorageOptions maps the storage section onto storage.Open.
func (c *Config) StorageOptions(logger *zap.Logger) storage.Options {
	return storage.Options{Driver: c.Storage.Driver, Path: c.Storage.Path, Logger: logger}
}

// RestrictedWordsTTL returns the parsed cache TTL.
func (c *Config) RestrictedWordsTTL() time.Duration {
	d, err := time.ParseDuration(c.RestrictedWords.TTL)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// NewLogger builds a zap logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("config: logging.level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// OverrideStorage replaces the storage driver and path. An empty path falls back to the
// driver's default location.
func (c *Config) OverrideStorage(driver, path string) error {
	if driver != "" && driver != c.Storage.Driver {
		c.Storage.Driver = driver
		c.Storage.Path = ""
	}
	if path != "" {
		c.Storage.Path = path
	}
	c.applyDefaults()
	return c.Validate()
}
