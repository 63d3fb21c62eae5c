// Package daemon manages the hotelscore daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/hotelops/hotelscore/internal/app/scoring"
	"github.com/hotelops/hotelscore/internal/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HOTELSCORE_"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api" envPrefix:"API_"`
	Store     StoreConfig     `toml:"store" envPrefix:"STORE_"`
	Scoring   ScoringConfig   `toml:"scoring" envPrefix:"SCORING_"`
	Notify    NotifyConfig    `toml:"notify" envPrefix:"NOTIFY_"`
	Logging   LoggingConfig   `toml:"logging" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `toml:"telemetry" envPrefix:"TELEMETRY_"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host" env:"HOST"`
	Port int    `toml:"port" env:"PORT"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Driver string `toml:"driver" env:"DRIVER"`
	Dir    string `toml:"dir" env:"DIR"` // sqlite
	DSN    string `toml:"dsn" env:"DSN"` // postgres
}

// ScoringConfig tunes the engine. Map keys are action type names.
type ScoringConfig struct {
	Timezone string                   `toml:"timezone" env:"TIMEZONE"`
	XP       map[string]int64         `toml:"xp" env:"XP"`
	Limits   map[string]scoring.Limit `toml:"limits"`
}

// NotifyConfig selects notification sinks besides the store.
type NotifyConfig struct {
	Log           bool   `toml:"log" env:"LOG"`
	RedisAddr     string `toml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"REDIS_DB"`
	RedisChannel  string `toml:"redis_channel" env:"REDIS_CHANNEL"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Mode  string `toml:"mode" env:"MODE"` // "dev" or "prod"
	Level string `toml:"level" env:"LEVEL"`
}

// TelemetryConfig controls metrics and health checks.
type TelemetryConfig struct {
	Prometheus     bool   `toml:"prometheus" env:"PROMETHEUS"`
	HealthInterval string `toml:"health_interval" env:"HEALTH_INTERVAL"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8087,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Dir:    hotelscoreHome(),
		},
		Scoring: ScoringConfig{
			Timezone: "Local",
		},
		Notify: NotifyConfig{
			Log:          true,
			RedisChannel: "hotelscore:notifications",
		},
		Logging: LoggingConfig{
			Mode:  "dev",
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			HealthInterval: "60s",
		},
	}
}

// LoadConfig reads $HOTELSCORE_HOME/config.toml, falling back to defaults,
// then applies HOTELSCORE_* environment overrides.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(ConfigPath())
}

// LoadConfigFrom is LoadConfig with an explicit file path.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("stat config: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot start with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api.port %d", c.API.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.HealthInterval(); err != nil {
		return err
	}
	if _, err := c.XPOverrides(); err != nil {
		return err
	}
	if _, err := c.LimitOverrides(); err != nil {
		return err
	}
	return nil
}

// Location resolves scoring.timezone. Calendar windows use it.
func (c Config) Location() (*time.Location, error) {
	if c.Scoring.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Scoring.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scoring.timezone: %w", err)
	}
	return loc, nil
}

// HealthInterval parses telemetry.health_interval.
func (c Config) HealthInterval() (time.Duration, error) {
	if c.Telemetry.HealthInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Telemetry.HealthInterval)
	if err != nil {
		return 0, fmt.Errorf("telemetry.health_interval: %w", err)
	}
	return d, nil
}

// XPOverrides converts scoring.xp into base XP overrides.
func (c Config) XPOverrides() (map[domain.ActionType]int64, error) {
	out := make(map[domain.ActionType]int64, len(c.Scoring.XP))
	for name, xp := range c.Scoring.XP {
		t, err := actionType(name)
		if err != nil {
			return nil, fmt.Errorf("scoring.xp: %w", err)
		}
		out[t] = xp
	}
	return out, nil
}

// LimitOverrides converts scoring.limits into rate limit overrides.
func (c Config) LimitOverrides() (map[domain.ActionType]scoring.Limit, error) {
	out := make(map[domain.ActionType]scoring.Limit, len(c.Scoring.Limits))
	for name, l := range c.Scoring.Limits {
		t, err := actionType(name)
		if err != nil {
			return nil, fmt.Errorf("scoring.limits: %w", err)
		}
		if l.MaxPerHour < 0 || l.MaxPerDay < 0 {
			return nil, fmt.Errorf("scoring.limits.%s: negative limit", name)
		}
		out[t] = l
	}
	return out, nil
}

func actionType(name string) (domain.ActionType, error) {
	t := domain.ActionType(strings.ToUpper(strings.TrimSpace(name)))
	if !t.Known() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAction, name)
	}
	return t, nil
}

// SaveConfig writes the config to $HOTELSCORE_HOME/config.toml.
func SaveConfig(cfg Config) error {
	return SaveConfigTo(ConfigPath(), cfg)
}

// SaveConfigTo writes cfg as TOML at path.
func SaveConfigTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ConfigPath is the default config file location.
func ConfigPath() string {
	return filepath.Join(hotelscoreHome(), "config.toml")
}

// hotelscoreHome returns the hotelscore data directory.
func hotelscoreHome() string {
	if env := os.Getenv("HOTELSCORE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hotelscore")
}

// Home is exported for use by other packages.
func Home() string {
	return hotelscoreHome()
}
