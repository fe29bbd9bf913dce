// Package config loads the tidewater runtime settings from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/tidewater/internal/fleet"
	"github.com/talgya/tidewater/internal/world"
)

// Environment overrides, applied after the YAML file.
const (
	EnvAdminKey = "TIDEWATER_ADMIN_KEY"
	EnvDB       = "TIDEWATER_DB"
	EnvPort     = "TIDEWATER_PORT"
	EnvRandom   = "TIDEWATER_RANDOM_ORG_KEY"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full runtime configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	// RandomOrgKey, when set, draws the seed from random.org if World.Seed is 0.
	RandomOrgKey string          `yaml:"random_org_key"`
	World        world.GenConfig `yaml:"world"`
	Fleet        FleetConfig     `yaml:"fleet"`
	Nav          fleet.Config    `yaml:"nav"`
	Engine       EngineConfig    `yaml:"engine"`
	Journal      JournalConfig   `yaml:"journal"`
	API          APIConfig       `yaml:"api"`
}

// FleetConfig controls the initial fleet and the demo commander.
type FleetConfig struct {
	Ships         int     `yaml:"ships"`
	Harbors       int     `yaml:"harbors"`
	HarborSpacing int     `yaml:"harbor_spacing"`
	MinSpeed      float64 `yaml:"min_speed"`
	MaxSpeed      float64 `yaml:"max_speed"`
	WeaponRange   int     `yaml:"weapon_range"`
	PatrolShare   float64 `yaml:"patrol_share"`
	AttackChance  float64 `yaml:"attack_chance"`
}

// EngineConfig controls the tick loop.
type EngineConfig struct {
	Interval       time.Duration `yaml:"interval"`
	Speed          float64       `yaml:"speed"`
	Dt             float64       `yaml:"dt"`
	TicksPerReport uint64        `yaml:"ticks_per_report"`
}

// JournalConfig controls the SQLite event journal.
type JournalConfig struct {
	Path       string `yaml:"path"`
	FlushEvery uint64 `yaml:"flush_every"`
}

// APIConfig controls the HTTP server.
type APIConfig struct {
	Port        int      `yaml:"port"`
	AdminKey    string   `yaml:"admin_key"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		World:    world.DefaultGenConfig(),
		Fleet: FleetConfig{
			Ships:         24,
			Harbors:       6,
			HarborSpacing: 6,
			MinSpeed:      0.6,
			MaxSpeed:      1.8,
			WeaponRange:   2,
			PatrolShare:   0.25,
			AttackChance:  0.02,
		},
		Nav: fleet.DefaultConfig(),
		Engine: EngineConfig{
			Interval:       500 * time.Millisecond,
			Speed:          1,
			Dt:             1,
			TicksPerReport: 120,
		},
		Journal: JournalConfig{
			Path:       "data/tidewater.db",
			FlushEvery: 20,
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.API.AdminKey = envOrDefault(EnvAdminKey, c.API.AdminKey)
	c.Journal.Path = envOrDefault(EnvDB, c.Journal.Path)
	c.API.Port = envIntOrDefault(EnvPort, c.API.Port)
	c.RandomOrgKey = envOrDefault(EnvRandom, c.RandomOrgKey)
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.World.Radius < 2:
		return fmt.Errorf("%w: world.radius must be at least 2, got %d", ErrInvalid, c.World.Radius)
	case c.Fleet.Ships < 0:
		return fmt.Errorf("%w: fleet.ships must not be negative", ErrInvalid)
	case c.Fleet.MinSpeed <= 0 || c.Fleet.MaxSpeed < c.Fleet.MinSpeed:
		return fmt.Errorf("%w: fleet speeds must satisfy 0 < min_speed <= max_speed", ErrInvalid)
	case c.Fleet.PatrolShare < 0 || c.Fleet.PatrolShare > 1:
		return fmt.Errorf("%w: fleet.patrol_share must be within [0, 1]", ErrInvalid)
	case c.Nav.LookAhead < 0:
		return fmt.Errorf("%w: nav.look_ahead must not be negative", ErrInvalid)
	case c.Engine.Interval <= 0:
		return fmt.Errorf("%w: engine.interval must be positive", ErrInvalid)
	case c.Engine.Dt <= 0:
		return fmt.Errorf("%w: engine.dt must be positive", ErrInvalid)
	case c.API.Port <= 0 || c.API.Port > 65535:
		return fmt.Errorf("%w: api.port %d out of range", ErrInvalid, c.API.Port)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
