package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tidewater.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAdminKey, "")
	t.Setenv(EnvDB, "")
	t.Setenv(EnvPort, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := Default()
	if cfg.World.Radius != def.World.Radius || cfg.API.Port != def.API.Port {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Nav.LookAhead != 3 || cfg.Nav.Avoidance.SoftClaim != 4 {
		t.Fatalf("unexpected nav defaults %+v", cfg.Nav)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	t.Setenv(EnvAdminKey, "")
	t.Setenv(EnvDB, "")
	t.Setenv(EnvPort, "")

	path := writeFile(t, `
log_level: debug
world:
  radius: 10
  seed: 7
nav:
  look_ahead: 5
  avoidance:
    soft_claim: 9
engine:
  interval: 250ms
api:
  cors_origins: ["http://localhost:3000"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.World.Radius != 10 || cfg.World.Seed != 7 {
		t.Fatalf("world not loaded: %+v", cfg.World)
	}
	if cfg.World.SeaLevel != Default().World.SeaLevel {
		t.Fatalf("expected untouched sea level, got %v", cfg.World.SeaLevel)
	}
	if cfg.Nav.LookAhead != 5 || cfg.Nav.Avoidance.SoftClaim != 9 || cfg.Nav.Avoidance.Adjacency != 1 {
		t.Fatalf("nav not loaded: %+v", cfg.Nav)
	}
	if cfg.Engine.Interval != 250*time.Millisecond {
		t.Fatalf("expected 250ms interval, got %v", cfg.Engine.Interval)
	}
	if len(cfg.API.CORSOrigins) != 1 {
		t.Fatalf("expected one CORS origin, got %v", cfg.API.CORSOrigins)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvAdminKey, "secret")
	t.Setenv(EnvDB, "/tmp/other.db")
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvRandom, "rk")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.AdminKey != "secret" || cfg.Journal.Path != "/tmp/other.db" || cfg.API.Port != 9090 {
		t.Fatalf("env not applied: %+v %+v", cfg.API, cfg.Journal)
	}
	if cfg.RandomOrgKey != "rk" {
		t.Fatalf("expected random.org key from env, got %q", cfg.RandomOrgKey)
	}
}

func TestLoadIgnoresMalformedPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Port != Default().API.Port {
		t.Fatalf("expected default port, got %d", cfg.API.Port)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if _, err := Load(writeFile(t, "world: [")); err == nil {
		t.Fatal("expected a parse error")
	}
	_, err := Load(writeFile(t, "world:\n  radius: 1\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative ships", func(c *Config) { c.Fleet.Ships = -1 }},
		{"inverted speeds", func(c *Config) { c.Fleet.MaxSpeed = c.Fleet.MinSpeed / 2 }},
		{"patrol share above one", func(c *Config) { c.Fleet.PatrolShare = 1.5 }},
		{"negative look-ahead", func(c *Config) { c.Nav.LookAhead = -1 }},
		{"zero interval", func(c *Config) { c.Engine.Interval = 0 }},
		{"zero dt", func(c *Config) { c.Engine.Dt = 0 }},
		{"port out of range", func(c *Config) { c.API.Port = 70000 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}
