// Command tidewater runs the naval movement simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/tidewater/internal/api"
	"github.com/talgya/tidewater/internal/config"
	"github.com/talgya/tidewater/internal/engine"
	"github.com/talgya/tidewater/internal/entropy"
	"github.com/talgya/tidewater/internal/persistence"
	"github.com/talgya/tidewater/internal/world"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Tidewater: hex-grid naval simulation")

	// ── World Map (deterministic from seed) ───────────────────────────
	if cfg.World.Seed == 0 {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 20*time.Second)
		seed, source := entropy.NewClient(cfg.RandomOrgKey).Seed(seedCtx)
		seedCancel()
		cfg.World.Seed = seed
		slog.Info("seed drawn", "source", source)
	}
	seed := cfg.World.Seed

	slog.Info("generating world map...", "seed", seed, "radius", cfg.World.Radius)
	worldMap := world.Generate(cfg.World)
	for t, c := range world.TerrainCounts(worldMap) {
		slog.Debug("terrain", "type", world.TerrainName(t), "count", c)
	}

	harbors := world.PlaceHarbors(worldMap, cfg.Fleet.Harbors, cfg.Fleet.HarborSpacing, seed)
	if len(harbors) == 0 {
		slog.Error("no harbor sites found; try another seed or a lower sea level")
		os.Exit(1)
	}
	for _, h := range harbors {
		slog.Info("harbor", "name", h.Name, "coord", h.Coord)
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(worldMap, cfg.Nav)
	sim.Harbors = harbors
	commander := engine.NewCommander(worldMap, harbors, cfg.Fleet.AttackChance, seed)
	sim.Commander = commander
	launched := commander.Launch(sim, cfg.Fleet)

	slog.Info("fleet ready",
		"ships", launched,
		"harbors", len(harbors),
		"water_hexes", worldMap.WaterCount(),
	)

	// ── Event journal ─────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Journal.Path != "" {
		os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0755)
		db, err = persistence.Open(cfg.Journal.Path)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		run, err := db.BeginRun(seed, cfg.World.Radius)
		if err != nil {
			slog.Error("failed to start journal run", "error", err)
			os.Exit(1)
		}
		db.SaveMeta("last_run", run.ID)
		db.SaveMeta("last_seed", strconv.FormatInt(seed, 10))

		sim.Journal = db
		sim.FlushEvery = cfg.Journal.FlushEvery
		slog.Info("journal opened", "path", cfg.Journal.Path, "run", run.ID)
	} else {
		slog.Warn("journal path empty, events are kept in memory only")
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.Engine.Interval
	eng.Dt = cfg.Engine.Dt
	eng.TicksPerReport = cfg.Engine.TicksPerReport
	eng.SetSpeed(cfg.Engine.Speed)
	eng.OnTick = sim.Tick
	eng.OnReport = sim.Report

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn(config.EnvAdminKey + " not set, admin POST endpoints will be disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiServer := api.NewServer(sim, eng, cfg.API)
	apiServer.DB = db
	httpServer := apiServer.Start(ctx)

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nTidewater is afloat: %d ships across %d harbors.\n", launched, len(harbors))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	// Final flush on shutdown.
	sim.Flush()
	fmt.Printf("Simulation stopped at %s.\n", engine.SimTime(sim.CurrentTick()))
}
