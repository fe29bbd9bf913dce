package engine

import (
	"testing"

	"github.com/talgya/tidewater/internal/config"
	"github.com/talgya/tidewater/internal/fleet"
	"github.com/talgya/tidewater/internal/world"
)

func testFleetConfig() config.FleetConfig {
	cfg := config.Default().Fleet
	cfg.Ships = 8
	cfg.PatrolShare = 0.25
	return cfg
}

func launchTestFleet(t *testing.T, seed int64) (*Simulation, *Commander) {
	t.Helper()
	m := world.NewOpenWater(8)
	harbors := world.PlaceHarbors(m, 3, 5, seed)
	if len(harbors) < 2 {
		t.Fatalf("expected at least 2 harbors, got %d", len(harbors))
	}
	sim := NewSimulation(m, fleet.DefaultConfig())
	sim.Harbors = harbors
	cmd := NewCommander(m, harbors, 0.05, seed)
	sim.Commander = cmd
	if n := cmd.Launch(sim, testFleetConfig()); n != 8 {
		t.Fatalf("expected 8 ships launched, got %d", n)
	}
	return sim, cmd
}

func TestLaunchSpreadsShipsAndStartsPatrols(t *testing.T) {
	sim, _ := launchTestFleet(t, 3)

	seen := make(map[world.HexCoord]bool)
	patrols := 0
	for _, v := range sim.Ships() {
		if seen[v.Position] {
			t.Fatalf("two ships launched at %s", v.Position)
		}
		seen[v.Position] = true
		if !sim.WorldMap.IsPassable(v.Position) {
			t.Fatalf("ship launched on land at %s", v.Position)
		}
		if v.Speed < 0.6 || v.Speed > 1.8 {
			t.Fatalf("speed %v out of range", v.Speed)
		}
		if v.Mode == "patrolling" {
			patrols++
		}
	}
	if patrols != 2 {
		t.Fatalf("expected 2 patrols, got %d", patrols)
	}
}

func TestCommanderKeepsFleetBusy(t *testing.T) {
	sim, _ := launchTestFleet(t, 3)
	for tick := uint64(1); tick <= 60; tick++ {
		sim.Tick(tick, 1)
	}
	st := sim.Stats()
	if st.CellsEntered == 0 {
		t.Fatal("no ship moved in 60 ticks")
	}
	if st.Ships != 8 {
		t.Fatalf("expected 8 ships, got %d", st.Ships)
	}
	for _, v := range sim.Ships() {
		if v.Progress >= 1 || !sim.WorldMap.IsPassable(v.Position) {
			t.Fatalf("bad ship state %+v", v)
		}
	}
}

func TestCommanderIsDeterministic(t *testing.T) {
	run := func() []world.HexCoord {
		sim, _ := launchTestFleet(t, 11)
		for tick := uint64(1); tick <= 40; tick++ {
			sim.Tick(tick, 1)
		}
		var out []world.HexCoord
		for _, v := range sim.Ships() {
			out = append(out, v.Position)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("ship %d diverged: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestCommanderLeavesForeignDockAlone(t *testing.T) {
	m := world.NewOpenWater(4)
	sim := NewSimulation(m, fleet.DefaultConfig())
	cmd := NewCommander(m, nil, 0, 1)
	sim.Commander = cmd
	id := sim.Spawn(fleet.NewShip("Heron", world.HexCoord{}, 1, 1))
	sim.Dock(id)

	for tick := uint64(1); tick <= 5; tick++ {
		sim.Tick(tick, 1)
	}
	if v, _ := sim.Ship(id); !v.Docked {
		t.Fatal("commander undocked a ship it did not dock")
	}
}
