package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/talgya/tidewater/internal/fleet"
	"github.com/talgya/tidewater/internal/world"
)

type memJournal struct {
	batches [][]Event
	err     error
}

func (j *memJournal) SaveEvents(events []Event) error {
	j.batches = append(j.batches, append([]Event(nil), events...))
	return j.err
}

func newTestSim(t *testing.T) (*Simulation, fleet.ShipID) {
	t.Helper()
	sim := NewSimulation(world.NewOpenWater(5), fleet.DefaultConfig())
	id := sim.Spawn(fleet.NewShip("Gull", world.HexCoord{}, 1, 1))
	return sim, id
}

func countCategory(events []Event, category string) int {
	n := 0
	for _, ev := range events {
		if ev.Category == category {
			n++
		}
	}
	return n
}

func TestSimulationMovesShipAndRecords(t *testing.T) {
	sim, id := newTestSim(t)
	if err := sim.MoveTo(id, world.HexCoord{Q: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sim.Tick(1, 1)
	sim.Tick(2, 1)

	v, ok := sim.Ship(id)
	if !ok {
		t.Fatal("ship not found")
	}
	if v.Position != (world.HexCoord{Q: 2}) || v.Mode != "idle" {
		t.Fatalf("expected idle at 2,0, got %s at %s", v.Mode, v.Position)
	}

	events := sim.RecentEvents(0)
	if countCategory(events, "order") != 1 || countCategory(events, "arrived") != 1 {
		t.Fatalf("unexpected events %+v", events)
	}
	st := sim.Stats()
	if st.CellsEntered != 2 || st.Ships != 1 || st.Idle != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.Explored != 3 {
		t.Fatalf("expected 3 explored cells, got %d", st.Explored)
	}
	if sim.CurrentTick() != 2 {
		t.Fatalf("expected tick 2, got %d", sim.CurrentTick())
	}
}

func TestSimulationShipViews(t *testing.T) {
	sim, id := newTestSim(t)
	other := sim.Spawn(fleet.NewShip("Tern", world.HexCoord{Q: 3}, 1, 1))
	if err := sim.Attack(id, other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	views := sim.Ships()
	if len(views) != 2 {
		t.Fatalf("expected 2 ships, got %d", len(views))
	}
	if views[0].Mode != "chasing" || views[0].Target == nil || *views[0].Target != other {
		t.Fatalf("unexpected view %+v", views[0])
	}
}

func TestSimulationOrdersRejectUnknownShip(t *testing.T) {
	sim, id := newTestSim(t)
	sim.Remove(id)

	if err := sim.MoveTo(id, world.HexCoord{Q: 1}); !errors.Is(err, ErrUnknownShip) {
		t.Fatalf("expected ErrUnknownShip, got %v", err)
	}
	if err := sim.Stop(id); !errors.Is(err, ErrUnknownShip) {
		t.Fatalf("expected ErrUnknownShip, got %v", err)
	}
	if err := sim.Remove(id); !errors.Is(err, ErrUnknownShip) {
		t.Fatalf("expected ErrUnknownShip, got %v", err)
	}
}

func TestSimulationAttackUnknownTarget(t *testing.T) {
	sim, id := newTestSim(t)
	if err := sim.Attack(id, fleet.ShipID(12345)); !errors.Is(err, ErrUnknownShip) {
		t.Fatalf("expected ErrUnknownShip, got %v", err)
	}
	if err := sim.Attack(id, id); !errors.Is(err, fleet.ErrSelfTarget) {
		t.Fatalf("expected ErrSelfTarget, got %v", err)
	}
}

func TestSimulationPatrolError(t *testing.T) {
	sim, id := newTestSim(t)
	if err := sim.StartPatrol(id, []world.HexCoord{{}}); err == nil {
		t.Fatal("expected an error for a single waypoint")
	}
	if v, _ := sim.Ship(id); v.Mode != "idle" {
		t.Fatalf("expected mode untouched, got %s", v.Mode)
	}
}

func TestSimulationRemovedTargetIsLost(t *testing.T) {
	sim, id := newTestSim(t)
	target := sim.Spawn(fleet.NewShip("Tern", world.HexCoord{Q: 4}, 1, 1))
	sim.Attack(id, target)
	sim.Tick(1, 1)
	sim.Remove(target)
	sim.Tick(2, 1)

	events := sim.RecentEvents(0)
	if countCategory(events, "removed") != 1 || countCategory(events, "target_lost") != 1 {
		t.Fatalf("unexpected events %+v", events)
	}
	if v, _ := sim.Ship(id); v.Mode != "idle" {
		t.Fatalf("expected idle after losing target, got %s", v.Mode)
	}
}

func TestSimulationEventRingIsBounded(t *testing.T) {
	sim, id := newTestSim(t)
	for i := 0; i < MaxEvents+5; i++ {
		sim.QueueWaypoint(id, world.HexCoord{Q: i % 3})
	}
	if got := len(sim.RecentEvents(0)); got != MaxEvents {
		t.Fatalf("expected %d events, got %d", MaxEvents, got)
	}
	last := sim.RecentEvents(2)
	if len(last) != 2 {
		t.Fatalf("expected 2 events, got %d", len(last))
	}
}

func TestSimulationJournalFlush(t *testing.T) {
	sim, id := newTestSim(t)
	j := &memJournal{}
	sim.Journal = j
	sim.FlushEvery = 2

	sim.MoveTo(id, world.HexCoord{Q: 2})
	sim.Tick(1, 1)
	if len(j.batches) != 0 {
		t.Fatalf("flushed too early: %+v", j.batches)
	}
	sim.Tick(2, 1)
	if len(j.batches) != 1 || len(j.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2 events, got %+v", j.batches)
	}

	sim.Flush()
	if len(j.batches) != 1 {
		t.Fatalf("empty flush wrote a batch: %+v", j.batches)
	}
	sim.Stop(id)
	j.err = errors.New("disk full")
	sim.Flush()
	if len(j.batches) != 2 {
		t.Fatalf("expected a second batch, got %d", len(j.batches))
	}
}

func TestSimulationSubscribe(t *testing.T) {
	sim, id := newTestSim(t)
	events, cancel := sim.Subscribe(4)

	sim.Dock(id)
	select {
	case ev := <-events:
		if ev.Category != "order" || ev.Ship != id {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	cancel()
	if _, ok := <-events; ok {
		t.Fatal("expected closed channel after cancel")
	}
	sim.Undock(id)
}
