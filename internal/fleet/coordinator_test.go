package fleet

import (
	"reflect"
	"testing"

	"github.com/talgya/tidewater/internal/nav"
	"github.com/talgya/tidewater/internal/world"
)

func TestBuildReservationsClaims(t *testing.T) {
	r := NewRoster()
	idle := spawn(r, "idle", hx(0, 0), 1)
	docked := spawn(r, "docked", hx(4, 0), 1)
	docked.Mode = &Moving{Queue: []world.HexCoord{hx(4, 3)}, Path: nav.Path{hx(4, 1)}}
	docked.Dock()
	mover := spawn(r, "mover", hx(0, 2), 1)
	mover.Mode = &Moving{
		Queue: []world.HexCoord{hx(5, 2)},
		Path:  nav.Path{hx(1, 2), hx(2, 2), hx(3, 2), hx(4, 2), hx(5, 2)},
	}

	res := BuildReservations(r.Ships(), DefaultLookAhead, nav.DefaultAvoidanceCosts())

	cases := []struct {
		cell      world.HexCoord
		owner     ShipID
		permanent bool
	}{
		{hx(0, 0), idle.ID, true},
		{hx(4, 0), docked.ID, true},
		{hx(0, 2), mover.ID, false},
		{hx(1, 2), mover.ID, false},
		{hx(3, 2), mover.ID, false},
	}
	for _, tc := range cases {
		got, ok := res.At(tc.cell)
		if !ok {
			t.Fatalf("%s: expected a claim", tc.cell)
		}
		if got.Owner != tc.owner || got.Permanent != tc.permanent {
			t.Fatalf("%s: expected owner %d permanent=%v, got %+v", tc.cell, tc.owner, tc.permanent, got)
		}
	}
	if _, ok := res.At(hx(4, 2)); ok {
		t.Fatal("look-ahead reserved past its window")
	}
}

func TestBuildReservationsFirstClaimWins(t *testing.T) {
	r := NewRoster()
	a := spawn(r, "a", hx(0, 0), 1)
	a.Mode = &Moving{Queue: []world.HexCoord{hx(3, 0)}, Path: nav.Path{hx(1, 0), hx(2, 0), hx(3, 0)}}
	b := spawn(r, "b", hx(2, 0), 1)

	res := BuildReservations(r.Ships(), DefaultLookAhead, nav.DefaultAvoidanceCosts())
	got, _ := res.At(hx(2, 0))
	if got.Owner != b.ID || !got.Permanent {
		t.Fatalf("expected stationary ship to keep its cell, got %+v", got)
	}
	got, _ = res.At(hx(1, 0))
	if got.Owner != a.ID || got.Permanent {
		t.Fatalf("expected soft claim by mover, got %+v", got)
	}
}

func TestDetectConflictsGroupsByNextCell(t *testing.T) {
	r := NewRoster()
	a := spawn(r, "a", hx(0, 0), 1)
	a.Mode = &Moving{Queue: []world.HexCoord{hx(1, 0)}, Path: nav.Path{hx(1, 0)}}
	b := spawn(r, "b", hx(2, 0), 1)
	b.Mode = &Moving{Queue: []world.HexCoord{hx(1, 0)}, Path: nav.Path{hx(1, 0)}}
	c := spawn(r, "c", hx(0, 3), 1)
	c.Mode = &Moving{Queue: []world.HexCoord{hx(0, 4)}, Path: nav.Path{hx(0, 4)}}
	spawn(r, "idle", hx(1, 1), 1)

	got := DetectConflicts(r.Ships())
	want := []Conflict{{Cell: hx(1, 0), Claimants: []ShipID{a.ID, b.ID}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveConflictsFartherShipYields(t *testing.T) {
	r := NewRoster()
	far := spawn(r, "far", hx(0, 0), 1)
	far.Mode = &Moving{Queue: []world.HexCoord{hx(5, 0)}, Path: nav.Path{hx(1, 0), hx(2, 0)}}
	near := spawn(r, "near", hx(2, 0), 1)
	near.Mode = &Moving{Queue: []world.HexCoord{hx(1, 0)}, Path: nav.Path{hx(1, 0)}}

	got := ResolveConflicts(DetectConflicts(r.Ships()), r.Get)
	if len(got) != 1 {
		t.Fatalf("expected 1 resolution, got %d", len(got))
	}
	if got[0].Proceed != near.ID {
		t.Fatalf("expected the nearer ship to proceed, got %d", got[0].Proceed)
	}
	if !reflect.DeepEqual(got[0].Yielded, []ShipID{far.ID}) {
		t.Fatalf("expected far ship to yield, got %v", got[0].Yielded)
	}
}

func TestResolveConflictsCommittedFartherShipYields(t *testing.T) {
	r := NewRoster()
	far := spawn(r, "far", hx(0, 0), 1)
	far.Mode = &Moving{Queue: []world.HexCoord{hx(5, 0)}, Path: nav.Path{hx(1, 0), hx(2, 0)}}
	cell := hx(1, 0)
	far.Committed = &cell
	far.Progress = 0.5
	near := spawn(r, "near", hx(2, -1), 1)
	near.Mode = &Moving{Queue: []world.HexCoord{hx(1, 0)}, Path: nav.Path{hx(1, 0)}}

	got := ResolveConflicts(DetectConflicts(r.Ships()), r.Get)
	if len(got) != 1 || got[0].Proceed != near.ID {
		t.Fatalf("expected the nearer ship to proceed, got %+v", got)
	}
	if !reflect.DeepEqual(got[0].Yielded, []ShipID{far.ID}) {
		t.Fatalf("expected committed far ship to yield, got %v", got[0].Yielded)
	}
}

// The first waypoint of "long" is closer than that of "short", but its
// voyage continues much further.
func TestResolveConflictsMeasuresToFinalWaypoint(t *testing.T) {
	r := NewRoster()
	long := spawn(r, "long", hx(0, 0), 1)
	long.Mode = &Moving{
		Queue: []world.HexCoord{hx(1, 0), hx(1, 4)},
		Path:  nav.Path{hx(1, 0)},
	}
	short := spawn(r, "short", hx(2, 0), 1)
	short.Mode = &Moving{Queue: []world.HexCoord{hx(0, 0)}, Path: nav.Path{hx(1, 0), hx(0, 0)}}

	got := ResolveConflicts(DetectConflicts(r.Ships()), r.Get)
	if len(got) != 1 || got[0].Proceed != short.ID {
		t.Fatalf("expected the ship with less voyage left to proceed, got %+v", got)
	}
}

func TestRemainingVoyage(t *testing.T) {
	cases := []struct {
		name string
		mode Mode
		want int
	}{
		{"idle", &Idle{}, 0},
		{"single", &Pathfinding{Queue: []world.HexCoord{hx(3, 0)}}, 3},
		{"chain", &Moving{Queue: []world.HexCoord{hx(2, 0), hx(2, 2)}}, 4},
		{"chase", &Chasing{Goal: hx(0, 3), Path: nav.Path{hx(0, 1)}}, 3},
		{"chase unplanned", &Chasing{Goal: hx(0, 3)}, 0},
	}
	for _, tc := range cases {
		s := NewShip(tc.name, hx(0, 0), 1, 1)
		s.Mode = tc.mode
		if got := s.RemainingVoyage(); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestResolveConflictsTieGoesToIterationOrder(t *testing.T) {
	r := NewRoster()
	first := spawn(r, "first", hx(0, 0), 1)
	first.Mode = &Moving{Queue: []world.HexCoord{hx(1, 0)}, Path: nav.Path{hx(1, 0)}}
	second := spawn(r, "second", hx(2, 0), 1)
	second.Mode = &Moving{Queue: []world.HexCoord{hx(1, 0)}, Path: nav.Path{hx(1, 0)}}

	got := ResolveConflicts(DetectConflicts(r.Ships()), r.Get)
	if len(got) != 1 || got[0].Proceed != first.ID {
		t.Fatalf("expected first ship to win the tie, got %+v", got)
	}
}

// Two ships on either side of (1,0) both head for it in the same tick.
func TestUpdateTwoShipsSameCell(t *testing.T) {
	run := func() (TickReport, *Ship, *Ship) {
		m := world.NewOpenWater(4)
		r := NewRoster()
		a := spawn(r, "a", hx(0, 0), 1)
		b := spawn(r, "b", hx(2, 0), 1)
		a.MoveTo(hx(1, 0))
		b.MoveTo(hx(1, 0))
		return UpdateMovement(m, r, 1), a, b
	}

	rep, a, b := run()
	if len(rep.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %+v", rep.Conflicts)
	}
	c := rep.Conflicts[0]
	if c.Cell.Key() != "1,0" {
		t.Fatalf("expected conflict on 1,0, got %s", c.Cell.Key())
	}
	if c.Proceed != a.ID || !reflect.DeepEqual(c.Yielded, []ShipID{b.ID}) {
		t.Fatalf("unexpected resolution %+v", c)
	}
	if a.Position != hx(1, 0) {
		t.Fatalf("expected proceeding ship at 1,0, got %s", a.Position)
	}
	if b.Position != hx(2, 0) || b.ActivePath() != nil || b.Kind() != ModePathfinding {
		t.Fatalf("expected yielding ship to hold with no path, got %s %s %v", b.Position, b.Kind(), b.ActivePath())
	}
	if !hasNotice(rep, NoticeYielded, b.ID) {
		t.Fatal("expected a yield notice")
	}

	replay, _, _ := run()
	if !reflect.DeepEqual(rep.Conflicts, replay.Conflicts) {
		t.Fatalf("replay diverged: %+v vs %+v", rep.Conflicts, replay.Conflicts)
	}
}
