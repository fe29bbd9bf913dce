package nav

import (
	"testing"

	"github.com/talgya/tidewater/internal/world"
)

// splitWaters lays out a land strip with a one-cell lake at (0,0) and a
// separate channel (3,0)..(5,0). The origin (1,0) is land.
func splitWaters() *world.Map {
	m := world.NewMap(6)
	for _, c := range world.Range(hx(0, 0), 6) {
		m.SetTerrain(c, world.TerrainPlains)
	}
	m.SetTerrain(hx(0, 0), world.TerrainShallows)
	for q := 3; q <= 5; q++ {
		m.SetTerrain(hx(q, 0), world.TerrainOcean)
	}
	return m
}

func TestFindNearestWater(t *testing.T) {
	m := splitWaters()

	got, ok := FindNearestWater(m, hx(1, 0), nil)
	if !ok || got != hx(0, 0) {
		t.Fatalf("expected lake (0,0), got %s ok=%v", got, ok)
	}

	from := hx(5, 0)
	got, ok = FindNearestWater(m, hx(1, 0), &from)
	if !ok || got != hx(3, 0) {
		t.Fatalf("expected reachable channel cell (3,0), got %s ok=%v", got, ok)
	}

	got, ok = FindNearestWater(m, hx(4, 0), nil)
	if !ok || got != hx(4, 0) {
		t.Fatalf("expected water origin to return itself, got %s ok=%v", got, ok)
	}
}

func TestFindNearestWaterExhaustsBound(t *testing.T) {
	m := world.NewMap(3)
	for _, c := range world.Range(hx(0, 0), 3) {
		m.SetTerrain(c, world.TerrainMountain)
	}
	if got, ok := FindNearestWater(m, hx(0, 0), nil); ok {
		t.Fatalf("expected no water, got %s", got)
	}
}

func TestFindNearestAvailable(t *testing.T) {
	m := world.NewOpenWater(4)

	got, ok := FindNearestAvailable(m, hx(1, 1), nil)
	if !ok || got != hx(1, 1) {
		t.Fatalf("expected unblocked origin back, got %s ok=%v", got, ok)
	}

	blocked := NewCellSet(hx(0, 0))
	got, ok = FindNearestAvailable(m, hx(0, 0), blocked)
	if !ok {
		t.Fatalf("expected a free neighbor")
	}
	if world.Distance(got, hx(0, 0)) != 1 || blocked.Has(got) {
		t.Fatalf("expected a free neighbor of origin, got %s", got)
	}
}

func TestFindNearestAvailableStaysInWater(t *testing.T) {
	m := splitWaters()
	// The lake is occupied and land surrounds it, so nothing is reachable.
	if got, ok := FindNearestAvailable(m, hx(0, 0), NewCellSet(hx(0, 0))); ok {
		t.Fatalf("expected no reachable free cell, got %s", got)
	}

	got, ok := FindNearestAvailable(m, hx(3, 0), NewCellSet(hx(3, 0), hx(4, 0)))
	if !ok || got != hx(5, 0) {
		t.Fatalf("expected (5,0) along the channel, got %s ok=%v", got, ok)
	}
}

func TestFindNearestAvailableWithinBound(t *testing.T) {
	m := world.NewOpenWater(6)
	blocked := NewCellSet(world.Range(hx(0, 0), 2)...)
	if got, ok := FindNearestAvailableWithin(m, hx(0, 0), blocked, 2); ok {
		t.Fatalf("expected bound to be exhausted, got %s", got)
	}
	got, ok := FindNearestAvailableWithin(m, hx(0, 0), blocked, 3)
	if !ok || world.Distance(got, hx(0, 0)) != 3 {
		t.Fatalf("expected a ring-3 cell, got %s ok=%v", got, ok)
	}
}
