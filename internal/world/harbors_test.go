package world

import "testing"

func TestPlaceHarborsSpacing(t *testing.T) {
	m := NewOpenWater(8)
	harbors := PlaceHarbors(m, 4, 5, 1)
	if len(harbors) == 0 {
		t.Fatal("no harbors placed")
	}
	names := make(map[string]bool)
	for i, h := range harbors {
		if !m.IsPassable(h.Coord) {
			t.Fatalf("harbor %s on land", h.Name)
		}
		if h.Name == "" || names[h.Name] {
			t.Fatalf("harbor name %q missing or repeated", h.Name)
		}
		names[h.Name] = true
		for _, o := range harbors[:i] {
			if Distance(h.Coord, o.Coord) < 5 {
				t.Fatalf("harbors %s and %s are too close", h.Name, o.Name)
			}
		}
	}
}

func TestPlaceHarborsDeterministic(t *testing.T) {
	m := Generate(SmallTestConfig())
	a := PlaceHarbors(m, 3, 3, 42)
	b := PlaceHarbors(m, 3, 3, 42)
	if len(a) != len(b) {
		t.Fatalf("different harbor counts %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("harbor %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPlaceHarborsPrefersShallows(t *testing.T) {
	m := NewOpenWater(6)
	m.SetTerrain(HexCoord{}, TerrainCoast)
	for _, n := range (HexCoord{}).Neighbors() {
		m.SetTerrain(n, TerrainShallows)
	}
	harbors := PlaceHarbors(m, 1, 1, 3)
	if len(harbors) != 1 || m.Get(harbors[0].Coord).Terrain != TerrainShallows {
		t.Fatalf("expected a shallows harbor, got %+v", harbors)
	}
}
