package nav

import (
	"testing"

	"github.com/talgya/tidewater/internal/world"
)

func hx(q, r int) world.HexCoord { return world.HexCoord{Q: q, R: r} }

// corridor builds a map whose only water is the straight line (0,0)..(n-1,0).
func corridor(n int) *world.Map {
	m := world.NewMap(n)
	for q := 0; q < n; q++ {
		m.SetTerrain(hx(q, 0), world.TerrainOcean)
	}
	return m
}

func assertContiguous(t *testing.T, start world.HexCoord, path Path) {
	t.Helper()
	prev := start
	for i, c := range path {
		if !world.IsAdjacent(prev, c) {
			t.Fatalf("step %d: %s is not adjacent to %s (path %v)", i, c, prev, path)
		}
		prev = c
	}
}
