// Package world provides the hex grid, terrain, and spatial data structures.
// Uses axial coordinates (q, r) for the hex grid.
package world

import (
	"fmt"
	"strconv"
	"strings"
)

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Key returns the canonical "q,r" string for the coordinate.
// Two coordinates are equal iff their keys are equal.
func (h HexCoord) Key() string {
	return strconv.Itoa(h.Q) + "," + strconv.Itoa(h.R)
}

// String implements fmt.Stringer.
func (h HexCoord) String() string {
	return h.Key()
}

// Add returns the component-wise sum of two coordinates.
func (h HexCoord) Add(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q + o.Q, R: h.R + o.R}
}

// ParseKey parses a "q,r" key back into a coordinate.
func ParseKey(key string) (HexCoord, error) {
	qs, rs, ok := strings.Cut(key, ",")
	if !ok {
		return HexCoord{}, fmt.Errorf("hex key %q: missing comma", key)
	}
	q, err := strconv.Atoi(strings.TrimSpace(qs))
	if err != nil {
		return HexCoord{}, fmt.Errorf("hex key %q: %w", key, err)
	}
	r, err := strconv.Atoi(strings.TrimSpace(rs))
	if err != nil {
		return HexCoord{}, fmt.Errorf("hex key %q: %w", key, err)
	}
	return HexCoord{Q: q, R: r}, nil
}

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainOcean    Terrain = iota // Deep water, open sailing
	TerrainShallows                // Navigable water near land
	TerrainCoast                   // Beaches and cliffs
	TerrainPlains                  // Lowland interior
	TerrainForest                  // Wooded hills
	TerrainMountain                // Peaks
)

// IsWater reports whether ships can occupy and cross this terrain.
func (t Terrain) IsWater() bool {
	return t == TerrainOcean || t == TerrainShallows
}

// Hex represents a single tile on the world map.
type Hex struct {
	Coord   HexCoord `json:"coord"`
	Terrain Terrain  `json:"terrain"`

	// Elevation is set during world generation.
	Elevation float64 `json:"elevation"` // 0.0 (sea floor) to 1.0 (peak)
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// IsAdjacent reports whether two coordinates share an edge.
func IsAdjacent(a, b HexCoord) bool {
	return Distance(a, b) == 1
}

// Distance returns the hex distance between two coordinates:
// (|dq| + |dq+dr| + |dr|) / 2.
func Distance(a, b HexCoord) int {
	dq := a.Q - b.Q
	dr := a.R - b.R
	return (abs(dq) + abs(dq+dr) + abs(dr)) / 2
}

// Range returns every coordinate within radius of center, center included.
// Order is stable: q ascending, then r ascending.
func Range(center HexCoord, radius int) []HexCoord {
	if radius < 0 {
		return nil
	}
	out := make([]HexCoord, 0, 3*radius*(radius+1)+1)
	for dq := -radius; dq <= radius; dq++ {
		lo := max(-radius, -dq-radius)
		hi := min(radius, -dq+radius)
		for dr := lo; dr <= hi; dr++ {
			out = append(out, HexCoord{Q: center.Q + dq, R: center.R + dr})
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
