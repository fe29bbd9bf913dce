package world

import "fmt"

// Map holds the complete hex grid world state.
type Map struct {
	Hexes  map[HexCoord]*Hex `json:"-"` // All hexes keyed by coordinate
	Radius int               `json:"radius"`
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains hexes where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	m := &Map{
		Hexes:  make(map[HexCoord]*Hex),
		Radius: radius,
	}
	return m
}

// NewOpenWater creates a map of the given radius filled with ocean.
func NewOpenWater(radius int) *Map {
	m := NewMap(radius)
	for _, c := range Range(HexCoord{}, radius) {
		m.Set(&Hex{Coord: c, Terrain: TerrainOcean})
	}
	return m
}

// Get returns the hex at the given coordinate, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Hex {
	return m.Hexes[coord]
}

// Set places a hex at the given coordinate.
func (m *Map) Set(hex *Hex) {
	m.Hexes[hex.Coord] = hex
}

// SetTerrain changes the terrain of an existing hex, creating it if absent.
func (m *Map) SetTerrain(coord HexCoord, t Terrain) {
	if h := m.Hexes[coord]; h != nil {
		h.Terrain = t
		return
	}
	m.Set(&Hex{Coord: coord, Terrain: t})
}

// IsPassable reports whether a ship may occupy the coordinate.
// Cells off the map are never passable.
func (m *Map) IsPassable(coord HexCoord) bool {
	h := m.Hexes[coord]
	return h != nil && h.Terrain.IsWater()
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return Distance(coord, HexCoord{}) <= m.Radius
}

// HexCount returns the total number of hexes in the map.
func (m *Map) HexCount() int {
	return len(m.Hexes)
}

// WaterCount returns the number of passable hexes.
func (m *Map) WaterCount() int {
	n := 0
	for _, h := range m.Hexes {
		if h.Terrain.IsWater() {
			n++
		}
	}
	return n
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, hexes=%d)", m.Radius, m.HexCount())
}
