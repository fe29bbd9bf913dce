package nav

import "github.com/talgya/tidewater/internal/world"

// DefaultSearchRadius bounds the breadth-first spatial queries.
const DefaultSearchRadius = 12

// FindNearestWater returns the passable cell closest to cell, searching
// outward breadth-first up to DefaultSearchRadius. When from is non-nil a
// candidate only counts if a real path connects it to *from.
func FindNearestWater(m Passability, cell world.HexCoord, from *world.HexCoord) (world.HexCoord, bool) {
	return FindNearestWaterWithin(m, cell, from, DefaultSearchRadius)
}

// FindNearestWaterWithin is FindNearestWater with an explicit bound.
func FindNearestWaterWithin(m Passability, cell world.HexCoord, from *world.HexCoord, radius int) (world.HexCoord, bool) {
	accept := func(c world.HexCoord) bool {
		if !m.IsPassable(c) {
			return false
		}
		if from == nil {
			return true
		}
		_, err := FindPath(m, *from, c, nil)
		return err == nil
	}
	// Land may separate the origin from the nearest water, so expansion is
	// not limited to passable cells.
	return bfs(cell, radius, accept, func(world.HexCoord) bool { return true })
}

// FindNearestAvailable returns cell itself if it is passable and not in
// blocked, otherwise the nearest such cell reachable through water within
// DefaultSearchRadius.
func FindNearestAvailable(m Passability, cell world.HexCoord, blocked CellSet) (world.HexCoord, bool) {
	return FindNearestAvailableWithin(m, cell, blocked, DefaultSearchRadius)
}

// FindNearestAvailableWithin is FindNearestAvailable with an explicit bound.
func FindNearestAvailableWithin(m Passability, cell world.HexCoord, blocked CellSet, radius int) (world.HexCoord, bool) {
	accept := func(c world.HexCoord) bool {
		return m.IsPassable(c) && !blocked.Has(c)
	}
	expand := func(c world.HexCoord) bool {
		return c == cell || m.IsPassable(c)
	}
	return bfs(cell, radius, accept, expand)
}

// bfs walks outward from origin in neighbor order, never farther than
// radius, and returns the first cell accept approves. Only cells expand
// approves have their neighbors explored.
func bfs(origin world.HexCoord, radius int, accept, expand func(world.HexCoord) bool) (world.HexCoord, bool) {
	visited := map[world.HexCoord]struct{}{origin: {}}
	queue := []world.HexCoord{origin}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if accept(current) {
			return current, true
		}
		if !expand(current) {
			continue
		}
		for _, nc := range current.Neighbors() {
			if _, seen := visited[nc]; seen {
				continue
			}
			if world.Distance(origin, nc) > radius {
				continue
			}
			visited[nc] = struct{}{}
			queue = append(queue, nc)
		}
	}
	return world.HexCoord{}, false
}
