// Harbor placement: picks spread-out water cells where ships are launched.
package world

import (
	"math/rand"
	"sort"
)

// Harbor is a named water cell where ships spawn.
type Harbor struct {
	Coord HexCoord `json:"coord"`
	Name  string   `json:"name"`
	Score float64  `json:"score"` // Desirability score
}

// PlaceHarbors finds up to count harbor sites at least minDist apart.
// Shallows touching the coast score highest; open ocean is a fallback.
func PlaceHarbors(m *Map, count, minDist int, seed int64) []Harbor {
	rng := rand.New(rand.NewSource(seed + 200))

	type scored struct {
		coord HexCoord
		score float64
	}
	var candidates []scored

	coords := make([]HexCoord, 0, len(m.Hexes))
	for coord, hex := range m.Hexes {
		if hex.Terrain.IsWater() {
			coords = append(coords, coord)
		}
	}
	// Map iteration order is random; sort so the jitter below is seeded
	// deterministically.
	sort.Slice(coords, func(i, j int) bool { return lessCoord(coords[i], coords[j]) })

	for _, coord := range coords {
		// Jitter breaks ties between equally good sites.
		s := harborScore(m, coord, m.Get(coord)) + rng.Float64()*0.1
		candidates = append(candidates, scored{coord, s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return lessCoord(candidates[i].coord, candidates[j].coord)
	})

	var harbors []Harbor
	for _, c := range candidates {
		if len(harbors) >= count {
			break
		}
		if tooClose(c.coord, harbors, minDist) {
			continue
		}
		harbors = append(harbors, Harbor{Coord: c.coord, Score: c.score})
	}

	names := generateNames(rng, len(harbors))
	for i := range harbors {
		harbors[i].Name = names[i]
	}
	return harbors
}

// harborScore prefers sheltered water: shallows with land on some sides
// but enough open water around to leave port.
func harborScore(m *Map, coord HexCoord, hex *Hex) float64 {
	score := 1.0
	if hex.Terrain == TerrainShallows {
		score += 2.0
	}
	water, coast := 0, 0
	for _, nc := range coord.Neighbors() {
		nh := m.Get(nc)
		if nh == nil {
			continue
		}
		if nh.Terrain.IsWater() {
			water++
		} else if nh.Terrain == TerrainCoast {
			coast++
		}
	}
	if water < 3 {
		return 0.1
	}
	return score + float64(coast)*0.5
}

func lessCoord(a, b HexCoord) bool {
	if a.Q != b.Q {
		return a.Q < b.Q
	}
	return a.R < b.R
}

func tooClose(coord HexCoord, existing []Harbor, minDist int) bool {
	for _, h := range existing {
		if Distance(coord, h.Coord) < minDist {
			return true
		}
	}
	return false
}

// generateNames produces procedural harbor names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Salt", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Gull", "Tide", "Kelp", "Pearl", "Copper", "Anchor",
	}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bay", "gate", "keep",
		"mouth", "sound", "cove", "dale", "crest", "strand", "port",
		"quay", "bury", "marsh", "well", "firth", "cliff", "moor",
		"reach", "watch", "fall", "rest", "point", "harbor", "helm",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count && len(used) < len(prefixes)*len(suffixes) {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}
	for len(names) < count {
		names = append(names, "Anchorage")
	}

	return names
}
