// World generation using layered simplex noise.
// Generates an elevation field and derives an archipelago: open ocean,
// shallows around every island, and land terrain above the waterline.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Radius      int     `yaml:"radius"`       // Hex grid radius
	Seed        int64   `yaml:"seed"`         // Random seed (0 = random)
	SeaLevel    float64 `yaml:"sea_level"`    // Elevation threshold for water (0.0–1.0)
	MountainLvl float64 `yaml:"mountain_lvl"` // Elevation threshold for mountains (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:      24,
		Seed:        0,
		SeaLevel:    0.55,
		MountainLvl: 0.82,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:      6,
		Seed:        42,
		SeaLevel:    0.55,
		MountainLvl: 0.85,
	}
}

// Generate creates a complete world map with terrain.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	detailNoise := opensimplex.NewNormalized(seed + 1)

	m := NewMap(cfg.Radius)

	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}

			// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0

			elev := octaveNoise(elevNoise, x, y, 4, 0.09, 0.5)
			elev = elev*0.85 + octaveNoise(detailNoise, x, y, 2, 0.3, 0.5)*0.15

			// Island shaping: push the rim of the map under water so ships
			// can always circle the archipelago.
			if Distance(coord, HexCoord{}) >= cfg.Radius-1 {
				elev = 0
			}

			m.Set(&Hex{
				Coord:     coord,
				Terrain:   deriveTerrain(elev, cfg),
				Elevation: elev,
			})
		}
	}

	markShallows(m)
	return m
}

// deriveTerrain determines terrain type from elevation.
func deriveTerrain(elev float64, cfg GenConfig) Terrain {
	switch {
	case elev < cfg.SeaLevel:
		return TerrainOcean
	case elev > cfg.MountainLvl:
		return TerrainMountain
	case elev < cfg.SeaLevel+0.05:
		return TerrainCoast
	case elev > (cfg.SeaLevel+cfg.MountainLvl)/2:
		return TerrainForest
	default:
		return TerrainPlains
	}
}

// markShallows converts ocean hexes bordering land into shallows.
func markShallows(m *Map) {
	var toMark []HexCoord
	for coord, hex := range m.Hexes {
		if hex.Terrain != TerrainOcean {
			continue
		}
		for _, nc := range coord.Neighbors() {
			nh := m.Get(nc)
			if nh != nil && !nh.Terrain.IsWater() {
				toMark = append(toMark, coord)
				break
			}
		}
	}
	for _, coord := range toMark {
		m.Get(coord).Terrain = TerrainShallows
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, hex := range m.Hexes {
		counts[hex.Terrain]++
	}
	return counts
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainOcean:
		return "Ocean"
	case TerrainShallows:
		return "Shallows"
	case TerrainCoast:
		return "Coast"
	case TerrainPlains:
		return "Plains"
	case TerrainForest:
		return "Forest"
	case TerrainMountain:
		return "Mountain"
	default:
		return "Unknown"
	}
}
