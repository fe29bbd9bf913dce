// Commander: seeded rule-based order driver for ships without a player.
// Idle ships sail between harbors and open water, some put in to dock for a
// while, and now and then one picks a fight.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/tidewater/internal/config"
	"github.com/talgya/tidewater/internal/fleet"
	"github.com/talgya/tidewater/internal/nav"
	"github.com/talgya/tidewater/internal/world"
)

// Commander tuning.
const (
	DockChance     = 0.3  // Idle ship at a harbor docks
	DockTicks      = 30   // How long a docked ship stays
	BreakOffChance = 0.15 // Chasing ship in range gives up per tick
	HarborVoyage   = 0.5  // Share of voyages that end at a harbor
)

// Commander issues orders to idle ships.
type Commander struct {
	rng          *rand.Rand
	harbors      []world.Harbor
	water        []world.HexCoord
	attackChance float64
	undockAt     map[fleet.ShipID]uint64
}

// NewCommander creates a commander over the water cells of m.
func NewCommander(m *world.Map, harbors []world.Harbor, attackChance float64, seed int64) *Commander {
	var water []world.HexCoord
	for _, c := range world.Range(world.HexCoord{}, m.Radius) {
		if m.IsPassable(c) {
			water = append(water, c)
		}
	}
	return &Commander{
		rng:          rand.New(rand.NewSource(seed + 500)),
		harbors:      harbors,
		water:        water,
		attackChance: attackChance,
		undockAt:     make(map[fleet.ShipID]uint64),
	}
}

var (
	shipPrefixes = []string{"Sea", "Storm", "Salt", "Gale", "Tide", "Grey", "Iron", "Swift", "Dawn", "North"}
	shipNouns    = []string{"Heron", "Runner", "Wake", "Petrel", "Lance", "Kestrel", "Mariner", "Gull", "Skerry", "Tern"}
)

func (c *Commander) shipName() string {
	return shipPrefixes[c.rng.Intn(len(shipPrefixes))] + " " + shipNouns[c.rng.Intn(len(shipNouns))]
}

// Launch spawns cfg.Ships ships spread around the harbors and sends a
// cfg.PatrolShare of them on patrol circuits between harbors. It returns
// the number of ships launched.
func (c *Commander) Launch(sim *Simulation, cfg config.FleetConfig) int {
	if len(c.harbors) == 0 || cfg.Ships == 0 {
		return 0
	}
	occupied := make(nav.CellSet)
	patrols := int(float64(cfg.Ships) * cfg.PatrolShare)
	launched := 0
	for i := 0; i < cfg.Ships; i++ {
		h := c.harbors[i%len(c.harbors)]
		pos, ok := nav.FindNearestAvailable(sim.WorldMap, h.Coord, occupied)
		if !ok {
			slog.Warn("no free water near harbor", "harbor", h.Name)
			continue
		}
		occupied.Add(pos)

		speed := cfg.MinSpeed + c.rng.Float64()*(cfg.MaxSpeed-cfg.MinSpeed)
		ship := fleet.NewShip(c.shipName(), pos, speed, cfg.WeaponRange)
		id := sim.Spawn(ship)
		launched++

		if i < patrols && len(c.harbors) > 1 {
			waypoints := []world.HexCoord{pos}
			for k := 1; k <= 2 && k < len(c.harbors); k++ {
				waypoints = append(waypoints, c.harbors[(i+k)%len(c.harbors)].Coord)
			}
			if err := sim.StartPatrol(id, waypoints); err != nil {
				slog.Debug("patrol not possible", "ship", ship.Name, "error", err)
			}
		}
	}
	return launched
}

// Decide issues this tick's orders. Runs inside Simulation.Tick with the lock
// held, so it works on the roster directly.
func (c *Commander) Decide(tick uint64, r *fleet.Roster) []Event {
	var events []Event
	order := func(s *fleet.Ship, desc string) {
		events = append(events, Event{
			Tick:        tick,
			Category:    "order",
			Ship:        s.ID,
			Q:           s.Position.Q,
			R:           s.Position.R,
			Description: fmt.Sprintf("%s: %s", s.Name, desc),
		})
	}

	ships := r.Ships()
	for _, s := range ships {
		if s.Docked {
			// Ships docked by someone else stay until they undock themselves.
			if at, ok := c.undockAt[s.ID]; ok && tick >= at {
				delete(c.undockAt, s.ID)
				s.Undock()
				order(s, "undock")
				if dest, ok := c.destination(); ok && dest != s.Position {
					s.MoveTo(dest)
					order(s, "move to "+dest.Key())
				}
			}
			continue
		}

		switch md := s.Mode.(type) {
		case *fleet.Chasing:
			if md.InRange && c.rng.Float64() < BreakOffChance {
				s.Stop()
				order(s, "break off")
			}
		case *fleet.Idle:
			if c.atHarbor(s.Position) && c.rng.Float64() < DockChance {
				s.Dock()
				c.undockAt[s.ID] = tick + DockTicks
				order(s, "dock")
				continue
			}
			if len(ships) > 1 && c.rng.Float64() < c.attackChance {
				target := ships[c.rng.Intn(len(ships))]
				if target != s && s.Attack(target.ID) == nil {
					order(s, "attack "+target.Name)
					continue
				}
			}
			if dest, ok := c.destination(); ok && dest != s.Position {
				s.MoveTo(dest)
				order(s, "move to "+dest.Key())
			}
		}
	}
	return events
}

func (c *Commander) atHarbor(pos world.HexCoord) bool {
	for _, h := range c.harbors {
		if world.Distance(h.Coord, pos) <= 1 {
			return true
		}
	}
	return false
}

func (c *Commander) destination() (world.HexCoord, bool) {
	if len(c.harbors) > 0 && c.rng.Float64() < HarborVoyage {
		return c.harbors[c.rng.Intn(len(c.harbors))].Coord, true
	}
	if len(c.water) == 0 {
		return world.HexCoord{}, false
	}
	return c.water[c.rng.Intn(len(c.water))], true
}
