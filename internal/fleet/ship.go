// Package fleet moves ships across the hex map: ship state and modes, the
// roster, orders, the per-tick reservation and conflict coordinator, and the
// movement executor that commits motion.
package fleet

import (
	"github.com/talgya/tidewater/internal/nav"
	"github.com/talgya/tidewater/internal/world"
)

// ShipID is a generation-checked roster handle.
type ShipID = nav.AgentID

// ModeKind names the variant a ship's Mode holds.
type ModeKind uint8

const (
	ModeIdle ModeKind = iota
	ModePathfinding
	ModeMoving
	ModeChasing
	ModePatrolling
)

// String returns the lowercase mode name.
func (k ModeKind) String() string {
	switch k {
	case ModeIdle:
		return "idle"
	case ModePathfinding:
		return "pathfinding"
	case ModeMoving:
		return "moving"
	case ModeChasing:
		return "chasing"
	case ModePatrolling:
		return "patrolling"
	default:
		return "unknown"
	}
}

// Mode is the tagged union of what a ship is doing. Each variant carries
// only the data that mode needs.
type Mode interface {
	Kind() ModeKind
}

// Idle ships have no waypoints.
type Idle struct{}

// Pathfinding ships have waypoints but no cached path to the first one.
type Pathfinding struct {
	Queue []world.HexCoord
}

// Moving ships follow Path toward Queue[0].
type Moving struct {
	Queue []world.HexCoord
	Path  nav.Path
}

// Patrolling ships replay Circuit forever. Queue holds the cells still to
// visit on the current lap; a nil Path means the next leg needs planning.
type Patrolling struct {
	Circuit nav.Path
	Queue   []world.HexCoord
	Path    nav.Path
}

// Chasing ships close to weapon range of Target. Anchor is the target cell
// the current Path was planned against. InRange latches while the ship holds
// position within range. Resume is restored when the target is lost.
type Chasing struct {
	Target  ShipID
	Anchor  world.HexCoord
	Goal    world.HexCoord
	Path    nav.Path
	InRange bool
	Resume  Mode
}

func (*Idle) Kind() ModeKind        { return ModeIdle }
func (*Pathfinding) Kind() ModeKind { return ModePathfinding }
func (*Moving) Kind() ModeKind      { return ModeMoving }
func (*Patrolling) Kind() ModeKind  { return ModePatrolling }
func (*Chasing) Kind() ModeKind     { return ModeChasing }

// Ship is one agent's movement state.
type Ship struct {
	ID          ShipID          `json:"id"`
	Name        string          `json:"name"`
	Position    world.HexCoord  `json:"position"`
	Speed       float64         `json:"speed"`    // cells per unit of dt
	Progress    float64         `json:"progress"` // [0, 1) toward the next path cell
	Committed   *world.HexCoord `json:"committed,omitempty"`
	Docked      bool            `json:"docked"`
	WeaponRange int             `json:"weapon_range"`
	Mode        Mode            `json:"-"`

	// avoid makes the next plan use avoidance-augmented search.
	avoid bool
}

// NewShip creates an idle ship.
func NewShip(name string, pos world.HexCoord, speed float64, weaponRange int) *Ship {
	return &Ship{
		Name:        name,
		Position:    pos,
		Speed:       speed,
		WeaponRange: weaponRange,
		Mode:        &Idle{},
	}
}

// Kind returns the current mode kind.
func (s *Ship) Kind() ModeKind {
	if s.Mode == nil {
		return ModeIdle
	}
	return s.Mode.Kind()
}

// ActivePath returns the cached path, or nil when the ship has none.
func (s *Ship) ActivePath() nav.Path {
	switch md := s.Mode.(type) {
	case *Moving:
		return md.Path
	case *Patrolling:
		return md.Path
	case *Chasing:
		return md.Path
	}
	return nil
}

// IsStationary reports whether the ship holds its cell this tick: docked,
// or without any remaining path cell to enter.
func (s *Ship) IsStationary() bool {
	return s.Docked || len(s.ActivePath()) == 0
}

// Destination returns the cell the ship is currently heading for.
func (s *Ship) Destination() (world.HexCoord, bool) {
	switch md := s.Mode.(type) {
	case *Pathfinding:
		if len(md.Queue) > 0 {
			return md.Queue[0], true
		}
	case *Moving:
		if len(md.Queue) > 0 {
			return md.Queue[0], true
		}
	case *Patrolling:
		if len(md.Queue) > 0 {
			return md.Queue[0], true
		}
	case *Chasing:
		if md.Path != nil {
			return md.Goal, true
		}
	}
	return world.HexCoord{}, false
}

// RemainingVoyage returns the hex distance still to sail through every
// queued waypoint to the last one. A chase counts the distance to its goal.
func (s *Ship) RemainingVoyage() int {
	if md, ok := s.Mode.(*Chasing); ok {
		if md.Path == nil {
			return 0
		}
		return world.Distance(s.Position, md.Goal)
	}
	total := 0
	at := s.Position
	for _, wp := range s.Waypoints() {
		total += world.Distance(at, wp)
		at = wp
	}
	return total
}

// Waypoints returns a copy of the pending waypoint queue.
func (s *Ship) Waypoints() []world.HexCoord {
	var q []world.HexCoord
	switch md := s.Mode.(type) {
	case *Pathfinding:
		q = md.Queue
	case *Moving:
		q = md.Queue
	case *Patrolling:
		q = md.Queue
	}
	if len(q) == 0 {
		return nil
	}
	return append([]world.HexCoord(nil), q...)
}

// setPath caches a path for the current destination.
func (s *Ship) setPath(p nav.Path) {
	switch md := s.Mode.(type) {
	case *Pathfinding:
		s.Mode = &Moving{Queue: md.Queue, Path: p}
	case *Moving:
		md.Path = p
	case *Patrolling:
		md.Path = p
	case *Chasing:
		md.Path = p
	}
}

// invalidatePath drops the cached path so the next tick replans.
func (s *Ship) invalidatePath() {
	switch md := s.Mode.(type) {
	case *Moving:
		s.Mode = &Pathfinding{Queue: md.Queue}
	case *Patrolling:
		md.Path = nil
	case *Chasing:
		md.Path = nil
	}
}

// replaceDestination swaps the current waypoint for c and drops the path.
func (s *Ship) replaceDestination(c world.HexCoord) {
	switch md := s.Mode.(type) {
	case *Pathfinding:
		md.Queue[0] = c
	case *Moving:
		md.Queue[0] = c
	case *Patrolling:
		md.Queue[0] = c
	}
	s.invalidatePath()
}

// dropDestination discards the current waypoint and moves on to the next.
func (s *Ship) dropDestination() {
	switch md := s.Mode.(type) {
	case *Pathfinding:
		s.Mode = afterWaypoint(md.Queue)
	case *Moving:
		s.Mode = afterWaypoint(md.Queue)
	case *Patrolling:
		if len(md.Queue) > 0 {
			md.Queue = md.Queue[1:]
		}
		md.Path = nil
	case *Chasing:
		md.Path = nil
	}
}

// afterWaypoint returns the mode for a voyage whose first stop is done.
func afterWaypoint(queue []world.HexCoord) Mode {
	if len(queue) <= 1 {
		return &Idle{}
	}
	return &Pathfinding{Queue: queue[1:]}
}

// restoreCircuit returns a fresh lap of circuit for a ship at pos. Leading
// cells equal to pos are skipped; if that skips everything the lap starts
// from the beginning.
func restoreCircuit(circuit nav.Path, pos world.HexCoord) []world.HexCoord {
	i := 0
	for i < len(circuit) && circuit[i] == pos {
		i++
	}
	if i == len(circuit) {
		i = 0
	}
	return append([]world.HexCoord(nil), circuit[i:]...)
}

// resumable returns the mode to fall back to after a chase, with any cached
// path dropped.
func resumable(m Mode) Mode {
	switch md := m.(type) {
	case *Pathfinding:
		return md
	case *Moving:
		return &Pathfinding{Queue: md.Queue}
	case *Patrolling:
		md.Path = nil
		return md
	case *Chasing:
		if md.Resume != nil {
			return resumable(md.Resume)
		}
	}
	return &Idle{}
}
