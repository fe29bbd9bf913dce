package fleet

import (
	"errors"
	"fmt"

	"github.com/talgya/tidewater/internal/nav"
	"github.com/talgya/tidewater/internal/world"
)

// ErrSelfTarget is returned when a ship is ordered to attack itself.
var ErrSelfTarget = errors.New("fleet: ship cannot target itself")

// MoveTo clears every pending order and sets a single new destination.
// A ship already in transit keeps its committed next cell; the new route is
// planned from there.
func (s *Ship) MoveTo(dest world.HexCoord) {
	s.Mode = &Pathfinding{Queue: []world.HexCoord{dest}}
	s.avoid = false
}

// QueueWaypoint appends dest to the back of the current voyage without
// interrupting the leg in progress. While chasing, the stop is added to the
// order the ship resumes afterwards.
func (s *Ship) QueueWaypoint(dest world.HexCoord) {
	s.Mode = appendWaypoint(s.Mode, dest)
}

func appendWaypoint(m Mode, dest world.HexCoord) Mode {
	switch md := m.(type) {
	case *Pathfinding:
		md.Queue = append(md.Queue, dest)
		return md
	case *Moving:
		md.Queue = append(md.Queue, dest)
		return md
	case *Patrolling:
		md.Queue = append(md.Queue, dest)
		return md
	case *Chasing:
		md.Resume = appendWaypoint(md.Resume, dest)
		return md
	}
	return &Pathfinding{Queue: []world.HexCoord{dest}}
}

// StartPatrol plans a closed circuit through waypoints and switches the ship
// into patrol mode. The ship's current order is untouched on error.
func (s *Ship) StartPatrol(m nav.Passability, waypoints []world.HexCoord, penalty int) error {
	circuit, err := nav.ComputePatrolCircuitWithPenalty(m, waypoints, penalty)
	if err != nil {
		return fmt.Errorf("ship %d patrol: %w", s.ID, err)
	}
	s.Mode = &Patrolling{
		Circuit: circuit,
		Queue:   restoreCircuit(circuit, s.Position),
	}
	s.avoid = false
	return nil
}

// Attack starts chasing target. Losing the target returns the ship to what
// it was doing before.
func (s *Ship) Attack(target ShipID) error {
	if target == s.ID {
		return ErrSelfTarget
	}
	var prior Mode = s.Mode
	if c, ok := s.Mode.(*Chasing); ok {
		prior = c.Resume
	}
	s.Mode = &Chasing{Target: target, Resume: resumable(prior)}
	return nil
}

// Stop cancels every order. A ship mid-step finishes entering its committed
// cell and then idles.
func (s *Ship) Stop() {
	s.avoid = false
	if s.Committed != nil && s.Progress > 0 {
		s.Mode = &Moving{
			Queue: []world.HexCoord{*s.Committed},
			Path:  nav.Path{*s.Committed},
		}
		return
	}
	s.Mode = &Idle{}
	s.Progress = 0
	s.Committed = nil
}

// Dock immobilizes the ship; it holds a permanent reservation until Undock.
func (s *Ship) Dock() {
	s.Docked = true
	s.Progress = 0
	s.Committed = nil
	s.invalidatePath()
}

// Undock releases the ship to continue its orders.
func (s *Ship) Undock() {
	s.Docked = false
}
