package engine

import (
	"fmt"

	"github.com/talgya/tidewater/internal/fleet"
	"github.com/talgya/tidewater/internal/nav"
	"github.com/talgya/tidewater/internal/world"
)

// ShipView is a read-only snapshot of one ship for the API.
type ShipView struct {
	ID          fleet.ShipID     `json:"id"`
	Name        string           `json:"name"`
	Position    world.HexCoord   `json:"position"`
	Mode        string           `json:"mode"`
	Speed       float64          `json:"speed"`
	Progress    float64          `json:"progress"`
	Committed   *world.HexCoord  `json:"committed,omitempty"`
	Docked      bool             `json:"docked"`
	WeaponRange int              `json:"weapon_range"`
	Destination *world.HexCoord  `json:"destination,omitempty"`
	Waypoints   []world.HexCoord `json:"waypoints,omitempty"`
	Path        nav.Path         `json:"path,omitempty"`
	Target      *fleet.ShipID    `json:"target,omitempty"`
}

func viewOf(s *fleet.Ship) ShipView {
	v := ShipView{
		ID:          s.ID,
		Name:        s.Name,
		Position:    s.Position,
		Mode:        s.Kind().String(),
		Speed:       s.Speed,
		Progress:    s.Progress,
		Docked:      s.Docked,
		WeaponRange: s.WeaponRange,
		Waypoints:   s.Waypoints(),
		Path:        s.ActivePath().Clone(),
	}
	if s.Committed != nil {
		c := *s.Committed
		v.Committed = &c
	}
	if dest, ok := s.Destination(); ok {
		v.Destination = &dest
	}
	if c, ok := s.Mode.(*fleet.Chasing); ok {
		target := c.Target
		v.Target = &target
	}
	return v
}

// Ships returns a snapshot of every ship in roster order.
func (s *Simulation) Ships() []ShipView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ships := s.Roster.Ships()
	out := make([]ShipView, 0, len(ships))
	for _, sh := range ships {
		out = append(out, viewOf(sh))
	}
	return out
}

// Ship returns a snapshot of one ship.
func (s *Simulation) Ship(id fleet.ShipID) (ShipView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.Roster.Get(id)
	if !ok {
		return ShipView{}, false
	}
	return viewOf(sh), true
}

// order runs fn against a live ship under the write lock and records an
// order event on success.
func (s *Simulation) order(id fleet.ShipID, desc string, fn func(*fleet.Ship) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.Roster.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownShip, id)
	}
	if err := fn(sh); err != nil {
		return err
	}
	s.record(Event{
		Tick:        s.lastTick,
		Category:    "order",
		Ship:        id,
		Q:           sh.Position.Q,
		R:           sh.Position.R,
		Description: fmt.Sprintf("%s: %s", sh.Name, desc),
	})
	s.updateStats()
	return nil
}

// MoveTo replaces a ship's orders with a single destination.
func (s *Simulation) MoveTo(id fleet.ShipID, dest world.HexCoord) error {
	return s.order(id, "move to "+dest.Key(), func(sh *fleet.Ship) error {
		sh.MoveTo(dest)
		return nil
	})
}

// QueueWaypoint appends a stop to a ship's voyage.
func (s *Simulation) QueueWaypoint(id fleet.ShipID, dest world.HexCoord) error {
	return s.order(id, "queue "+dest.Key(), func(sh *fleet.Ship) error {
		sh.QueueWaypoint(dest)
		return nil
	})
}

// StartPatrol plans a circuit through waypoints and starts patrolling it.
func (s *Simulation) StartPatrol(id fleet.ShipID, waypoints []world.HexCoord) error {
	return s.order(id, fmt.Sprintf("patrol %d waypoints", len(waypoints)), func(sh *fleet.Ship) error {
		return sh.StartPatrol(s.WorldMap, waypoints, s.Executor.Config.PatrolPenalty)
	})
}

// Attack sets a ship chasing another.
func (s *Simulation) Attack(id, target fleet.ShipID) error {
	return s.order(id, fmt.Sprintf("attack %d", target), func(sh *fleet.Ship) error {
		if _, ok := s.Roster.Get(target); !ok {
			return fmt.Errorf("%w: target %d", ErrUnknownShip, target)
		}
		return sh.Attack(target)
	})
}

// Stop cancels every order for a ship.
func (s *Simulation) Stop(id fleet.ShipID) error {
	return s.order(id, "stop", func(sh *fleet.Ship) error {
		sh.Stop()
		return nil
	})
}

// Dock immobilizes a ship in place.
func (s *Simulation) Dock(id fleet.ShipID) error {
	return s.order(id, "dock", func(sh *fleet.Ship) error {
		sh.Dock()
		return nil
	})
}

// Undock releases a docked ship.
func (s *Simulation) Undock(id fleet.ShipID) error {
	return s.order(id, "undock", func(sh *fleet.Ship) error {
		sh.Undock()
		return nil
	})
}

// Remove takes a ship out of the simulation. Ships chasing it lose their
// target on the next tick.
func (s *Simulation) Remove(id fleet.ShipID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.Roster.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownShip, id)
	}
	s.Roster.Remove(id)
	s.record(Event{
		Tick:        s.lastTick,
		Category:    "removed",
		Ship:        id,
		Q:           sh.Position.Q,
		R:           sh.Position.R,
		Description: sh.Name + " left the map",
	})
	s.updateStats()
	return nil
}
