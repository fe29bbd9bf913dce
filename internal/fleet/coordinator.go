package fleet

import (
	"github.com/talgya/tidewater/internal/nav"
	"github.com/talgya/tidewater/internal/world"
)

// DefaultLookAhead is how many upcoming path cells a moving ship softly
// reserves.
const DefaultLookAhead = 3

// BuildReservations snapshots this tick's claims. Every ship first claims
// its own cell (permanent when stationary, soft otherwise); moving ships
// then softly claim up to lookAhead upcoming cells nobody else holds.
func BuildReservations(ships []*Ship, lookAhead int, costs nav.AvoidanceCosts) *nav.Reservations {
	res := nav.NewReservations(costs)
	for _, s := range ships {
		res.Reserve(s.Position, s.ID, s.IsStationary())
	}
	for _, s := range ships {
		if s.IsStationary() {
			continue
		}
		path := s.ActivePath()
		for i := 0; i < lookAhead && i < len(path); i++ {
			res.Reserve(path[i], s.ID, false)
		}
	}
	return res
}

// Conflict is a cell more than one ship intends to enter this tick.
// Claimants are in ship iteration order.
type Conflict struct {
	Cell      world.HexCoord `json:"cell"`
	Claimants []ShipID       `json:"claimants"`
}

// Resolution records which claimant proceeds and which yield.
type Resolution struct {
	Cell    world.HexCoord `json:"cell"`
	Proceed ShipID         `json:"proceed"`
	Yielded []ShipID       `json:"yielded"`
}

// DetectConflicts groups moving ships by the next cell on their path.
// Conflicts come back in the order their cell was first claimed.
func DetectConflicts(ships []*Ship) []Conflict {
	var order []world.HexCoord
	groups := make(map[world.HexCoord][]ShipID)
	for _, s := range ships {
		if s.IsStationary() {
			continue
		}
		next := s.ActivePath()[0]
		if _, seen := groups[next]; !seen {
			order = append(order, next)
		}
		groups[next] = append(groups[next], s.ID)
	}

	var conflicts []Conflict
	for _, c := range order {
		if ids := groups[c]; len(ids) > 1 {
			conflicts = append(conflicts, Conflict{Cell: c, Claimants: ids})
		}
	}
	return conflicts
}

// ResolveConflicts picks one ship per conflict to proceed. The ship with
// less voyage left to its final waypoint proceeds and the farther ones
// yield, whether or not they are already committed to the cell. Equal
// distances go to the earlier claimant.
func ResolveConflicts(conflicts []Conflict, lookup func(ShipID) (*Ship, bool)) []Resolution {
	out := make([]Resolution, 0, len(conflicts))
	for _, c := range conflicts {
		winner := c.Claimants[0]
		best := remainingVoyage(lookup, winner)
		for _, id := range c.Claimants[1:] {
			if r := remainingVoyage(lookup, id); r < best {
				winner, best = id, r
			}
		}
		res := Resolution{Cell: c.Cell, Proceed: winner}
		for _, id := range c.Claimants {
			if id != winner {
				res.Yielded = append(res.Yielded, id)
			}
		}
		out = append(out, res)
	}
	return out
}

func remainingVoyage(lookup func(ShipID) (*Ship, bool), id ShipID) int {
	s, ok := lookup(id)
	if !ok {
		return int(^uint(0) >> 1)
	}
	return s.RemainingVoyage()
}
