package nav

import "github.com/talgya/tidewater/internal/world"

// AgentID identifies the agent holding a reservation. Zero is never a valid
// agent.
type AgentID uint64

// Avoidance surcharges used by FindPathWithAvoidance.
const (
	DefaultAdjacencyPenalty = 1 // cell touches another agent's claim
	DefaultSoftClaimPenalty = 4 // cell is softly claimed by another agent
)

// AvoidanceCosts tunes how strongly avoidance search steers around claims.
type AvoidanceCosts struct {
	Adjacency int `yaml:"adjacency"`
	SoftClaim int `yaml:"soft_claim"`
}

// DefaultAvoidanceCosts returns the stock surcharges.
func DefaultAvoidanceCosts() AvoidanceCosts {
	return AvoidanceCosts{Adjacency: DefaultAdjacencyPenalty, SoftClaim: DefaultSoftClaimPenalty}
}

// Reservation records who claimed a cell this tick. Permanent claims belong
// to stationary agents and forbid entry; soft claims belong to agents in
// transit and only raise the cost of entry.
type Reservation struct {
	Owner     AgentID `json:"owner"`
	Permanent bool    `json:"permanent"`
}

// Reservations is the per-tick claim table. Build a fresh one every tick.
type Reservations struct {
	cells map[world.HexCoord]Reservation
	costs AvoidanceCosts
}

// NewReservations creates an empty table priced with costs.
func NewReservations(costs AvoidanceCosts) *Reservations {
	if costs.Adjacency < 0 {
		costs.Adjacency = 0
	}
	if costs.SoftClaim < 0 {
		costs.SoftClaim = 0
	}
	return &Reservations{
		cells: make(map[world.HexCoord]Reservation),
		costs: costs,
	}
}

// Reserve claims c for owner. The first claimant of a cell keeps it; a
// later claim by another agent is refused and Reserve returns false. An
// owner re-claiming its own cell may upgrade a soft claim to permanent.
func (r *Reservations) Reserve(c world.HexCoord, owner AgentID, permanent bool) bool {
	if cur, ok := r.cells[c]; ok {
		if cur.Owner != owner {
			return false
		}
		if permanent && !cur.Permanent {
			r.cells[c] = Reservation{Owner: owner, Permanent: true}
		}
		return true
	}
	r.cells[c] = Reservation{Owner: owner, Permanent: permanent}
	return true
}

// At returns the reservation on c, if any.
func (r *Reservations) At(c world.HexCoord) (Reservation, bool) {
	res, ok := r.cells[c]
	return res, ok
}

// Len returns the number of claimed cells.
func (r *Reservations) Len() int {
	return len(r.cells)
}

// BlockedFor reports whether c is permanently claimed by an agent other
// than self.
func (r *Reservations) BlockedFor(c world.HexCoord, self AgentID) bool {
	res, ok := r.cells[c]
	return ok && res.Permanent && res.Owner != self
}

// PermanentCells returns every cell permanently claimed by someone other
// than self.
func (r *Reservations) PermanentCells(self AgentID) CellSet {
	out := make(CellSet)
	for c, res := range r.cells {
		if res.Permanent && res.Owner != self {
			out.Add(c)
		}
	}
	return out
}

// Surcharge prices entry into c for agent self.
func (r *Reservations) Surcharge(c world.HexCoord, self AgentID) (extra int, excluded bool) {
	if res, ok := r.cells[c]; ok && res.Owner != self {
		if res.Permanent {
			return 0, true
		}
		return r.costs.SoftClaim, false
	}
	for _, nc := range c.Neighbors() {
		if res, ok := r.cells[nc]; ok && res.Owner != self {
			return r.costs.Adjacency, false
		}
	}
	return 0, false
}
