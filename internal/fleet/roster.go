package fleet

import "github.com/talgya/tidewater/internal/world"

// Roster owns every ship in the simulation. IDs are generation-checked
// slots: a removed ship's slot is reused under a new generation, so stale
// IDs held by other ships (chase targets) simply stop resolving.
type Roster struct {
	slots []rosterSlot
	free  []uint32
	count int
}

type rosterSlot struct {
	gen  uint32
	ship *Ship
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{}
}

func makeID(slot, gen uint32) ShipID {
	return ShipID(uint64(gen)<<32 | uint64(slot))
}

func splitID(id ShipID) (slot, gen uint32) {
	return uint32(uint64(id) & 0xffffffff), uint32(uint64(id) >> 32)
}

// Spawn adds a ship and assigns its ID.
func (r *Roster) Spawn(s *Ship) ShipID {
	var slot uint32
	if n := len(r.free); n > 0 {
		slot = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		slot = uint32(len(r.slots))
		r.slots = append(r.slots, rosterSlot{})
	}
	entry := &r.slots[slot]
	entry.gen++
	entry.ship = s
	if s.Mode == nil {
		s.Mode = &Idle{}
	}
	s.ID = makeID(slot, entry.gen)
	r.count++
	return s.ID
}

// Get resolves an ID. Stale and unknown IDs return false.
func (r *Roster) Get(id ShipID) (*Ship, bool) {
	slot, gen := splitID(id)
	if int(slot) >= len(r.slots) {
		return nil, false
	}
	entry := r.slots[slot]
	if entry.ship == nil || entry.gen != gen {
		return nil, false
	}
	return entry.ship, true
}

// Remove discards a ship's state. Returns false if the ID was stale.
func (r *Roster) Remove(id ShipID) bool {
	slot, gen := splitID(id)
	if int(slot) >= len(r.slots) {
		return false
	}
	entry := &r.slots[slot]
	if entry.ship == nil || entry.gen != gen {
		return false
	}
	entry.ship = nil
	r.free = append(r.free, slot)
	r.count--
	return true
}

// Ships returns live ships in slot order. This order is the tick's
// fairness policy: earlier ships reserve cells and win ties first.
func (r *Roster) Ships() []*Ship {
	out := make([]*Ship, 0, r.count)
	for _, entry := range r.slots {
		if entry.ship != nil {
			out = append(out, entry.ship)
		}
	}
	return out
}

// Len returns the number of live ships.
func (r *Roster) Len() int {
	return r.count
}

// TargetPosition implements TargetResolver for ship targets.
func (r *Roster) TargetPosition(id ShipID) (world.HexCoord, bool) {
	s, ok := r.Get(id)
	if !ok {
		return world.HexCoord{}, false
	}
	return s.Position, true
}
