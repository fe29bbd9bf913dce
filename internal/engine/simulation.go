// Simulation ties together the map, the fleet and the movement executor and
// runs them each tick.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tidewater/internal/fleet"
	"github.com/talgya/tidewater/internal/world"
)

// MaxEvents bounds the in-memory event ring.
const MaxEvents = 1000

// ErrUnknownShip is returned by orders naming a ship that does not exist.
var ErrUnknownShip = errors.New("engine: unknown ship")

// Event is a notable occurrence in the world.
type Event struct {
	Tick        uint64       `json:"tick" db:"tick"`
	Category    string       `json:"category" db:"category"` // "order", "arrived", "yielded", "rerouted", etc.
	Ship        fleet.ShipID `json:"ship" db:"ship_id"`
	Q           int          `json:"q" db:"q"`
	R           int          `json:"r" db:"r"`
	Description string       `json:"description" db:"description"`
}

// Journal receives batches of events for durable storage.
type Journal interface {
	SaveEvents(events []Event) error
}

// SimStats tracks aggregate fleet statistics.
type SimStats struct {
	Ships        int    `json:"ships"`
	Moving       int    `json:"moving"`
	Idle         int    `json:"idle"`
	Patrolling   int    `json:"patrolling"`
	Chasing      int    `json:"chasing"`
	Docked       int    `json:"docked"`
	CellsEntered uint64 `json:"cells_entered"`
	Conflicts    uint64 `json:"conflicts"`
	Reroutes     uint64 `json:"reroutes"`
	Dropped      uint64 `json:"dropped"`
	Explored     int    `json:"explored"`
}

// Simulation holds the complete world state and wires systems together.
type Simulation struct {
	WorldMap  *world.Map
	Roster    *fleet.Roster
	Executor  *fleet.Executor
	Harbors   []world.Harbor
	Commander *Commander // optional order driver
	Journal   Journal    // optional event sink

	// FlushEvery is how many ticks pass between journal writes.
	FlushEvery uint64

	mu       sync.RWMutex
	events   []Event // Recent events, oldest first, at most MaxEvents
	pending  []Event // Events not yet written to the journal
	lastTick uint64
	stats    SimStats
	explored map[world.HexCoord]struct{}

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewSimulation creates a Simulation over m with the given executor settings.
func NewSimulation(m *world.Map, cfg fleet.Config) *Simulation {
	roster := fleet.NewRoster()
	exec := fleet.NewExecutor(m, cfg)
	exec.Targets = roster

	sim := &Simulation{
		WorldMap:   m,
		Roster:     roster,
		Executor:   exec,
		FlushEvery: 20,
		explored:   make(map[world.HexCoord]struct{}),
		subs:       make(map[int]chan Event),
	}
	exec.Hooks.RevealVision = sim.reveal
	return sim
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick
}

// Spawn adds a ship to the roster.
func (s *Simulation) Spawn(ship *fleet.Ship) fleet.ShipID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.Roster.Spawn(ship)
	s.explored[ship.Position] = struct{}{}
	s.updateStats()
	return id
}

// Tick runs one movement update. It is the engine's OnTick callback.
func (s *Simulation) Tick(tick uint64, dt float64) {
	s.mu.Lock()
	s.lastTick = tick
	if s.Commander != nil {
		for _, ev := range s.Commander.Decide(tick, s.Roster) {
			s.record(ev)
		}
	}

	report := s.Executor.Update(s.Roster, dt)
	s.stats.CellsEntered += uint64(len(report.Entered))
	s.stats.Conflicts += uint64(len(report.Conflicts))
	for _, n := range report.Notices {
		switch n.Kind {
		case fleet.NoticeRerouted:
			s.stats.Reroutes++
		case fleet.NoticeWaypointDropped:
			s.stats.Dropped++
		}
		s.record(noticeEvent(tick, n))
	}
	s.updateStats()

	var batch []Event
	if s.Journal != nil && s.FlushEvery > 0 && tick%s.FlushEvery == 0 {
		batch = s.takePending()
	}
	s.mu.Unlock()

	s.writeJournal(batch)
}

// Flush writes any buffered events to the journal.
func (s *Simulation) Flush() {
	s.mu.Lock()
	batch := s.takePending()
	s.mu.Unlock()
	s.writeJournal(batch)
}

func (s *Simulation) takePending() []Event {
	batch := s.pending
	s.pending = nil
	return batch
}

func (s *Simulation) writeJournal(batch []Event) {
	if s.Journal == nil || len(batch) == 0 {
		return
	}
	if err := s.Journal.SaveEvents(batch); err != nil {
		slog.Error("journal write failed", "events", len(batch), "error", err)
	}
}

// Report logs a periodic fleet summary. It is the engine's OnReport callback.
func (s *Simulation) Report(tick uint64) {
	st := s.Stats()
	slog.Info("fleet report",
		"tick", tick,
		"time", SimTime(tick),
		"ships", st.Ships,
		"moving", st.Moving,
		"patrolling", st.Patrolling,
		"chasing", st.Chasing,
		"docked", st.Docked,
		"cells_entered", humanize.Comma(int64(st.CellsEntered)),
		"conflicts", humanize.Comma(int64(st.Conflicts)),
		"reroutes", st.Reroutes,
		"explored", fmt.Sprintf("%d/%d", st.Explored, s.WorldMap.WaterCount()),
	)
}

// reveal marks a cell as seen. Runs inside Tick with the lock held.
func (s *Simulation) reveal(_ fleet.ShipID, cell world.HexCoord) {
	s.explored[cell] = struct{}{}
}

// record appends to the ring, the journal buffer and every subscriber.
// Callers hold s.mu.
func (s *Simulation) record(ev Event) {
	s.events = append(s.events, ev)
	if len(s.events) > MaxEvents {
		s.events = s.events[len(s.events)-MaxEvents:]
	}
	if s.Journal != nil {
		s.pending = append(s.pending, ev)
	}
	s.publish(ev)
}

func noticeEvent(tick uint64, n fleet.Notice) Event {
	desc := fmt.Sprintf("ship %d %s at %s", n.Ship, n.Kind, n.Cell.Key())
	if n.Detail != "" {
		desc += " (" + n.Detail + ")"
	}
	return Event{
		Tick:        tick,
		Category:    n.Kind.String(),
		Ship:        n.Ship,
		Q:           n.Cell.Q,
		R:           n.Cell.R,
		Description: desc,
	}
}

// RecentEvents returns up to limit of the newest events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	return append([]Event(nil), s.events[start:]...)
}

// Stats returns a copy of the aggregate statistics.
func (s *Simulation) Stats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Simulation) updateStats() {
	st := &s.stats
	st.Ships, st.Moving, st.Idle, st.Patrolling, st.Chasing, st.Docked = 0, 0, 0, 0, 0, 0
	for _, sh := range s.Roster.Ships() {
		st.Ships++
		if sh.Docked {
			st.Docked++
		}
		switch sh.Kind() {
		case fleet.ModeIdle:
			st.Idle++
		case fleet.ModePathfinding, fleet.ModeMoving:
			st.Moving++
		case fleet.ModePatrolling:
			st.Patrolling++
		case fleet.ModeChasing:
			st.Chasing++
		}
	}
	st.Explored = len(s.explored)
}

// Subscribe registers a listener for new events. Slow listeners miss events
// rather than stall the tick. Call cancel to unsubscribe.
func (s *Simulation) Subscribe(buffer int) (events <-chan Event, cancel func()) {
	ch := make(chan Event, buffer)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Simulation) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
