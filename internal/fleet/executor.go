package fleet

import (
	"log/slog"

	"github.com/talgya/tidewater/internal/nav"
	"github.com/talgya/tidewater/internal/world"
)

// Config tunes the executor.
type Config struct {
	LookAhead        int                `yaml:"look_ahead"`
	Avoidance        nav.AvoidanceCosts `yaml:"avoidance"`
	SearchRadius     int                `yaml:"search_radius"`
	RetargetDistance int                `yaml:"retarget_distance"`
	PatrolPenalty    int                `yaml:"patrol_penalty"`
}

// DefaultConfig returns the stock executor settings.
func DefaultConfig() Config {
	return Config{
		LookAhead:        DefaultLookAhead,
		Avoidance:        nav.DefaultAvoidanceCosts(),
		SearchRadius:     nav.DefaultSearchRadius,
		RetargetDistance: DefaultRetargetDistance,
		PatrolPenalty:    nav.DefaultPatrolPenalty,
	}
}

// Hooks are fired once per cell a ship enters, in traversal order.
// Any hook may be nil.
type Hooks struct {
	RevealVision  func(ship ShipID, cell world.HexCoord)
	CollectPickup func(ship ShipID, cell world.HexCoord)
	OnCellEntered func(ev CellEntered)
}

// CellEntered reports one cell crossed by one ship. Seq orders events
// within a tick.
type CellEntered struct {
	Seq  int            `json:"seq"`
	Ship ShipID         `json:"ship"`
	Cell world.HexCoord `json:"cell"`
}

// NoticeKind classifies fallbacks and milestones reported by a tick.
type NoticeKind uint8

const (
	NoticeArrived NoticeKind = iota
	NoticeYielded
	NoticeRerouted
	NoticeWaypointDropped
	NoticeUnreachable
	NoticeTargetLost
	NoticeInRange
	NoticeLapCompleted
)

// String returns the notice name used in logs and the journal.
func (k NoticeKind) String() string {
	switch k {
	case NoticeArrived:
		return "arrived"
	case NoticeYielded:
		return "yielded"
	case NoticeRerouted:
		return "rerouted"
	case NoticeWaypointDropped:
		return "waypoint_dropped"
	case NoticeUnreachable:
		return "unreachable"
	case NoticeTargetLost:
		return "target_lost"
	case NoticeInRange:
		return "in_range"
	case NoticeLapCompleted:
		return "lap_completed"
	default:
		return "unknown"
	}
}

// Notice is a non-motion outcome of a tick.
type Notice struct {
	Kind   NoticeKind     `json:"kind"`
	Ship   ShipID         `json:"ship"`
	Cell   world.HexCoord `json:"cell"`
	Detail string         `json:"detail,omitempty"`
}

// TickReport is everything one Update produced.
type TickReport struct {
	Entered   []CellEntered `json:"entered"`
	Conflicts []Resolution  `json:"conflicts"`
	Notices   []Notice      `json:"notices"`
}

// Executor advances every ship once per tick.
type Executor struct {
	Map     nav.Passability
	Targets TargetResolver
	Hooks   Hooks
	Config  Config
}

// NewExecutor creates an executor over m with cfg.
func NewExecutor(m nav.Passability, cfg Config) *Executor {
	return &Executor{Map: m, Config: cfg}
}

// UpdateMovement runs one tick with default settings, resolving chase
// targets against the roster itself.
func UpdateMovement(m nav.Passability, r *Roster, dt float64) TickReport {
	e := NewExecutor(m, DefaultConfig())
	e.Targets = r
	return e.Update(r, dt)
}

// tickState holds structures that live for exactly one Update call.
type tickState struct {
	res       *nav.Reservations
	permanent nav.CellSet
	occupancy map[world.HexCoord][]*Ship
	yielded   map[ShipID]bool
	report    *TickReport
}

func (ts *tickState) notice(kind NoticeKind, s *Ship, cell world.HexCoord, detail string) {
	ts.report.Notices = append(ts.report.Notices, Notice{Kind: kind, Ship: s.ID, Cell: cell, Detail: detail})
}

// stationaryAt reports whether a ship other than self is holding c now.
func (ts *tickState) stationaryAt(c world.HexCoord, self *Ship) bool {
	for _, o := range ts.occupancy[c] {
		if o != self && o.IsStationary() {
			return true
		}
	}
	return false
}

// stationaryCells returns every cell currently held by a stationary ship
// other than self.
func (ts *tickState) stationaryCells(self *Ship) nav.CellSet {
	out := make(nav.CellSet)
	for c, ships := range ts.occupancy {
		for _, o := range ships {
			if o != self && o.IsStationary() {
				out.Add(c)
				break
			}
		}
	}
	return out
}

func (ts *tickState) move(s *Ship, from, to world.HexCoord) {
	list := ts.occupancy[from]
	for i, o := range list {
		if o == s {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(ts.occupancy, from)
	} else {
		ts.occupancy[from] = list
	}
	ts.occupancy[to] = append(ts.occupancy[to], s)
}

func (e *Executor) searchRadius() int {
	if e.Config.SearchRadius <= 0 {
		return nav.DefaultSearchRadius
	}
	return e.Config.SearchRadius
}

// Update runs one tick: snapshot reservations, plan missing paths, resolve
// next-step conflicts, then commit motion. dt <= 0 does nothing.
func (e *Executor) Update(r *Roster, dt float64) TickReport {
	var report TickReport
	if dt <= 0 {
		return report
	}
	ships := r.Ships()
	res := BuildReservations(ships, e.Config.LookAhead, e.Config.Avoidance)
	ts := &tickState{
		res:       res,
		permanent: res.PermanentCells(0),
		occupancy: make(map[world.HexCoord][]*Ship, len(ships)),
		yielded:   make(map[ShipID]bool),
		report:    &report,
	}
	for _, s := range ships {
		ts.occupancy[s.Position] = append(ts.occupancy[s.Position], s)
	}

	for _, s := range ships {
		e.plan(ts, s)
	}

	report.Conflicts = ResolveConflicts(DetectConflicts(ships), r.Get)
	for _, c := range report.Conflicts {
		for _, id := range c.Yielded {
			s, ok := r.Get(id)
			if !ok {
				continue
			}
			s.invalidatePath()
			s.avoid = true
			ts.yielded[id] = true
			ts.notice(NoticeYielded, s, c.Cell, "")
		}
	}

	for _, s := range ships {
		if ts.yielded[s.ID] {
			continue
		}
		e.advance(ts, s, dt)
	}
	return report
}

// plan computes a path for any ship that needs one.
func (e *Executor) plan(ts *tickState, s *Ship) {
	if s.Docked {
		return
	}
	switch md := s.Mode.(type) {
	case *Idle:
		return
	case *Chasing:
		e.planChase(ts, s, md)
		return
	case *Patrolling:
		if md.Path == nil && len(md.Queue) == 0 {
			md.Queue = restoreCircuit(md.Circuit, s.Position)
			ts.notice(NoticeLapCompleted, s, s.Position, "")
		}
	}
	if s.ActivePath() != nil {
		return
	}

	dest, ok := s.Destination()
	if !ok {
		s.Mode = &Idle{}
		return
	}
	path, err := e.route(ts, s, dest)
	if err == nil {
		s.setPath(path)
		return
	}

	// Unreachable: try the nearest free water around the waypoint once,
	// otherwise give the waypoint up.
	alt, found := nav.FindNearestAvailableWithin(e.Map, dest, ts.stationaryCells(s), e.searchRadius())
	if found && alt != dest {
		if path, err := e.route(ts, s, alt); err == nil {
			s.replaceDestination(alt)
			s.setPath(path)
			ts.notice(NoticeRerouted, s, alt, dest.Key())
			slog.Debug("ship rerouted", "ship", s.ID, "from", dest.Key(), "to", alt.Key())
			return
		}
	}
	s.dropDestination()
	ts.notice(NoticeWaypointDropped, s, dest, "unreachable")
	slog.Debug("waypoint dropped", "ship", s.ID, "cell", dest.Key())
}

// route plans from the ship's committed next cell if it is mid-step,
// otherwise from its position. A mid-step ship that cannot route beyond the
// committed cell still gets that cell, and replans on arrival.
func (e *Executor) route(ts *tickState, s *Ship, dest world.HexCoord) (nav.Path, error) {
	origin := s.Position
	var prefix nav.Path
	if s.Committed != nil && s.Progress > 0 {
		origin = *s.Committed
		prefix = nav.Path{origin}
	}

	var path nav.Path
	var err error
	if s.avoid {
		path, err = nav.FindPathWithAvoidance(e.Map, origin, dest, ts.res, s.ID)
	} else {
		path, err = nav.FindPath(e.Map, origin, dest, ts.permanent)
	}
	if err != nil {
		if prefix != nil {
			return prefix, nil
		}
		return nil, err
	}
	s.avoid = false
	if prefix != nil {
		return append(prefix, path...), nil
	}
	return path, nil
}

// advance commits this tick's motion for one ship. Progress left over after
// reaching a waypoint carries into the next leg within the same tick.
func (e *Executor) advance(ts *tickState, s *Ship, dt float64) {
	if s.Docked {
		return
	}
	s.Progress += s.Speed * dt
	for {
		path := s.ActivePath()
		if len(path) == 0 {
			if path != nil && e.arrive(ts, s) {
				e.plan(ts, s)
				if len(s.ActivePath()) > 0 {
					continue
				}
			}
			s.Progress = 0
			s.Committed = nil
			return
		}

		next := path[0]
		if ts.stationaryAt(next, s) {
			e.resolveBlocked(ts, s, next)
			s.Progress = 0
			s.Committed = nil
			return
		}

		if s.Progress < 1 {
			if s.Progress > 0 {
				c := next
				s.Committed = &c
			} else {
				s.Committed = nil
			}
			return
		}

		s.Progress--
		s.Committed = nil
		from := s.Position
		s.Position = next
		s.setPath(path[1:])
		ts.move(s, from, next)
		e.enter(ts, s, next)
	}
}

// enter fires the per-cell hooks.
func (e *Executor) enter(ts *tickState, s *Ship, cell world.HexCoord) {
	ev := CellEntered{Seq: len(ts.report.Entered), Ship: s.ID, Cell: cell}
	ts.report.Entered = append(ts.report.Entered, ev)
	if e.Hooks.RevealVision != nil {
		e.Hooks.RevealVision(s.ID, cell)
	}
	if e.Hooks.CollectPickup != nil {
		e.Hooks.CollectPickup(s.ID, cell)
	}
	if e.Hooks.OnCellEntered != nil {
		e.Hooks.OnCellEntered(ev)
	}
}

// arrive handles an exhausted path and reports whether the ship has
// another leg to plan right away. A ship that is not actually on its
// waypoint (a partial path) replans too.
func (e *Executor) arrive(ts *tickState, s *Ship) bool {
	switch md := s.Mode.(type) {
	case *Moving:
		if len(md.Queue) == 0 || s.Position != md.Queue[0] {
			s.invalidatePath()
			return true
		}
		ts.notice(NoticeArrived, s, s.Position, "")
		s.Mode = afterWaypoint(md.Queue)
		return s.Kind() != ModeIdle
	case *Patrolling:
		md.Path = nil
		if len(md.Queue) > 0 && s.Position == md.Queue[0] {
			md.Queue = md.Queue[1:]
		}
		return true
	case *Chasing:
		md.Path = nil
	}
	return false
}

// resolveBlocked handles a next cell that a stationary ship holds at
// execution time: reroute to the nearest free cell around the waypoint, or
// drop the waypoint if there is none.
func (e *Executor) resolveBlocked(ts *tickState, s *Ship, next world.HexCoord) {
	dest, ok := s.Destination()
	if !ok {
		s.invalidatePath()
		return
	}
	if _, chasing := s.Mode.(*Chasing); chasing {
		s.invalidatePath()
		s.avoid = true
		return
	}
	alt, found := nav.FindNearestAvailableWithin(e.Map, dest, ts.stationaryCells(s), e.searchRadius())
	if !found {
		s.dropDestination()
		ts.notice(NoticeWaypointDropped, s, dest, "blocked at "+next.Key())
		slog.Debug("waypoint dropped", "ship", s.ID, "cell", dest.Key(), "blocked", next.Key())
		return
	}
	if alt != dest {
		s.replaceDestination(alt)
		ts.notice(NoticeRerouted, s, alt, dest.Key())
		slog.Debug("ship rerouted", "ship", s.ID, "from", dest.Key(), "to", alt.Key())
	} else {
		s.invalidatePath()
	}
	s.avoid = true
}
