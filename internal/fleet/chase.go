package fleet

import (
	"github.com/talgya/tidewater/internal/nav"
	"github.com/talgya/tidewater/internal/world"
)

// DefaultRetargetDistance is how far a chased target must drift from the
// cell a chase path was planned against before the path is recomputed.
const DefaultRetargetDistance = 2

// TargetResolver looks up where an attack target currently is. The combat
// layer owns it; Roster implements it for ship targets.
type TargetResolver interface {
	TargetPosition(id ShipID) (world.HexCoord, bool)
}

// chaseGoal picks the passable cell within weaponRange of target that is
// nearest to from. Ties prefer cells closer to the target, then lower q, r.
func chaseGoal(m nav.Passability, from, target world.HexCoord, weaponRange int) (world.HexCoord, bool) {
	if weaponRange < 0 {
		weaponRange = 0
	}
	var best world.HexCoord
	found := false
	bestFrom, bestTarget := 0, 0
	for _, c := range world.Range(target, weaponRange) {
		if !m.IsPassable(c) {
			continue
		}
		df := world.Distance(from, c)
		dt := world.Distance(target, c)
		if !found || df < bestFrom || (df == bestFrom && dt < bestTarget) {
			best, bestFrom, bestTarget, found = c, df, dt, true
		}
	}
	return best, found
}

// planChase keeps a chasing ship's path aimed at weapon range of its target.
func (e *Executor) planChase(ts *tickState, s *Ship, md *Chasing) {
	var pos world.HexCoord
	ok := false
	if e.Targets != nil {
		pos, ok = e.Targets.TargetPosition(md.Target)
	}
	if !ok {
		e.endChase(ts, s, md, NoticeTargetLost)
		return
	}

	if world.Distance(s.Position, pos) <= s.WeaponRange {
		if s.Committed != nil && s.Progress > 0 {
			md.Path = nav.Path{*s.Committed}
			return
		}
		if !md.InRange {
			ts.notice(NoticeInRange, s, s.Position, "")
			md.InRange = true
		}
		md.Path = nil
		s.Progress = 0
		return
	}
	md.InRange = false

	if md.Path != nil && world.Distance(md.Anchor, pos) < e.Config.RetargetDistance {
		return
	}

	goal, ok := chaseGoal(e.Map, s.Position, pos, s.WeaponRange)
	var path nav.Path
	var err error
	if ok {
		path, err = e.route(ts, s, goal)
	}
	if !ok || err != nil {
		from := s.Position
		goal, ok = nav.FindNearestWaterWithin(e.Map, pos, &from, e.searchRadius())
		if !ok {
			e.endChase(ts, s, md, NoticeUnreachable)
			return
		}
		path, err = e.route(ts, s, goal)
		if err != nil {
			e.endChase(ts, s, md, NoticeUnreachable)
			return
		}
	}
	md.Anchor = pos
	md.Goal = goal
	md.Path = path
}

// endChase restores the order the ship had before the chase and plans it.
func (e *Executor) endChase(ts *tickState, s *Ship, md *Chasing, kind NoticeKind) {
	ts.notice(kind, s, s.Position, "")
	s.Mode = resumable(md.Resume)
	e.plan(ts, s)
}
