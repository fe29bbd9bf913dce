// Package nav implements hex-grid navigation for ships: an A* pathfinder
// with plain, penalty-augmented and avoidance-augmented cost modes, bounded
// spatial queries, per-tick cell reservations and patrol circuit planning.
//
// Every function here is pure with respect to the map: nothing is cached
// between calls and nothing retries internally.
package nav

import (
	"errors"

	"github.com/talgya/tidewater/internal/world"
)

// ErrUnreachable is returned when the goal is impassable or the search
// exhausts the frontier without reaching it.
var ErrUnreachable = errors.New("nav: goal unreachable")

// Passability is the narrow view of the map the pathfinder needs.
// *world.Map satisfies it.
type Passability interface {
	IsPassable(c world.HexCoord) bool
}

// PassabilityFunc adapts a plain function to Passability.
type PassabilityFunc func(c world.HexCoord) bool

// IsPassable implements Passability.
func (f PassabilityFunc) IsPassable(c world.HexCoord) bool { return f(c) }

// Path is the ordered list of cells from the step after the start up to and
// including the goal. An empty path means the start already is the goal.
type Path []world.HexCoord

// Last returns the final cell of the path.
func (p Path) Last() (world.HexCoord, bool) {
	if len(p) == 0 {
		return world.HexCoord{}, false
	}
	return p[len(p)-1], true
}

// Clone returns an independent copy of the path. A nil path stays nil.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// CellSet is a set of hex coordinates.
type CellSet map[world.HexCoord]struct{}

// NewCellSet builds a set from the given cells.
func NewCellSet(cells ...world.HexCoord) CellSet {
	s := make(CellSet, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s CellSet) Has(c world.HexCoord) bool {
	_, ok := s[c]
	return ok
}

// Add inserts a cell.
func (s CellSet) Add(c world.HexCoord) {
	s[c] = struct{}{}
}

// DefaultPatrolPenalty is the surcharge the patrol planner puts on cells the
// outbound legs already use.
const DefaultPatrolPenalty = 3

// surchargeFunc returns the extra cost of entering c, or excluded=true if the
// cell may not be entered at all (the goal is always exempt).
type surchargeFunc func(c world.HexCoord) (extra int, excluded bool)

// FindPath runs a plain A* search. Cells in blocked are never entered except
// when they are the goal itself.
func FindPath(m Passability, start, goal world.HexCoord, blocked CellSet) (Path, error) {
	path, _, err := search(m, start, goal, blocked, nil)
	return path, err
}

// FindPathWithPenalty adds penalty to the cost of every cell in penalized.
// Used to keep a patrol's closing leg off its outbound legs.
func FindPathWithPenalty(m Passability, start, goal world.HexCoord, penalized, blocked CellSet, penalty int) (Path, error) {
	if penalty < 0 {
		penalty = 0
	}
	surcharge := func(c world.HexCoord) (int, bool) {
		if penalized.Has(c) {
			return penalty, false
		}
		return 0, false
	}
	path, _, err := search(m, start, goal, blocked, surcharge)
	return path, err
}

// FindPathWithAvoidance prices cells from the live reservation table:
// cells next to another agent's claim and cells softly claimed by another
// agent cost extra, cells permanently claimed by another agent are excluded
// unless they are the goal.
func FindPathWithAvoidance(m Passability, start, goal world.HexCoord, res *Reservations, agent AgentID) (Path, error) {
	var surcharge surchargeFunc
	if res != nil {
		surcharge = func(c world.HexCoord) (int, bool) {
			return res.Surcharge(c, agent)
		}
	}
	path, _, err := search(m, start, goal, nil, surcharge)
	return path, err
}

// search is the A* core shared by every mode. It returns the path and the
// number of nodes expanded.
func search(m Passability, start, goal world.HexCoord, blocked CellSet, surcharge surchargeFunc) (Path, int, error) {
	if !m.IsPassable(goal) {
		return nil, 0, ErrUnreachable
	}
	if start == goal {
		return Path{}, 0, nil
	}

	open := &PriorityQueue{}
	open.Insert(&searchNode{coord: start, g: 0, f: world.Distance(start, goal)})
	gScore := map[world.HexCoord]int{start: 0}
	closed := make(map[world.HexCoord]struct{})
	expanded := 0

	for !open.IsEmpty() {
		current := open.ExtractMin()
		if _, seen := closed[current.coord]; seen {
			continue
		}
		closed[current.coord] = struct{}{}
		if current.coord == goal {
			return reconstructPath(current), expanded, nil
		}
		expanded++

		for _, nc := range current.coord.Neighbors() {
			if _, seen := closed[nc]; seen {
				continue
			}
			if !m.IsPassable(nc) {
				continue
			}
			isGoal := nc == goal
			if !isGoal && blocked.Has(nc) {
				continue
			}
			step := 1
			if surcharge != nil {
				extra, excluded := surcharge(nc)
				if excluded && !isGoal {
					continue
				}
				if extra > 0 {
					step += extra
				}
			}
			tentative := current.g + step
			if prev, ok := gScore[nc]; ok && tentative >= prev {
				continue
			}
			gScore[nc] = tentative
			open.Insert(&searchNode{
				coord:  nc,
				g:      tentative,
				f:      tentative + world.Distance(nc, goal),
				parent: current,
			})
		}
	}
	return nil, expanded, ErrUnreachable
}

// reconstructPath walks parents back to the start and drops the start cell.
func reconstructPath(end *searchNode) Path {
	var path Path
	for node := end; node.parent != nil; node = node.parent {
		path = append(path, node.coord)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}
