package nav

import (
	"errors"
	"fmt"

	"github.com/talgya/tidewater/internal/world"
)

// ErrTooFewWaypoints is returned when a patrol has fewer than two stops.
var ErrTooFewWaypoints = errors.New("nav: patrol needs at least two waypoints")

// ErrEmptyCircuit is returned when every waypoint is the same cell.
var ErrEmptyCircuit = errors.New("nav: patrol circuit has no legs")

// ComputePatrolCircuit plans a closed loop through waypoints in order and
// back to the first one. Outbound legs use plain search; the closing leg is
// penalized on every cell the outbound legs used so it prefers a different
// lane home, and falls back to plain search if that fails. The result ends
// on waypoints[0].
func ComputePatrolCircuit(m Passability, waypoints []world.HexCoord) (Path, error) {
	return ComputePatrolCircuitWithPenalty(m, waypoints, DefaultPatrolPenalty)
}

// ComputePatrolCircuitWithPenalty is ComputePatrolCircuit with an explicit
// closing-leg penalty.
func ComputePatrolCircuitWithPenalty(m Passability, waypoints []world.HexCoord, penalty int) (Path, error) {
	if len(waypoints) < 2 {
		return nil, ErrTooFewWaypoints
	}

	used := NewCellSet(waypoints[0])
	var circuit Path
	for i := 0; i+1 < len(waypoints); i++ {
		leg, err := FindPath(m, waypoints[i], waypoints[i+1], nil)
		if err != nil {
			return nil, fmt.Errorf("patrol leg %d (%s -> %s): %w", i, waypoints[i], waypoints[i+1], err)
		}
		for _, c := range leg {
			used.Add(c)
		}
		circuit = append(circuit, leg...)
	}

	last := waypoints[len(waypoints)-1]
	first := waypoints[0]
	closing, err := FindPathWithPenalty(m, last, first, used, nil, penalty)
	if err != nil {
		closing, err = FindPath(m, last, first, nil)
		if err != nil {
			return nil, fmt.Errorf("patrol closing leg (%s -> %s): %w", last, first, err)
		}
	}
	circuit = append(circuit, closing...)

	// Legs exclude their start cell, so consecutive legs already meet at
	// exactly one seam cell. Collapse repeats left by duplicate waypoints.
	out := make(Path, 0, len(circuit))
	for _, c := range circuit {
		if len(out) > 0 && out[len(out)-1] == c {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrEmptyCircuit
	}
	return out, nil
}
