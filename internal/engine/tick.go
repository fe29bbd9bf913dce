// Package engine provides the tick-based simulation loop.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// TickSchedule defines sim time relative to the tick counter.
const (
	TicksPerSimHour = 60   // 60 ticks = 1 sim-hour
	TicksPerSimDay  = 1440 // 24 hours × 60
)

// Engine drives the simulation forward.
type Engine struct {
	Tick           uint64        // Current tick counter (monotonic, never resets)
	Interval       time.Duration // Base tick interval
	Dt             float64       // Sim time advanced per tick
	TicksPerReport uint64        // OnReport cadence; 0 disables it

	// Callbacks populated during setup.
	OnTick   func(tick uint64, dt float64) // Every tick
	OnReport func(tick uint64)             // Every TicksPerReport ticks

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = real-time, 0 = paused
	running atomic.Bool
	stop    sync.Once
	done    chan struct{} // closed by Stop, never reopened
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval:       time.Second,
		Dt:             1,
		TicksPerReport: 120,
		speed:          1.0,
		done:           make(chan struct{}),
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero or less pauses the loop.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
	slog.Info("engine speed changed", "speed", speed)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the simulation loop. Blocks until Stop() is called, and
// returns at once if Stop already was.
func (e *Engine) Run() {
	done := e.done
	select {
	case <-done:
		slog.Info("simulation engine stopped before start", "tick", e.Tick)
		return
	default:
	}
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for {
		select {
		case <-done:
			e.running.Store(false)
			slog.Info("simulation engine stopped", "tick", e.Tick)
			return
		default:
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused, sleep briefly and check again.
			select {
			case <-done:
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		start := time.Now()

		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			select {
			case <-done:
			case <-time.After(target - elapsed):
			}
		}
	}
}

// Stop halts the simulation loop. It is safe to call more than once and
// before Run.
func (e *Engine) Stop() {
	e.stop.Do(func() {
		e.running.Store(false)
		close(e.done)
	})
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick, e.Dt)
	}

	if e.TicksPerReport > 0 && e.Tick%e.TicksPerReport == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
}

// SimTime returns a human-readable simulation time string from a tick number.
func SimTime(tick uint64) string {
	minutes := tick % 60
	totalHours := tick / TicksPerSimHour
	hours := totalHours % 24
	days := tick/TicksPerSimDay + 1

	return fmt.Sprintf("Day %d, %02d:%02d", days, hours, minutes)
}
