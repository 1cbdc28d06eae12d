// Engine — drives the simulation loop in wall-clock time. The host UI can
// also single-step; the engine never overlaps two Step calls.
package sim

import (
	"log/slog"
	"sync"
	"time"
)

// Engine runs a Simulation at a configurable speed.
type Engine struct {
	mu       sync.Mutex
	sim      *Simulation
	rebuild  func() (*Simulation, error) // Reset support
	speed    float64                     // multiplier: 1.0 = real-time, 0 = paused
	interval time.Duration               // base wall-clock interval per tick
	running  bool
	done     chan struct{}
}

// NewEngine creates an engine over the given simulation. rebuild, when
// non-nil, reconstructs a fresh simulation on Reset.
func NewEngine(s *Simulation, rebuild func() (*Simulation, error)) *Engine {
	return &Engine{
		sim:      s,
		rebuild:  rebuild,
		speed:    1.0,
		interval: time.Second,
	}
}

// Sim returns the current simulation instance.
func (e *Engine) Sim() *Simulation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero or negative pauses the loop.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = speed
}

// Pause is SetSpeed(0): the loop idles without stopping.
func (e *Engine) Pause() { e.SetSpeed(0) }

// Step advances one tick regardless of run state.
func (e *Engine) Step() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Step()
}

// Start begins the loop in a goroutine. No-op if already running.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	slog.Info("simulation engine started", "tick", e.Sim().Tick(), "speed", e.Speed())
	go e.run(done)
}

// Stop halts the loop. Any in-flight tick completes; nothing needs
// unwinding because each tick is atomic and self-contained.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.done)
	e.mu.Unlock()
	slog.Info("simulation engine stopped", "tick", e.Sim().Tick())
}

// Reset stops the loop and rebuilds a fresh simulation from configuration.
func (e *Engine) Reset() error {
	e.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rebuild == nil {
		return nil
	}
	fresh, err := e.rebuild()
	if err != nil {
		return err
	}
	e.sim = fresh
	return nil
}

func (e *Engine) run(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		speed := e.Speed()
		if speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.Step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
}
