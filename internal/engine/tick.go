// Package engine provides the production tick, the simulation context, and
// the real-time loop that drives them.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Engine drives the simulation forward in wall-clock time.
type Engine struct {
	Interval  time.Duration // base step interval
	SaveEvery uint64        // steps between OnSave calls; 0 disables

	// Callbacks populated during setup.
	OnStep func(dt float64) // every step, dt in simulated seconds
	OnSave func()           // every SaveEvery steps and once on shutdown

	mu    sync.Mutex
	speed float64 // 1.0 = real-time, 0 = paused
	steps uint64
}

// NewEngine creates an engine stepping once per interval at real-time speed.
func NewEngine(interval time.Duration) *Engine {
	if interval <= 0 {
		interval = time.Second
	}
	return &Engine{Interval: interval, speed: 1}
}

// Speed returns the current multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the multiplier. Values at or below zero pause.
func (e *Engine) SetSpeed(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v < 0 {
		v = 0
	}
	e.speed = v
}

// Steps returns how many steps the engine has run.
func (e *Engine) Steps() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steps
}

// Run steps the simulation until ctx is cancelled, then saves once more.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started", "interval", e.Interval, "speed", e.Speed())

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if e.OnSave != nil {
				e.OnSave()
			}
			slog.Info("simulation engine stopped", "steps", e.Steps())
			return
		case <-ticker.C:
			e.step()
		}
	}
}

// step advances the simulation by one interval scaled by speed.
func (e *Engine) step() {
	speed := e.Speed()
	if speed <= 0 {
		return
	}

	e.mu.Lock()
	e.steps++
	n := e.steps
	e.mu.Unlock()

	if e.OnStep != nil {
		e.OnStep(e.Interval.Seconds() * speed)
	}
	if e.SaveEvery > 0 && n%e.SaveEvery == 0 && e.OnSave != nil {
		e.OnSave()
	}
}
