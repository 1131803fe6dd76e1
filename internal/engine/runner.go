package engine

import (
	"sync"

	"github.com/talgya/planeforge/internal/entropy"
)

// Runner serialises access to a Simulation shared by the step loop, the API
// and the save path.
type Runner struct {
	mu  sync.RWMutex
	sim *Simulation
	src entropy.Source

	// OnReport receives every step's report after the lock is released.
	OnReport func(StepReport)
}

// NewRunner wraps sim. src supplies the production draws.
func NewRunner(sim *Simulation, src entropy.Source) *Runner {
	return &Runner{sim: sim, src: src}
}

// Step advances the simulation by dt seconds.
func (r *Runner) Step(dt float64) StepReport {
	r.mu.Lock()
	rep := r.sim.Step(dt, r.src)
	r.mu.Unlock()

	if r.OnReport != nil {
		r.OnReport(rep)
	}
	return rep
}

// View runs fn with shared access. fn must not modify the simulation.
func (r *Runner) View(fn func(*Simulation)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.sim)
}

// Update runs fn with exclusive access.
func (r *Runner) Update(fn func(*Simulation) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.sim)
}

// Enqueue queues a command for the next step.
func (r *Runner) Enqueue(c Command) error {
	return r.sim.Enqueue(c)
}
