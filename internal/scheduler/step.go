package scheduler

import (
	"sync"
	"time"
)

// StepPacer hands control of time to the caller: nothing fires until Fire
// is called. Simulations and tests use it to drive auto-inflation
// deterministically.
type StepPacer struct {
	mu       sync.Mutex
	tick     func()
	interval time.Duration
	running  bool
	Starts   int
	Stops    int
}

func NewStepPacer() *StepPacer { return &StepPacer{} }

func (p *StepPacer) Start(interval time.Duration, tick func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tick = tick
	p.interval = interval
	p.running = true
	p.Starts++
	return nil
}

func (p *StepPacer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.running = false
		p.Stops++
	}
}

// Running reports whether a tick is pending.
func (p *StepPacer) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Interval is the interval passed to the most recent Start.
func (p *StepPacer) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Fire runs the pending tick once. It returns false when nothing is pending.
func (p *StepPacer) Fire() bool {
	p.mu.Lock()
	tick, ok := p.tick, p.running
	p.mu.Unlock()
	if !ok || tick == nil {
		return false
	}
	tick()
	return true
}

// FireStale runs the last scheduled tick even after Stop, the way a timer
// callback that raced a cancellation would.
func (p *StepPacer) FireStale() {
	p.mu.Lock()
	tick := p.tick
	p.mu.Unlock()
	if tick != nil {
		tick()
	}
}
