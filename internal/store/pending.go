package store

import (
	"sync"
	"time"
)

// Pending is a single coalescing save slot. Arm (re)starts the delay; only
// the last arming fires. Flush runs an armed save immediately instead of
// dropping it.
type Pending struct {
	mu    sync.Mutex
	fn    func()
	timer *time.Timer
	gen   uint64
	armed bool
}

// NewPending returns an unarmed handle that runs fn when it fires.
func NewPending(fn func()) *Pending {
	return &Pending{fn: fn}
}

// Arm schedules fn after delay, replacing any earlier pending run.
func (p *Pending) Arm(delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	p.gen++
	gen := p.gen
	p.armed = true
	p.timer = time.AfterFunc(delay, func() { p.fire(gen) })
}

func (p *Pending) fire(gen uint64) {
	p.mu.Lock()
	if !p.armed || p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.armed = false
	p.timer = nil
	p.mu.Unlock()

	p.fn()
}

// Flush runs the pending save now, if one is armed. Returns whether it ran.
func (p *Pending) Flush() bool {
	if !p.disarm() {
		return false
	}
	p.fn()
	return true
}

// Cancel discards the pending save without running it. Returns whether one
// was armed.
func (p *Pending) Cancel() bool {
	return p.disarm()
}

// Armed reports whether a save is waiting to fire.
func (p *Pending) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armed
}

func (p *Pending) disarm() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.armed {
		return false
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.armed = false
	p.gen++
	return true
}
