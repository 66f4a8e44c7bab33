// Package alarm keeps the single outstanding wake alarm on top of a coarse host alarm primitive.
package alarm

import (
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

// Host is a named single-shot alarm primitive. Scheduling a name replaces
// any pending alarm of that name.
type Host interface {
	Schedule(name string, when time.Time)
	Cancel(name string)
	// Fired delivers the name of each alarm that went off.
	Fired() <-chan string
}

type pending struct {
	timer *clock.Timer
	stop  chan struct{}
}

// TimerHost is a Host backed by clock timers. Like a browser alarm API it
// never fires sooner than MinDelay after scheduling.
type TimerHost struct {
	clk      clock.Clock
	minDelay time.Duration

	mu      sync.Mutex
	pending map[string]*pending
	fired   chan string
	done    chan struct{}
	closed  bool
}

// NewTimerHost creates a host alarm primitive.
func NewTimerHost(clk clock.Clock, minDelay time.Duration) *TimerHost {
	return &TimerHost{
		clk:      clk,
		minDelay: minDelay,
		pending:  make(map[string]*pending),
		fired:    make(chan string, 1),
		done:     make(chan struct{}),
	}
}

// Schedule arms name to fire at when, or after MinDelay if when is sooner.
func (h *TimerHost) Schedule(name string, when time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.cancelLocked(name)

	delay := when.Sub(h.clk.Now())
	if delay < h.minDelay {
		delay = h.minDelay
	}

	p := &pending{
		timer: h.clk.NewTimer(delay),
		stop:  make(chan struct{}),
	}
	h.pending[name] = p

	go h.wait(name, p)
}

func (h *TimerHost) wait(name string, p *pending) {
	select {
	case <-p.timer.C:
	case <-p.stop:
		return
	case <-h.done:
		return
	}

	h.mu.Lock()
	if h.pending[name] == p {
		delete(h.pending, name)
	}
	h.mu.Unlock()

	select {
	case h.fired <- name:
	case <-p.stop:
	case <-h.done:
	}
}

// Cancel removes the pending alarm of that name, if any.
func (h *TimerHost) Cancel(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked(name)
}

func (h *TimerHost) cancelLocked(name string) {
	p, ok := h.pending[name]
	if !ok {
		return
	}
	p.timer.Stop()
	close(p.stop)
	delete(h.pending, name)
}

// Pending reports whether an alarm of that name is scheduled.
func (h *TimerHost) Pending(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.pending[name]
	return ok
}

func (h *TimerHost) Fired() <-chan string { return h.fired }

// Close cancels every alarm. Fired is never closed.
func (h *TimerHost) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for name := range h.pending {
		h.cancelLocked(name)
	}
	close(h.done)
}
