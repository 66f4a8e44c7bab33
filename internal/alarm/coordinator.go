package alarm

import (
	"sync"
	"time"

	"github.com/jmhodges/clock"

	"github.com/MrSnakeDoc/snoozzd/internal/logger"
)

// WakeAlarm is the name of the one host alarm the coordinator owns.
const WakeAlarm = "wakeUp"

// Coordinator maintains exactly one logical wake alarm and the short
// fire-now debounce that coalesces bursts of due items into one pass.
type Coordinator struct {
	host     Host
	clk      clock.Clock
	debounce time.Duration
	logger   logger.Logger

	mu        sync.Mutex
	armed     time.Time
	soon      *pending
	debounced chan struct{}
}

// NewCoordinator creates a coordinator over host.
func NewCoordinator(host Host, clk clock.Clock, debounce time.Duration, log logger.Logger) *Coordinator {
	return &Coordinator{
		host:      host,
		clk:       clk,
		debounce:  debounce,
		logger:    log,
		debounced: make(chan struct{}, 1),
	}
}

// Arm replaces the outstanding alarm with one firing at when, earlier or
// later. Arming the already armed instant is a no-op and reports false.
func (c *Coordinator) Arm(when time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed.IsZero() && c.armed.Equal(when) {
		return false
	}
	c.host.Schedule(WakeAlarm, when)
	c.armed = when

	c.logger.Debug("host alarm scheduled",
		logger.Time("at", when),
		logger.Duration("in", when.Sub(c.clk.Now())))
	return true
}

// Clear removes the outstanding alarm.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.armed.IsZero() {
		return
	}
	c.host.Cancel(WakeAlarm)
	c.armed = time.Time{}
	c.logger.Debug("host alarm cleared")
}

// Expired forgets the armed instant once the host alarm went off, so the
// next Arm schedules again even for the same instant.
func (c *Coordinator) Expired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = time.Time{}
}

// Armed returns the instant of the outstanding alarm.
func (c *Coordinator) Armed() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed, !c.armed.IsZero()
}

// FireSoon signals Debounced after the debounce window. A call within the
// window restarts it, so a burst yields a single signal.
func (c *Coordinator) FireSoon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopSoonLocked()
	p := &pending{
		timer: c.clk.NewTimer(c.debounce),
		stop:  make(chan struct{}),
	}
	c.soon = p

	go func() {
		select {
		case <-p.timer.C:
		case <-p.stop:
			return
		}

		c.mu.Lock()
		if c.soon == p {
			c.soon = nil
		}
		c.mu.Unlock()

		select {
		case c.debounced <- struct{}{}:
		default:
		}
	}()
}

// Pending reports whether a debounced fire is waiting.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.soon != nil
}

func (c *Coordinator) stopSoonLocked() {
	if c.soon == nil {
		return
	}
	c.soon.timer.Stop()
	close(c.soon.stop)
	c.soon = nil
}

// Debounced signals when a FireSoon window has elapsed.
func (c *Coordinator) Debounced() <-chan struct{} { return c.debounced }

// Alarms delivers host alarm fires.
func (c *Coordinator) Alarms() <-chan string { return c.host.Fired() }

// Stop cancels the alarm and any pending debounce.
func (c *Coordinator) Stop() {
	c.Clear()

	c.mu.Lock()
	c.stopSoonLocked()
	c.mu.Unlock()
}
