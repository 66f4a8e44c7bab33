package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmhodges/clock"

	"github.com/MrSnakeDoc/snoozzd/internal/browser"
	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/store"
)

// Host lifecycle triggers.
const (
	EventStartup = "startup"
	EventIdle    = "idle"
	EventOnline  = "online"
	EventCheck   = "check"
)

// Watcher streams storage changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan store.Change, error)
}

// AlarmSource delivers alarm and debounce fires.
type AlarmSource interface {
	Alarms() <-chan string
	Debounced() <-chan struct{}
	Expired()
}

// Clicker reacts to a notification click; wake reports that the click asked
// for a wake pass.
type Clicker interface {
	Click(ctx context.Context, id string) (wake bool, err error)
}

// Runner serialises every entry point of the wake engine on one goroutine:
// storage changes, alarm fires, debounce fires, browser events and a
// safety poll.
type Runner struct {
	orch     *Orchestrator
	launcher *Launcher
	clicks   Clicker
	records  Records
	watcher  Watcher
	alarms   AlarmSource
	events   <-chan browser.Event
	clk      clock.Clock
	logger   logger.Logger
	interval time.Duration

	manualTrigger chan string
	stopCh        chan struct{}
	stopOnce      sync.Once

	mu      sync.Mutex
	lastRun time.Time
	last    TickResult
}

// NewRunner creates the event loop. events carries lifecycle events and
// notification clicks coming from connected browsers and may be nil.
func NewRunner(
	orch *Orchestrator,
	launcher *Launcher,
	clicks Clicker,
	records Records,
	watcher Watcher,
	alarms AlarmSource,
	events <-chan browser.Event,
	clk clock.Clock,
	log logger.Logger,
	interval time.Duration,
) *Runner {
	return &Runner{
		orch:          orch,
		launcher:      launcher,
		clicks:        clicks,
		records:       records,
		watcher:       watcher,
		alarms:        alarms,
		events:        events,
		clk:           clk,
		logger:        log,
		interval:      interval,
		manualTrigger: make(chan string, 8),
		stopCh:        make(chan struct{}),
	}
}

// Start subscribes to storage changes, runs the boot pass and then serves
// events in the background. Startup items keep waiting for the browser's own
// startup event.
func (r *Runner) Start(ctx context.Context) error {
	changes, err := r.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch storage: %w", err)
	}

	res, err := r.launcher.Boot(ctx)
	if err != nil {
		return fmt.Errorf("initial evaluation failed: %w", err)
	}
	r.record(res)

	poll := r.clk.NewTimer(r.interval)
	go func() {
		defer poll.Stop()
		for {
			select {
			case change, ok := <-changes:
				if !ok {
					r.logger.Warn("storage change stream closed")
					changes = nil
					continue
				}
				if change.Key == domain.KeySnoozed || change.Key == domain.KeyOptions {
					r.run(ctx, "storage change", r.orch.Evaluate)
				}
			case <-r.alarms.Alarms():
				r.alarms.Expired()
				r.run(ctx, "alarm", r.orch.Evaluate)
			case <-r.alarms.Debounced():
				r.run(ctx, "wake pass", r.orch.Tick)
			case ev := <-r.manualTrigger:
				r.handle(ctx, browser.Event{Name: ev})
			case ev := <-r.events:
				r.handle(ctx, ev)
			case <-poll.C:
				r.poll(ctx)
				poll.Reset(r.interval)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the event loop
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Trigger queues a lifecycle event.
func (r *Runner) Trigger(event string) error {
	switch event {
	case EventStartup, EventIdle, EventOnline, EventCheck:
	default:
		return fmt.Errorf("unknown event %q", event)
	}

	select {
	case r.manualTrigger <- event:
		return nil
	default:
		return fmt.Errorf("event queue full, dropping %q", event)
	}
}

// LastRun returns the result of the latest pass.
func (r *Runner) LastRun() (time.Time, TickResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.last
}

func (r *Runner) handle(ctx context.Context, ev browser.Event) {
	switch ev.Name {
	case EventStartup:
		r.logger.Info("lifecycle event", logger.String("event", ev.Name))
		r.run(ctx, ev.Name, r.launcher.Startup)
	case EventIdle, EventOnline, EventCheck:
		r.logger.Info("lifecycle event", logger.String("event", ev.Name))
		r.run(ctx, ev.Name, r.orch.Evaluate)
	case browser.EventClick:
		r.click(ctx, ev.Notification)
	default:
		r.logger.Warn("ignoring unknown event", logger.String("event", ev.Name))
	}
}

func (r *Runner) click(ctx context.Context, id string) {
	if r.clicks == nil {
		return
	}
	r.logger.Debug("notification clicked", logger.String("id", id))
	wake, err := r.clicks.Click(ctx, id)
	if err != nil {
		r.logger.Warn("failed to handle notification click",
			logger.String("id", id),
			logger.Error(err))
	}
	if wake {
		r.run(ctx, "notification click", r.orch.Evaluate)
	}
}

func (r *Runner) poll(ctx context.Context) {
	opts, err := r.records.Options(ctx)
	if err != nil {
		r.logger.Error("failed to read options", logger.Error(err))
		return
	}
	if opts.Polling == "off" {
		return
	}
	r.run(ctx, "poll", r.orch.Evaluate)
}

func (r *Runner) run(ctx context.Context, reason string, pass func(context.Context) (TickResult, error)) {
	res, err := pass(ctx)
	if err != nil {
		r.logger.Error("evaluation failed",
			logger.String("trigger", reason),
			logger.Error(err))
		return
	}
	r.record(res)
}

func (r *Runner) record(res TickResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun = r.clk.Now()
	r.last = res
}
