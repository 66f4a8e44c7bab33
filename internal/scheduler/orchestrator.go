// Package scheduler decides which snoozed items are due, wakes them, reschedules
// repeaters and keeps the single wake alarm pointed at the next one.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/rules"
)

// Records is the snoozed-item collection the orchestrator works on.
type Records interface {
	List(ctx context.Context, ids ...string) ([]*domain.Item, error)
	Mutate(ctx context.Context, fn func(items []*domain.Item) ([]*domain.Item, error)) error
	Options(ctx context.Context) (domain.Options, error)
}

// Alarms is the single logical wake alarm.
type Alarms interface {
	Arm(when time.Time) bool
	Clear()
	FireSoon()
}

// Delivery reopens one woken item.
type Delivery interface {
	Deliver(ctx context.Context, item *domain.Item, now time.Time, automatic bool) error
}

// Settings tune the orchestrator.
type Settings struct {
	// Horizon caps how far ahead the alarm is armed.
	Horizon time.Duration
	// DueTolerance counts items waking within it as due now.
	DueTolerance time.Duration
	// Location is used for all calendar math.
	Location *time.Location
}

// TickResult reports what one evaluation did.
type TickResult struct {
	// Woken lists every item that was due, delivered or not.
	Woken []string `json:"woken,omitempty"`
	// Rescheduled lists the repeaters among Woken.
	Rescheduled []string `json:"rescheduled,omitempty"`
	// Failed lists the items whose delivery failed.
	Failed []string `json:"failed,omitempty"`
	// Paused lists repeaters whose rule could not be evaluated.
	Paused  []string `json:"paused,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
	// NextAlarm is zero when the alarm was cleared.
	NextAlarm time.Time `json:"nextAlarm"`
	// FiringSoon is set when a debounced wake pass was requested.
	FiringSoon bool `json:"firingSoon,omitempty"`
	// Err combines the delivery errors.
	Err error `json:"-"`
}

// errUnchanged aborts a Mutate that has nothing to write.
var errUnchanged = errors.New("unchanged")

// Orchestrator is the wake engine.
type Orchestrator struct {
	records  Records
	alarms   Alarms
	delivery Delivery
	history  *HistoryCleaner
	clk      clock.Clock
	settings Settings
	logger   logger.Logger
}

// NewOrchestrator creates the wake engine.
func NewOrchestrator(
	records Records,
	alarms Alarms,
	delivery Delivery,
	clk clock.Clock,
	settings Settings,
	log logger.Logger,
) *Orchestrator {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.Horizon <= 0 {
		settings.Horizon = time.Hour
	}

	return &Orchestrator{
		records:  records,
		alarms:   alarms,
		delivery: delivery,
		history:  NewHistoryCleaner(log),
		clk:      clk,
		settings: settings,
		logger:   log,
	}
}

func (o *Orchestrator) now() time.Time { return o.clk.Now().In(o.settings.Location) }

// Tick runs one full wake pass: history cleanup, waking every due item,
// persisting the batch, delivering it and arming the next alarm.
// Delivery failures never abort the batch; they are combined in the result.
func (o *Orchestrator) Tick(ctx context.Context) (TickResult, error) {
	now := o.now()
	opts, err := o.records.Options(ctx)
	if err != nil {
		return TickResult{}, err
	}

	var (
		res   TickResult
		due   []*domain.Item
		after []*domain.Item
	)

	err = o.records.Mutate(ctx, func(items []*domain.Item) ([]*domain.Item, error) {
		kept, expired := o.history.Collect(items, now, opts.History)
		res.Deleted = ids(expired)
		changed := len(expired) > 0

		for _, it := range kept {
			if !it.IsDue(now, o.settings.DueTolerance) {
				continue
			}

			if it.Repeat == nil {
				due = append(due, it.Clone())
				it.MarkDelivered(now)
				changed = true
				continue
			}

			// Evaluate from the later of now and the slot itself so an
			// early wake within tolerance cannot land on the same slot.
			from := now
			if it.WakeUpTime.After(from) {
				from = it.WakeUpTime
			}
			next, err := rules.NextOccurrence(*it.Repeat, from, opts)
			if err != nil {
				o.logger.Warn("repeat rule evaluation failed, pausing item",
					logger.String("id", it.ID),
					logger.String("rule", string(it.Repeat.Type)),
					logger.Error(err))
				it.Status = domain.StatusPaused
				res.Paused = append(res.Paused, it.ID)
				changed = true
				continue
			}

			due = append(due, it.Clone())
			it.WakeUpTime = next
			res.Rescheduled = append(res.Rescheduled, it.ID)
			changed = true
		}

		after = kept
		if !changed {
			return nil, errUnchanged
		}
		return kept, nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return res, err
	}

	if len(due) > 0 {
		res.Woken = ids(due)
		o.logger.Info("waking up items", logger.Strings("ids", res.Woken))
	}

	for _, it := range due {
		if err := o.delivery.Deliver(ctx, it, now, true); err != nil {
			o.logger.Error("failed to deliver item",
				logger.String("id", it.ID),
				logger.Error(err))
			res.Failed = append(res.Failed, it.ID)
			res.Err = multierr.Append(res.Err, err)
		}
	}

	next, _ := o.nextWake(after, now)
	res.NextAlarm = o.arm(next, now)
	return res, nil
}

// Evaluate is the event-driven path run on storage changes, alarm fires and
// lifecycle events. It cleans up history, then either requests a debounced
// wake pass when something is due or arms the alarm for the next wake.
func (o *Orchestrator) Evaluate(ctx context.Context) (TickResult, error) {
	now := o.now()
	opts, err := o.records.Options(ctx)
	if err != nil {
		return TickResult{}, err
	}

	var (
		res   TickResult
		after []*domain.Item
	)
	err = o.records.Mutate(ctx, func(items []*domain.Item) ([]*domain.Item, error) {
		kept, expired := o.history.Collect(items, now, opts.History)
		res.Deleted = ids(expired)
		after = kept
		if len(expired) == 0 {
			return nil, errUnchanged
		}
		return kept, nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return res, err
	}

	next, due := o.nextWake(after, now)
	if due {
		o.alarms.Clear()
		o.alarms.FireSoon()
		res.FiringSoon = true
		o.logger.Debug("items due, wake pass scheduled")
		return res, nil
	}

	res.NextAlarm = o.arm(next, now)
	return res, nil
}

// WakeNow wakes the given sleeping items regardless of their time, without
// the automatic notification. Repeaters are rescheduled, others retired.
// A repeater whose rule no longer evaluates is paused and not opened, as in
// Tick.
func (o *Orchestrator) WakeNow(ctx context.Context, wake []string) (TickResult, error) {
	now := o.now()
	opts, err := o.records.Options(ctx)
	if err != nil {
		return TickResult{}, err
	}

	want := make(map[string]bool, len(wake))
	for _, id := range wake {
		want[id] = true
	}

	var (
		res   TickResult
		due   []*domain.Item
		after []*domain.Item
	)
	err = o.records.Mutate(ctx, func(items []*domain.Item) ([]*domain.Item, error) {
		after = items
		for _, it := range items {
			if !want[it.ID] || !it.Sleeping() || !it.HasPayload() {
				continue
			}
			if it.Repeat == nil {
				due = append(due, it.Clone())
				it.MarkDelivered(now)
				continue
			}
			next, err := rules.NextOccurrence(*it.Repeat, now, opts)
			if err != nil {
				o.logger.Warn("repeat rule evaluation failed, pausing item",
					logger.String("id", it.ID),
					logger.String("rule", string(it.Repeat.Type)),
					logger.Error(err))
				it.Status = domain.StatusPaused
				res.Paused = append(res.Paused, it.ID)
				continue
			}
			due = append(due, it.Clone())
			it.WakeUpTime = next
			res.Rescheduled = append(res.Rescheduled, it.ID)
		}
		if len(due) == 0 && len(res.Paused) == 0 {
			return nil, errUnchanged
		}
		return items, nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return res, err
	}

	res.Woken = ids(due)
	if len(due) > 0 {
		o.logger.Info("waking up items manually", logger.Strings("ids", res.Woken))
	}

	for _, it := range due {
		if err := o.delivery.Deliver(ctx, it, now, false); err != nil {
			o.logger.Error("failed to deliver item",
				logger.String("id", it.ID),
				logger.Error(err))
			res.Failed = append(res.Failed, it.ID)
			res.Err = multierr.Append(res.Err, err)
		}
	}

	next, _ := o.nextWake(after, now)
	res.NextAlarm = o.arm(next, now)
	return res, nil
}

// nextWake returns the earliest future wake among schedulable items, and
// whether any of them is already due.
func (o *Orchestrator) nextWake(items []*domain.Item, now time.Time) (next time.Time, due bool) {
	for _, it := range items {
		if !it.Schedulable() {
			continue
		}
		if it.IsDue(now, o.settings.DueTolerance) {
			due = true
			continue
		}
		if next.IsZero() || it.WakeUpTime.Before(next) {
			next = it.WakeUpTime
		}
	}
	return next, due
}

// arm points the alarm at next, capped at the horizon, or clears it when
// nothing is scheduled. It returns the armed instant.
func (o *Orchestrator) arm(next, now time.Time) time.Time {
	if next.IsZero() {
		o.alarms.Clear()
		o.logger.Debug("no items asleep, alarm cleared")
		return time.Time{}
	}

	target := next
	if limit := now.Add(o.settings.Horizon); limit.Before(target) {
		target = limit
	}

	if o.alarms.Arm(target) {
		o.logger.Info("next alarm armed",
			logger.Time("at", target),
			logger.Time("next_wake", next))
	}
	return target
}
