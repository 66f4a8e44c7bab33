package snooze

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/notify"
	"github.com/MrSnakeDoc/snoozzd/internal/presenter"
	"github.com/MrSnakeDoc/snoozzd/internal/rules"
)

// Schedule is when a new or edited item should wake.
type Schedule struct {
	// At is the first wake. Repeaters may leave it zero to start at the rule's next occurrence.
	At      time.Time
	StartUp bool
	Repeat  *domain.ScheduleRule
}

// Group carries the window and selection specific settings.
type Group struct {
	Title     string
	NewWindow *bool
	Incognito bool
}

// QuickTarget is what a context-menu or command snooze points at.
type QuickTarget struct {
	URL    string
	Title  string
	Pinned bool
	// Link is set when the target is a link rather than the page itself.
	Link bool
}

// Snoozer implements the snooze use-cases on top of the record store.
type Snoozer struct {
	store     *Store
	notifier  notify.Notifier
	clk       clock.Clock
	loc       *time.Location
	allowFile bool
	logger    logger.Logger
}

// NewSnoozer creates a snoozer. allowFile accepts file: URLs.
func NewSnoozer(store *Store, n notify.Notifier, clk clock.Clock, loc *time.Location, allowFile bool, log logger.Logger) *Snoozer {
	if loc == nil {
		loc = time.Local
	}
	return &Snoozer{
		store:     store,
		notifier:  n,
		clk:       clk,
		loc:       loc,
		allowFile: allowFile,
		logger:    log,
	}
}

func (s *Snoozer) now() time.Time { return s.clk.Now().In(s.loc) }

// SnoozeTab puts a single tab to sleep.
func (s *Snoozer) SnoozeTab(ctx context.Context, tab domain.Tab, sched Schedule) (*domain.Item, error) {
	if !domain.ValidURL(tab.URL, s.allowFile) {
		return nil, &domain.TargetError{Reason: domain.ReasonInvalidLink}
	}
	if tab.Title == "" {
		tab.Title = domain.ShortURL(tab.URL)
	}

	item := &domain.Item{
		Kind:  domain.KindTab,
		Title: tab.Title,
		Tab:   &tab,
	}
	return s.create(ctx, item, sched)
}

// SnoozeWindow puts a whole window to sleep.
func (s *Snoozer) SnoozeWindow(ctx context.Context, tabs []domain.Tab, sched Schedule, g Group) (*domain.Item, error) {
	return s.snoozeGroup(ctx, domain.KindWindow, tabs, sched, g)
}

// SnoozeSelection puts a set of tabs to sleep together.
func (s *Snoozer) SnoozeSelection(ctx context.Context, tabs []domain.Tab, sched Schedule, g Group) (*domain.Item, error) {
	return s.snoozeGroup(ctx, domain.KindSelection, tabs, sched, g)
}

func (s *Snoozer) snoozeGroup(ctx context.Context, kind domain.Kind, tabs []domain.Tab, sched Schedule, g Group) (*domain.Item, error) {
	// Tabs that cannot be reopened are left behind
	valid := make([]domain.Tab, 0, len(tabs))
	urls := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if domain.ValidURL(t.URL, s.allowFile) {
			valid = append(valid, t)
			urls = append(urls, t.URL)
		}
	}
	if len(valid) == 0 {
		return nil, &domain.TargetError{Reason: domain.ReasonInvalidLink}
	}

	title := g.Title
	if title == "" {
		title = presenter.TabCountLabel(len(valid)) + " from " + presenter.SiteCountLabel(urls)
	}

	item := &domain.Item{
		Kind:      kind,
		Title:     title,
		Tabs:      valid,
		NewWindow: g.NewWindow,
		Incognito: g.Incognito,
	}
	return s.create(ctx, item, sched)
}

func (s *Snoozer) create(ctx context.Context, item *domain.Item, sched Schedule) (*domain.Item, error) {
	now := s.now()
	opts, err := s.store.Options(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.apply(item, sched, now, opts); err != nil {
		return nil, err
	}

	item.ID = uuid.NewString()
	item.TimeCreated = now
	item.Status = domain.StatusPending

	if err := s.store.Upsert(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("snoozing a new "+string(item.Kind),
		logger.String("id", item.ID),
		logger.Time("until", item.WakeUpTime))
	return item, nil
}

// apply validates sched and writes it onto item.
func (s *Snoozer) apply(item *domain.Item, sched Schedule, now time.Time, opts domain.Options) error {
	var wake time.Time

	switch {
	case sched.Repeat != nil:
		if err := sched.Repeat.Validate(); err != nil {
			return err
		}
		wake = sched.At
		if sched.Repeat.Type == domain.RuleStartup {
			wake = rules.StartupTime(now)
		} else if wake.IsZero() {
			next, err := rules.NextOccurrence(*sched.Repeat, now, opts)
			if err != nil {
				return err
			}
			wake = next
		}
	case sched.StartUp:
		wake = rules.StartupTime(now)
	default:
		wake = sched.At
	}

	if !wake.After(now) {
		return &domain.TargetError{Reason: domain.ReasonInvalidTime}
	}

	item.WakeUpTime = wake
	item.StartUp = sched.StartUp
	item.Repeat = sched.Repeat
	return nil
}

// QuickSnooze snoozes target using one of the quick-snooze choices, telling
// the user the outcome either way.
func (s *Snoozer) QuickSnooze(ctx context.Context, choice string, target QuickTarget) (*domain.Item, error) {
	now := s.now()
	opts, err := s.store.Options(ctx)
	if err != nil {
		return nil, err
	}
	p := presenter.New(opts, s.loc)

	if !domain.ValidURL(target.URL, s.allowFile) {
		return nil, s.refuse(ctx, domain.ReasonInvalidLink)
	}

	c, ok := p.Choice(choice, now)
	if !ok || c.Disabled || (!c.StartUp && !c.Time.After(now)) {
		return nil, s.refuse(ctx, domain.ReasonInvalidTime)
	}

	tab := domain.Tab{URL: target.URL, Title: target.Title}
	if !target.Link {
		tab.Pinned = target.Pinned
	}
	item, err := s.SnoozeTab(ctx, tab, Schedule{At: c.Time, StartUp: c.StartUp})
	if err != nil {
		return nil, err
	}

	name := target.Title
	if target.Link || name == "" {
		name = domain.Hostname(target.URL)
	}
	s.show(ctx, notify.Notification{
		ID:    item.ID,
		Title: "A new tab is now napping :)",
		Body:  fmt.Sprintf("%s will wake up %s.", name, p.SnoozedUntil(item, now)),
		Force: true,
	})
	return item, nil
}

func (s *Snoozer) refuse(ctx context.Context, reason string) error {
	s.show(ctx, notify.Notification{
		Title: "Can't snoozz that :(",
		Body:  reason,
		Force: true,
	})
	return &domain.TargetError{Reason: reason}
}

func (s *Snoozer) show(ctx context.Context, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Show(ctx, n); err != nil {
		s.logger.Warn("failed to show notification",
			logger.String("title", n.Title),
			logger.Error(err))
	}
}

// MarkOpened sends sleeping items to history without reopening them.
func (s *Snoozer) MarkOpened(ctx context.Context, ids ...string) ([]string, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	now := s.now()
	var done []string
	err := s.store.Mutate(ctx, func(items []*domain.Item) ([]*domain.Item, error) {
		for _, it := range items {
			if want[it.ID] && it.Sleeping() {
				it.MarkDelivered(now)
				done = append(done, it.ID)
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	if len(done) > 0 {
		s.logger.Info("sending items to history", logger.Strings("ids", done))
	}
	return done, nil
}

// SetPaused pauses or resumes one item.
func (s *Snoozer) SetPaused(ctx context.Context, id string, paused bool) (*domain.Item, error) {
	return s.update(ctx, id, func(it *domain.Item, _ time.Time, _ domain.Options) error {
		return it.SetPaused(paused)
	})
}

// Reschedule changes when an item wakes. A delivered item goes back to sleep.
func (s *Snoozer) Reschedule(ctx context.Context, id string, sched Schedule) (*domain.Item, error) {
	return s.update(ctx, id, func(it *domain.Item, now time.Time, opts domain.Options) error {
		if err := s.apply(it, sched, now, opts); err != nil {
			return err
		}
		if it.Status == domain.StatusDelivered {
			it.Status = domain.StatusPending
			it.OpenedAt = time.Time{}
		}
		return nil
	})
}

func (s *Snoozer) update(ctx context.Context, id string, fn func(it *domain.Item, now time.Time, opts domain.Options) error) (*domain.Item, error) {
	now := s.now()
	opts, err := s.store.Options(ctx)
	if err != nil {
		return nil, err
	}

	var updated *domain.Item
	err = s.store.Mutate(ctx, func(items []*domain.Item) ([]*domain.Item, error) {
		for _, it := range items {
			if it.ID != id {
				continue
			}
			if err := fn(it, now, opts); err != nil {
				return nil, err
			}
			updated = it
			return items, nil
		}
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
