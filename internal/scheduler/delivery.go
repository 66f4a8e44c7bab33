package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/browser"
	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/notify"
	"github.com/MrSnakeDoc/snoozzd/internal/presenter"
)

// Browser is the tab and window host items are reopened in.
type Browser interface {
	Windows(ctx context.Context) ([]browser.Window, error)
	CreateWindow(ctx context.Context, spec browser.WindowSpec) (browser.Window, error)
	CreateTab(ctx context.Context, spec browser.TabSpec) error
	FocusWindow(ctx context.Context, id int) error
}

// Deliverer reopens woken items and tells the user about it.
type Deliverer struct {
	browser  Browser
	notifier notify.Notifier
	logger   logger.Logger
}

// NewDeliverer creates a deliverer.
func NewDeliverer(b Browser, n notify.Notifier, log logger.Logger) *Deliverer {
	return &Deliverer{browser: b, notifier: n, logger: log}
}

// Deliver opens item. When automatic, a "woke up" notification follows a
// successful open; a failing notification is only logged.
func (d *Deliverer) Deliver(ctx context.Context, item *domain.Item, now time.Time, automatic bool) error {
	var err error
	switch item.Kind {
	case domain.KindWindow:
		err = d.openWindow(ctx, item)
	case domain.KindSelection:
		err = d.openSelection(ctx, item)
	default:
		if item.Tab == nil {
			return fmt.Errorf("%w: item %s has no tab", domain.ErrDeliveryFailure, item.ID)
		}
		err = d.openTab(ctx, *item.Tab, 0)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrDeliveryFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, err)
		}
		return fmt.Errorf("deliver %s: %w", item.ID, err)
	}

	if !automatic || d.notifier == nil {
		return nil
	}
	if err := d.notifier.Show(ctx, WokeUp(item, now)); err != nil {
		d.logger.Warn("failed to show wake notification",
			logger.String("id", item.ID),
			logger.Error(err))
	}
	return nil
}

// openTab creates tab in windowID. Incognito tabs go to an existing private
// window or a new one; with no normal window open the tab gets its own window.
func (d *Deliverer) openTab(ctx context.Context, tab domain.Tab, windowID int) error {
	windows, err := d.browser.Windows(ctx)
	if err != nil {
		return err
	}

	if tab.Incognito {
		target, ok := findWindow(windows, true)
		if !ok {
			if target, err = d.browser.CreateWindow(ctx, browser.WindowSpec{Incognito: true}); err != nil {
				return err
			}
		}
		return d.browser.CreateTab(ctx, browser.TabSpec{URL: tab.URL, WindowID: target.ID, Pinned: tab.Pinned})
	}

	if _, ok := findWindow(windows, false); !ok {
		_, err := d.browser.CreateWindow(ctx, browser.WindowSpec{URL: tab.URL})
		return err
	}
	return d.browser.CreateTab(ctx, browser.TabSpec{URL: tab.URL, WindowID: windowID, Pinned: tab.Pinned})
}

// openSelection opens every tab of a selection, in a fresh window when the
// item asks for one or nothing is open.
func (d *Deliverer) openSelection(ctx context.Context, item *domain.Item) error {
	windows, err := d.browser.Windows(ctx)
	if err != nil {
		return err
	}

	target := 0
	if len(windows) == 0 || (item.NewWindow != nil && *item.NewWindow) {
		w, err := d.browser.CreateWindow(ctx, browser.WindowSpec{Incognito: item.Incognito})
		if err != nil {
			return err
		}
		target = w.ID
	}

	for _, tab := range item.Tabs {
		if err := d.openTab(ctx, tab, target); err != nil {
			return err
		}
	}
	return nil
}

// openWindow restores a window: into the focused window when the item
// forbids a new one, otherwise into a fresh window, which is then focused.
func (d *Deliverer) openWindow(ctx context.Context, item *domain.Item) error {
	windows, err := d.browser.Windows(ctx)
	if err != nil {
		return err
	}

	var target browser.Window
	current, ok := focusedWindow(windows)
	if ok && item.NewWindow != nil && !*item.NewWindow {
		target = current
	} else {
		if target, err = d.browser.CreateWindow(ctx, browser.WindowSpec{Incognito: item.Incognito}); err != nil {
			return err
		}
	}

	for _, tab := range item.Tabs {
		spec := browser.TabSpec{URL: tab.URL, WindowID: target.ID, Pinned: tab.Pinned}
		if err := d.browser.CreateTab(ctx, spec); err != nil {
			return err
		}
	}
	return d.browser.FocusWindow(ctx, target.ID)
}

func findWindow(windows []browser.Window, incognito bool) (browser.Window, bool) {
	for _, w := range windows {
		if w.Incognito == incognito {
			return w, true
		}
	}
	return browser.Window{}, false
}

func focusedWindow(windows []browser.Window) (browser.Window, bool) {
	for _, w := range windows {
		if w.Focused && !w.Incognito {
			return w, true
		}
	}
	return findWindow(windows, false)
}

// WokeUp builds the notification shown after an automatic wake.
func WokeUp(item *domain.Item, now time.Time) notify.Notification {
	ago := presenter.SnoozedAgo(item.TimeCreated, now)
	n := notify.Notification{ID: item.ID}

	switch item.Kind {
	case domain.KindWindow:
		n.Title = "A window woke up!"
		n.Body = "This window was put to sleep " + ago
	case domain.KindSelection:
		count := strings.SplitN(item.Title, " ", 2)[0]
		if count == "" {
			count = fmt.Sprint(len(item.Tabs))
		}
		n.Title = count + " tabs woke up!"
		n.Body = "These tabs were put to sleep " + ago
	default:
		n.Title = "A tab woke up!"
		n.Body = item.Title + " -- snoozed " + ago
		if item.Tab != nil {
			n.URL = item.Tab.URL
		}
	}
	return n
}
