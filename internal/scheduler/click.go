package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/snoozzd/internal/browser"
	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
)

// WakeUpNowID is the notification id whose click asks for a wake pass.
const WakeUpNowID = "_wakeUpNow"

// Focuser is the browser surface a notification click needs.
type Focuser interface {
	Windows(ctx context.Context) ([]browser.Window, error)
	Tabs(ctx context.Context, windowID int) ([]browser.Tab, error)
	FocusWindow(ctx context.Context, id int) error
	ActivateTab(ctx context.Context, id int) error
	OpenNapRoom(ctx context.Context) error
	ClearNotification(ctx context.Context, id string) error
}

// ClickHandler brings the item behind a clicked notification back into view.
type ClickHandler struct {
	records Records
	browser Focuser
	logger  logger.Logger
}

// NewClickHandler creates a click handler
func NewClickHandler(records Records, b Focuser, log logger.Logger) *ClickHandler {
	return &ClickHandler{records: records, browser: b, logger: log}
}

// Click clears notification id. WakeUpNowID only asks for a wake pass.
// Otherwise the tab or window the item reopened is focused; when it cannot
// be found the nap room is opened instead.
func (c *ClickHandler) Click(ctx context.Context, id string) (bool, error) {
	if err := c.browser.ClearNotification(ctx, id); err != nil {
		c.logger.Debug("failed to clear notification",
			logger.String("id", id),
			logger.Error(err))
	}
	if id == WakeUpNowID {
		return true, nil
	}

	if id != "" {
		items, err := c.records.List(ctx, id)
		if err != nil {
			return false, err
		}
		if len(items) == 1 {
			ok, err := c.focus(ctx, items[0])
			if err != nil {
				c.logger.Warn("failed to focus woken item",
					logger.String("id", id),
					logger.Error(err))
			}
			if ok {
				return false, nil
			}
		}
	}

	return false, c.browser.OpenNapRoom(ctx)
}

// focus looks through every window for a tab showing the item. A single tab
// is activated itself; for a window or selection the window's first tab is.
func (c *ClickHandler) focus(ctx context.Context, item *domain.Item) (bool, error) {
	urls := item.URLs()
	if len(urls) == 0 {
		return false, nil
	}
	if item.Kind == domain.KindTab {
		urls = urls[:1]
	}

	windows, err := c.browser.Windows(ctx)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		tabs, err := c.browser.Tabs(ctx, w.ID)
		if err != nil {
			return false, err
		}
		found, ok := findTab(tabs, urls)
		if !ok {
			continue
		}

		if err := c.browser.FocusWindow(ctx, w.ID); err != nil {
			return false, err
		}
		target := found.ID
		if item.Kind != domain.KindTab {
			target = tabs[0].ID
		}
		if err := c.browser.ActivateTab(ctx, target); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func findTab(tabs []browser.Tab, urls []string) (browser.Tab, bool) {
	for _, t := range tabs {
		for _, u := range urls {
			if t.URL == u {
				return t, true
			}
		}
	}
	return browser.Tab{}, false
}
