package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/browser"
	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/notify"
)

type fakeBrowser struct {
	windows    []browser.Window
	created    []browser.WindowSpec
	tabs       []browser.TabSpec
	focused    []int
	failCreate bool
}

func (b *fakeBrowser) Windows(context.Context) ([]browser.Window, error) {
	return b.windows, nil
}

func (b *fakeBrowser) CreateWindow(_ context.Context, spec browser.WindowSpec) (browser.Window, error) {
	b.created = append(b.created, spec)
	w := browser.Window{ID: 100 + len(b.created), Incognito: spec.Incognito}
	b.windows = append(b.windows, w)
	return w, nil
}

func (b *fakeBrowser) CreateTab(_ context.Context, spec browser.TabSpec) error {
	if b.failCreate {
		return errors.New("no such window")
	}
	b.tabs = append(b.tabs, spec)
	return nil
}

func (b *fakeBrowser) FocusWindow(_ context.Context, id int) error {
	b.focused = append(b.focused, id)
	return nil
}

type notes struct{ shown []notify.Notification }

func (n *notes) Show(_ context.Context, note notify.Notification) error {
	n.shown = append(n.shown, note)
	return nil
}

func TestDeliver_Tab(t *testing.T) {
	tab := newTab("a", baseNow)

	t.Run("no window open", func(t *testing.T) {
		b := &fakeBrowser{}
		d := NewDeliverer(b, nil, logger.Nop())
		if err := d.Deliver(context.Background(), tab, baseNow, false); err != nil {
			t.Fatalf("Deliver failed: %v", err)
		}
		if len(b.created) != 1 || b.created[0].URL != tab.Tab.URL {
			t.Errorf("Expected a new window with the tab, got %+v", b.created)
		}
	})

	t.Run("normal window open", func(t *testing.T) {
		b := &fakeBrowser{windows: []browser.Window{{ID: 1}}}
		d := NewDeliverer(b, nil, logger.Nop())
		if err := d.Deliver(context.Background(), tab, baseNow, false); err != nil {
			t.Fatalf("Deliver failed: %v", err)
		}
		if len(b.created) != 0 || len(b.tabs) != 1 || b.tabs[0].Active {
			t.Errorf("Expected one background tab, got windows=%+v tabs=%+v", b.created, b.tabs)
		}
	})

	t.Run("incognito", func(t *testing.T) {
		b := &fakeBrowser{windows: []browser.Window{{ID: 1}}}
		d := NewDeliverer(b, nil, logger.Nop())
		private := newTab("p", baseNow)
		private.Tab.Incognito = true
		if err := d.Deliver(context.Background(), private, baseNow, false); err != nil {
			t.Fatalf("Deliver failed: %v", err)
		}
		if len(b.created) != 1 || !b.created[0].Incognito {
			t.Fatalf("Expected a private window, got %+v", b.created)
		}
		if b.tabs[0].WindowID != 101 {
			t.Errorf("Tab opened in window %d", b.tabs[0].WindowID)
		}
	})
}

func TestDeliver_Window(t *testing.T) {
	item := &domain.Item{
		ID:          "w",
		Kind:        domain.KindWindow,
		Title:       "Research",
		Tabs:        []domain.Tab{{URL: "https://a.example.com"}, {URL: "https://b.example.com", Pinned: true}},
		TimeCreated: baseNow.Add(-2 * time.Hour),
	}

	b := &fakeBrowser{windows: []browser.Window{{ID: 1, Focused: true}}}
	n := &notes{}
	d := NewDeliverer(b, n, logger.Nop())

	if err := d.Deliver(context.Background(), item, baseNow, true); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if len(b.created) != 1 {
		t.Fatalf("Expected a fresh window, got %+v", b.created)
	}
	if len(b.tabs) != 2 || b.tabs[0].WindowID != 101 || !b.tabs[1].Pinned {
		t.Errorf("Unexpected tabs %+v", b.tabs)
	}
	if len(b.focused) != 1 || b.focused[0] != 101 {
		t.Errorf("Expected the new window to be focused, got %v", b.focused)
	}
	if len(n.shown) != 1 || n.shown[0].Title != "A window woke up!" {
		t.Errorf("Unexpected notifications %+v", n.shown)
	}

	// Restoring into the current window when a new one is forbidden
	no := false
	item.NewWindow = &no
	b = &fakeBrowser{windows: []browser.Window{{ID: 1}, {ID: 7, Focused: true}}}
	d = NewDeliverer(b, nil, logger.Nop())
	if err := d.Deliver(context.Background(), item, baseNow, false); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if len(b.created) != 0 || b.tabs[0].WindowID != 7 {
		t.Errorf("Expected reuse of window 7, got created=%+v tabs=%+v", b.created, b.tabs)
	}
}

func TestDeliver_Selection(t *testing.T) {
	yes := true
	item := &domain.Item{
		ID:        "s",
		Kind:      domain.KindSelection,
		Title:     "3 tabs from example.com",
		Tabs:      []domain.Tab{{URL: "https://a.example.com"}, {URL: "https://b.example.com"}, {URL: "https://c.example.com"}},
		NewWindow: &yes,
	}

	b := &fakeBrowser{windows: []browser.Window{{ID: 1}}}
	d := NewDeliverer(b, nil, logger.Nop())
	if err := d.Deliver(context.Background(), item, baseNow, false); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if len(b.created) != 1 || len(b.tabs) != 3 {
		t.Fatalf("Expected 1 window and 3 tabs, got %d and %d", len(b.created), len(b.tabs))
	}
	for _, tab := range b.tabs {
		if tab.WindowID != 101 {
			t.Errorf("Tab %s opened in window %d", tab.URL, tab.WindowID)
		}
	}
}

func TestDeliver_FailureIsDeliveryFailure(t *testing.T) {
	b := &fakeBrowser{windows: []browser.Window{{ID: 1}}, failCreate: true}
	n := &notes{}
	d := NewDeliverer(b, n, logger.Nop())

	err := d.Deliver(context.Background(), newTab("a", baseNow), baseNow, true)
	if err == nil {
		t.Fatal("Expected an error")
	}
	if len(n.shown) != 0 {
		t.Error("Notified about a tab that never opened")
	}

	hub := browser.NewHub(time.Second, nil, logger.Nop())
	err = NewDeliverer(hub, nil, logger.Nop()).Deliver(context.Background(), newTab("a", baseNow), baseNow, false)
	if !errors.Is(err, domain.ErrDeliveryFailure) {
		t.Errorf("Expected delivery failure without a browser, got %v", err)
	}
}

func TestWokeUp(t *testing.T) {
	tab := newTab("a", baseNow)
	tab.Title = "Go release notes"

	n := WokeUp(tab, baseNow)
	if n.Title != "A tab woke up!" {
		t.Errorf("Unexpected title %q", n.Title)
	}
	if n.Body != "Go release notes -- snoozed 3 hours ago" {
		t.Errorf("Unexpected body %q", n.Body)
	}

	sel := &domain.Item{ID: "s", Kind: domain.KindSelection, Title: "4 tabs from 2 websites", TimeCreated: baseNow.Add(-3 * time.Hour)}
	n = WokeUp(sel, baseNow)
	if n.Title != "4 tabs woke up!" || !strings.HasPrefix(n.Body, "These tabs were put to sleep") {
		t.Errorf("Unexpected selection notification %+v", n)
	}
}
