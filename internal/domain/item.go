package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind selects the payload variant of an Item.
type Kind string

const (
	KindTab       Kind = "tab"
	KindWindow    Kind = "window"
	KindSelection Kind = "selection"
)

// Status is the persisted lifecycle state of an Item.
// Due is not a status: it is a pending item whose wake time has passed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaused    Status = "paused"
	StatusDelivered Status = "delivered"
)

// Tab describes one browser tab to reopen.
type Tab struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Pinned    bool   `json:"pinned,omitempty"`
	Incognito bool   `json:"incognito,omitempty"`
}

// Item is one snoozed unit: a single tab, a whole window or a selection of tabs.
type Item struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is opaque and never reused.
	ID string

	// Kind selects between Tab and Tabs.
	Kind Kind

	// Title is shown in notifications and listings.
	Title string

	// ─────────────────────────────
	// Payload
	// ─────────────────────────────

	// Tab is set for KindTab.
	Tab *Tab

	// Tabs is set for KindWindow and KindSelection, in restore order.
	Tabs []Tab

	// NewWindow forces (true) or forbids (false) a fresh window on restore.
	NewWindow *bool

	// Incognito restores a window or selection in a private window.
	Incognito bool

	// ─────────────────────────────
	// Scheduling
	// ─────────────────────────────

	// WakeUpTime is the next absolute instant the item is due.
	WakeUpTime time.Time

	// TimeCreated is when the item was snoozed.
	TimeCreated time.Time

	// Status is pending, paused or delivered.
	Status Status

	// OpenedAt is set iff Status is delivered.
	OpenedAt time.Time

	// StartUp parks the item until the next browser launch.
	StartUp bool

	// Repeat makes the item recurring.
	Repeat *ScheduleRule
}

// Sleeping reports whether the item has not been delivered yet.
func (it *Item) Sleeping() bool { return it.Status != StatusDelivered }

// Paused reports whether the item is excluded from wake evaluation.
func (it *Item) Paused() bool { return it.Status == StatusPaused }

// HasPayload reports whether there is anything to reopen.
func (it *Item) HasPayload() bool {
	if it.Tab != nil && it.Tab.URL != "" {
		return true
	}
	return len(it.Tabs) > 0
}

// Schedulable reports whether the item takes part in alarm arming.
func (it *Item) Schedulable() bool {
	return it.Status == StatusPending && !it.WakeUpTime.IsZero() && it.HasPayload()
}

// IsDue reports whether a schedulable item should wake at now, allowing tolerance of host alarm slack.
func (it *Item) IsDue(now time.Time, tolerance time.Duration) bool {
	return it.Schedulable() && !it.WakeUpTime.After(now.Add(tolerance))
}

// WakesOnStartup reports whether the item waits for a browser launch.
func (it *Item) WakesOnStartup() bool {
	return it.StartUp || (it.Repeat != nil && it.Repeat.Type == RuleStartup)
}

// MarkDelivered retires a non-repeating item.
func (it *Item) MarkDelivered(now time.Time) {
	it.Status = StatusDelivered
	it.OpenedAt = now
}

// SetPaused toggles the paused state. Delivered items cannot be paused.
func (it *Item) SetPaused(paused bool) error {
	if it.Status == StatusDelivered {
		return fmt.Errorf("item %s already delivered", it.ID)
	}
	if paused {
		it.Status = StatusPaused
	} else {
		it.Status = StatusPending
	}
	return nil
}

// URLs returns every URL the item will reopen.
func (it *Item) URLs() []string {
	if it.Tab != nil {
		return []string{it.Tab.URL}
	}
	urls := make([]string, 0, len(it.Tabs))
	for _, t := range it.Tabs {
		urls = append(urls, t.URL)
	}
	return urls
}

// Clone returns a deep copy.
func (it *Item) Clone() *Item {
	c := *it
	if it.Tab != nil {
		t := *it.Tab
		c.Tab = &t
	}
	if it.Tabs != nil {
		c.Tabs = append([]Tab(nil), it.Tabs...)
	}
	if it.NewWindow != nil {
		b := *it.NewWindow
		c.NewWindow = &b
	}
	if it.Repeat != nil {
		r := *it.Repeat
		r.Weekly = append([]int(nil), it.Repeat.Weekly...)
		r.Monthly = append([]int(nil), it.Repeat.Monthly...)
		c.Repeat = &r
	}
	return &c
}

// itemJSON is the persisted shape: every instant is epoch milliseconds.
type itemJSON struct {
	ID          string        `json:"id"`
	Kind        Kind          `json:"kind"`
	Title       string        `json:"title,omitempty"`
	Tab         *Tab          `json:"tab,omitempty"`
	Tabs        []Tab         `json:"tabs,omitempty"`
	NewWindow   *bool         `json:"newWindow,omitempty"`
	Incognito   bool          `json:"incognito,omitempty"`
	WakeUpTime  int64         `json:"wakeUpTime"`
	TimeCreated int64         `json:"timeCreated"`
	Status      Status        `json:"status"`
	Opened      *int64        `json:"opened,omitempty"`
	StartUp     bool          `json:"startUp,omitempty"`
	Repeat      *ScheduleRule `json:"repeat,omitempty"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	w := itemJSON{
		ID:          it.ID,
		Kind:        it.Kind,
		Title:       it.Title,
		Tab:         it.Tab,
		Tabs:        it.Tabs,
		NewWindow:   it.NewWindow,
		Incognito:   it.Incognito,
		WakeUpTime:  Millis(it.WakeUpTime),
		TimeCreated: Millis(it.TimeCreated),
		Status:      it.Status,
		StartUp:     it.StartUp,
		Repeat:      it.Repeat,
	}
	if !it.OpenedAt.IsZero() {
		ms := Millis(it.OpenedAt)
		w.Opened = &ms
	}
	return json.Marshal(w)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var w itemJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*it = Item{
		ID:          w.ID,
		Kind:        w.Kind,
		Title:       w.Title,
		Tab:         w.Tab,
		Tabs:        w.Tabs,
		NewWindow:   w.NewWindow,
		Incognito:   w.Incognito,
		WakeUpTime:  FromMillis(w.WakeUpTime),
		TimeCreated: FromMillis(w.TimeCreated),
		Status:      w.Status,
		StartUp:     w.StartUp,
		Repeat:      w.Repeat,
	}
	if w.Opened != nil {
		it.OpenedAt = FromMillis(*w.Opened)
		it.Status = StatusDelivered
	}
	if it.Status == "" {
		it.Status = StatusPending
	}
	if it.Kind == "" {
		it.Kind = KindTab
	}
	return nil
}

// Millis converts t to epoch milliseconds; the zero time maps to 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis is the inverse of Millis.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
