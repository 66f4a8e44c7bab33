// Package presenter renders option-driven, human-readable views of snoozed items.
package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/rules"
)

// Presenter formats instants according to the user's options.
type Presenter struct {
	opts domain.Options
	loc  *time.Location
	// Browser names the launch in "Next <Browser> Launch"; empty gives "Next Launch".
	Browser string
}

// New creates a presenter formatting in loc, or in local time when loc is nil.
func New(opts domain.Options, loc *time.Location) *Presenter {
	if loc == nil {
		loc = time.Local
	}
	return &Presenter{opts: opts, loc: loc}
}

func (p *Presenter) in(t time.Time) time.Time { return t.In(p.loc) }

// FormatTime renders the time of day. Minutes are omitted on the hour in
// 12-hour mode unless showZeros is set.
func (p *Presenter) FormatTime(t time.Time, showZeros bool) string {
	t = p.in(t)
	if p.opts.HourFormat == 24 {
		return t.Format("15:04")
	}
	if showZeros || t.Minute() != 0 {
		return t.Format("3:04 PM")
	}
	return t.Format("3 PM")
}

// SnoozedUntil labels when item wakes up, relative to now.
func (p *Presenter) SnoozedUntil(item *domain.Item, now time.Time) string {
	if item.WakesOnStartup() {
		if p.Browser == "" {
			return "Next Launch"
		}
		return "Next " + capitalize(p.Browser) + " Launch"
	}

	date := p.in(item.WakeUpTime)
	now = p.in(now)
	at := " @ " + p.FormatTime(date, false)

	switch {
	case sameDay(date, now):
		if date.Hour() >= 18 {
			return "Tonight" + at
		}
		return "Today" + at
	case sameDay(date, now.AddDate(0, 0, 1)):
		return "Tomorrow" + at
	case rules.StartOfWeek(date, p.opts.WeekStart).Equal(rules.StartOfWeek(now, p.opts.WeekStart)):
		return date.Format("Monday") + at
	case date.Year() != now.Year():
		return date.Format("Mon, Jan 2, 2006")
	default:
		return date.Format("Mon, Jan 2") + at
	}
}

// EveningLabel names the evening slot: afternoon up to 16h, night from 20h.
// kind is "", "tomorrow" or "every".
func EveningLabel(hour int, kind string) string {
	part, prefix := "evening", "this "
	switch kind {
	case "tomorrow":
		prefix = "tomorrow "
	case "every", "everyday":
		prefix = "every "
	}
	if hour > 0 && hour <= 16 {
		part = "afternoon"
	}
	if hour >= 20 {
		part = "night"
		if kind == "" {
			prefix = "to"
		}
	}
	return capitalize(prefix + part)
}

// Ordinal renders 1 as "1st", 12 as "12th", 22 as "22nd".
func Ordinal(n int) string {
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return fmt.Sprintf("%dth", n)
	case n%10 == 1:
		return fmt.Sprintf("%dst", n)
	case n%10 == 2:
		return fmt.Sprintf("%dnd", n)
	case n%10 == 3:
		return fmt.Sprintf("%drd", n)
	}
	return fmt.Sprintf("%dth", n)
}

// SnoozedAgo renders "3 hours ago" style phrases.
func SnoozedAgo(created, now time.Time) string {
	return humanize.RelTime(created, now, "ago", "from now")
}

// TabCountLabel renders "1 tab" or "N tabs".
func TabCountLabel(n int) string {
	if n == 1 {
		return "1 tab"
	}
	return fmt.Sprintf("%d tabs", n)
}

// SiteCountLabel counts distinct hostnames.
func SiteCountLabel(urls []string) string {
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		seen[domain.Hostname(u)] = true
	}
	if len(seen) > 1 {
		return fmt.Sprintf("%d different websites", len(seen))
	}
	return fmt.Sprintf("%d website", len(seen))
}

// Badge counts sleeping items for the "badge" option: all of them, only
// those waking today, or none.
func (p *Presenter) Badge(items []*domain.Item, now time.Time) int {
	count := 0
	now = p.in(now)
	for _, it := range items {
		if !it.Sleeping() {
			continue
		}
		switch p.opts.Badge {
		case "all":
			count++
		case "today":
			if !it.WakeUpTime.IsZero() && sameDay(p.in(it.WakeUpTime), now) {
				count++
			}
		}
	}
	return count
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func capitalize(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
