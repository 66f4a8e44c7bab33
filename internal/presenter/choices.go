package presenter

import (
	"strings"
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/rules"
)

// Quick-snooze choice ids, in menu order.
const (
	ChoiceStartup      = "startup"
	ChoiceInAnHour     = "in-an-hour"
	ChoiceTodayMorning = "today-morning"
	ChoiceTodayEvening = "today-evening"
	ChoiceTomMorning   = "tom-morning"
	ChoiceTomEvening   = "tom-evening"
	ChoiceWeekend      = "weekend"
	ChoiceMonday       = "monday"
	ChoiceWeek         = "week"
	ChoiceMonth        = "month"
)

var choiceOrder = []string{
	ChoiceStartup, ChoiceInAnHour, ChoiceTodayMorning, ChoiceTodayEvening,
	ChoiceTomMorning, ChoiceTomEvening, ChoiceWeekend, ChoiceMonday,
	ChoiceWeek, ChoiceMonth,
}

// Choice is one entry of the quick-snooze menu, carrying both the one-shot
// wake time and the repeat rule it offers.
type Choice struct {
	ID               string               `json:"id"`
	Label            string               `json:"label"`
	MenuLabel        string               `json:"menuLabel"`
	Time             time.Time            `json:"time"`
	TimeString       string               `json:"timeString,omitempty"`
	StartUp          bool                 `json:"startUp,omitempty"`
	Disabled         bool                 `json:"disabled,omitempty"`
	RepeatLabel      string               `json:"repeatLabel,omitempty"`
	RepeatTime       string               `json:"repeatTime,omitempty"`
	RepeatTimeString string               `json:"repeatTimeString,omitempty"`
	Repeat           *domain.ScheduleRule `json:"repeat,omitempty"`
	RepeatDisabled   bool                 `json:"repeatDisabled,omitempty"`
}

// Choices returns every quick-snooze choice for now, in menu order.
func (p *Presenter) Choices(now time.Time) []Choice {
	all := make([]Choice, 0, len(choiceOrder))
	for _, id := range choiceOrder {
		c, _ := p.Choice(id, now)
		all = append(all, c)
	}
	return all
}

// ChoiceIDs lists the known choice ids.
func ChoiceIDs() []string { return append([]string(nil), choiceOrder...) }

// Choice builds one quick-snooze choice. Times for weekend, monday, week and
// month already carry the popup modifier.
func (p *Presenter) Choice(id string, now time.Time) (Choice, bool) {
	now = p.in(now)
	today := rules.StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	morning, evening := p.opts.Morning, p.opts.Evening
	nowAt := domain.At(now.Hour(), now.Minute())
	dayLabel := func(t time.Time) string { return t.Format("Mon, 2 Jan") }

	switch id {
	case ChoiceStartup:
		return Choice{
			ID:          id,
			Label:       "On Next Startup",
			RepeatLabel: "Every Browser Startup",
			MenuLabel:   "till next startup",
			Time:        rules.StartupTime(now),
			StartUp:     true,
			Repeat:      &domain.ScheduleRule{Type: domain.RuleStartup},
		}, true

	case ChoiceInAnHour:
		t := now.Add(time.Hour)
		ts := "Today"
		if !sameDay(t, now) {
			ts = "Tomorrow"
		}
		return Choice{
			ID:               id,
			Label:            "In One Hour",
			RepeatLabel:      "Every hour",
			MenuLabel:        "for an hour",
			Time:             t,
			TimeString:       ts,
			RepeatTime:       p.FormatTime(t, true),
			RepeatTimeString: "Starts at",
			Repeat:           &domain.ScheduleRule{Type: domain.RuleHourly, Time: domain.At(t.Hour(), t.Minute())},
		}, true

	case ChoiceTodayMorning:
		t := at(today, morning)
		return Choice{
			ID:             id,
			Label:          "This Morning",
			MenuLabel:      "till this morning",
			Time:           t,
			TimeString:     "Today",
			Disabled:       t.Before(now),
			RepeatDisabled: true,
		}, true

	case ChoiceTodayEvening:
		t := at(today, evening)
		return Choice{
			ID:               id,
			Label:            EveningLabel(evening.Hour, ""),
			RepeatLabel:      "Everyday, Now",
			MenuLabel:        "till this evening",
			Time:             t,
			TimeString:       "Today",
			Disabled:         t.Before(now),
			RepeatTime:       p.FormatTime(now, true),
			RepeatTimeString: "Starts Tom at",
			Repeat:           &domain.ScheduleRule{Type: domain.RuleDaily, Time: nowAt},
		}, true

	case ChoiceTomMorning:
		return Choice{
			ID:               id,
			Label:            "Tomorrow Morning",
			RepeatLabel:      "Every Morning",
			MenuLabel:        "till tomorrow morning",
			Time:             at(tomorrow, morning),
			TimeString:       dayLabel(tomorrow),
			RepeatTime:       p.FormatTime(at(today, morning), true),
			RepeatTimeString: startsLabel(now, at(today, morning)),
			Repeat:           &domain.ScheduleRule{Type: domain.RuleDailyMorning, Time: morning},
		}, true

	case ChoiceTomEvening:
		return Choice{
			ID:               id,
			Label:            EveningLabel(evening.Hour, "tomorrow"),
			RepeatLabel:      EveningLabel(evening.Hour, "every"),
			MenuLabel:        "till tomorrow evening",
			Time:             at(tomorrow, evening),
			TimeString:       dayLabel(tomorrow),
			RepeatTime:       p.FormatTime(at(today, evening), true),
			RepeatTimeString: startsLabel(now, at(today, evening)),
			Repeat:           &domain.ScheduleRule{Type: domain.RuleDailyEvening, Time: evening},
		}, true

	case ChoiceWeekend:
		day := today.AddDate(0, 0, (int(time.Saturday)-int(now.Weekday())+7)%7)
		t, mod := p.withModifier(id, day, now)
		return Choice{
			ID:               id,
			Label:            "Saturday",
			RepeatLabel:      "Every Saturday",
			MenuLabel:        "till the weekend",
			Time:             t,
			TimeString:       dayLabel(day),
			Disabled:         t.Before(now),
			RepeatTime:       p.FormatTime(t, true),
			RepeatTimeString: "Saturdays at",
			Repeat:           &domain.ScheduleRule{Type: domain.RuleWeekends, Time: mod, Weekly: []int{int(time.Saturday)}},
		}, true

	case ChoiceMonday:
		offset := (int(time.Monday) - int(now.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		day := today.AddDate(0, 0, offset)
		t, mod := p.withModifier(id, day, now)
		return Choice{
			ID:               id,
			Label:            "Next Monday",
			RepeatLabel:      "Every Monday",
			MenuLabel:        "till next Monday",
			Time:             t,
			TimeString:       dayLabel(day),
			RepeatTime:       p.FormatTime(t, true),
			RepeatTimeString: "Mondays at",
			Repeat:           &domain.ScheduleRule{Type: domain.RuleMondays, Time: mod, Weekly: []int{int(time.Monday)}},
		}, true

	case ChoiceWeek:
		day := today.AddDate(0, 0, 7)
		t, mod := p.withModifier(id, day, now)
		return Choice{
			ID:               id,
			Label:            "Next Week",
			RepeatLabel:      "Every " + now.Format("Monday"),
			MenuLabel:        "for a week",
			Time:             t,
			TimeString:       dayLabel(day),
			RepeatTime:       p.FormatTime(t, true),
			RepeatTimeString: now.Format("Monday") + "s at",
			Repeat:           &domain.ScheduleRule{Type: domain.RuleWeekly, Time: mod, Weekly: []int{int(now.Weekday())}},
		}, true

	case ChoiceMonth:
		day := today.AddDate(0, 1, 0)
		t, mod := p.withModifier(id, day, now)
		return Choice{
			ID:               id,
			Label:            "Next Month",
			RepeatLabel:      "Every Month",
			MenuLabel:        "for a month",
			Time:             t,
			TimeString:       dayLabel(day),
			RepeatTime:       p.FormatTime(t, true),
			RepeatTimeString: Ordinal(now.Day()) + " of Month",
			Repeat:           &domain.ScheduleRule{Type: domain.RuleMonthly, Time: mod, Monthly: []int{now.Day()}},
		}, true
	}

	return Choice{}, false
}

// TimeWithModifier resolves the wake instant of a choice, applying the popup
// modifier ("morning", "evening", otherwise the current time of day) to the
// day-granular choices.
func (p *Presenter) TimeWithModifier(id string, now time.Time) (time.Time, bool) {
	c, ok := p.Choice(id, now)
	if !ok {
		return time.Time{}, false
	}
	return c.Time, true
}

func (p *Presenter) withModifier(id string, day, now time.Time) (time.Time, domain.TimeOfDay) {
	var mod domain.TimeOfDay
	switch p.opts.Popup[id] {
	case "morning":
		mod = p.opts.Morning
	case "evening":
		mod = p.opts.Evening
	default:
		mod = domain.At(now.Hour(), now.Minute())
	}
	return at(day, mod), mod
}

// MenuEntry is one context-menu item.
type MenuEntry struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title"`
	Enabled  bool   `json:"enabled"`
}

// MenuParent is the id of the nested menu root.
const MenuParent = "snoozz"

// ContextMenu lays out the configured choices: a single entry when only one
// is selected, otherwise a "Snoozz" parent with one child per choice.
// Unknown ids are skipped.
func (p *Presenter) ContextMenu(ids []string, now time.Time) []MenuEntry {
	choices := make([]Choice, 0, len(ids))
	for _, id := range ids {
		if c, ok := p.Choice(id, now); ok {
			choices = append(choices, c)
		}
	}

	switch len(choices) {
	case 0:
		return nil
	case 1:
		c := choices[0]
		return []MenuEntry{{
			ID:      c.ID,
			Title:   "Snoozz " + strings.ToLower(c.Label),
			Enabled: !c.Disabled,
		}}
	}

	entries := make([]MenuEntry, 0, len(choices)+1)
	entries = append(entries, MenuEntry{ID: MenuParent, Title: "Snoozz", Enabled: true})
	for _, c := range choices {
		entries = append(entries, MenuEntry{
			ID:       c.ID,
			ParentID: MenuParent,
			Title:    c.MenuLabel,
			Enabled:  !c.Disabled,
		})
	}
	return entries
}

func at(day time.Time, t domain.TimeOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

func startsLabel(now, slot time.Time) string {
	if now.Before(slot) {
		return "Starts Today at"
	}
	return "Starts Tom at"
}
