// Package rules evaluates recurrence rules into absolute wake instants.
package rules

import (
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
)

// StartupYears is how far ahead a startup item is parked; only a launch event wakes it.
const StartupYears = 20

// maxMonthLookahead bounds the scan for day-of-month rules whose days do not exist in every month.
const maxMonthLookahead = 12

// NextOccurrence returns the first instant strictly after now matching rule.
// Calendar math happens in now's location. Morning and evening defaults are
// read from opts, so changing them moves every future occurrence.
//
// Day-of-month lists are searched up to a year ahead, so a day missing from
// the next two months (31 after March 31) yields the next month that has it
// instead of a RuleError. A RuleError is only returned for invalid rules or a
// list no month within that year contains.
func NextOccurrence(rule domain.ScheduleRule, now time.Time, opts domain.Options) (time.Time, error) {
	if err := rule.Validate(); err != nil {
		return time.Time{}, err
	}

	switch rule.Type {
	case domain.RuleStartup:
		return StartupTime(now), nil
	case domain.RuleHourly:
		return nextHourly(now, rule.Time.Minute), nil
	case domain.RuleDaily:
		return nextDaily(now, rule.Time), nil
	case domain.RuleDailyMorning:
		return nextDaily(now, opts.Morning), nil
	case domain.RuleDailyEvening:
		return nextDaily(now, opts.Evening), nil
	}

	weekdays := rule.Weekly
	if len(weekdays) == 0 && len(rule.Monthly) == 0 {
		switch rule.Type {
		case domain.RuleWeekends:
			weekdays = []int{int(time.Saturday)}
		case domain.RuleMondays:
			weekdays = []int{int(time.Monday)}
		}
	}

	var best time.Time
	if len(weekdays) > 0 {
		best = earliest(best, nextWeekly(now, weekdays, rule.Time, opts.WeekStart))
	}
	if len(rule.Monthly) > 0 {
		best = earliest(best, nextMonthly(now, rule.Monthly, rule.Time))
	}
	if best.IsZero() {
		return time.Time{}, &domain.RuleError{Type: rule.Type, Reason: "no candidate after now"}
	}
	return best, nil
}

// StartupTime is the far-future sentinel used for items waiting on a browser launch.
func StartupTime(now time.Time) time.Time {
	return now.AddDate(StartupYears, 0, 0)
}

// nextHourly steps in absolute hours from the slot in now's wall-clock hour,
// so a repeated hour after clocks fall back still yields a later instant.
func nextHourly(now time.Time, minute int) time.Time {
	c := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, now.Location())
	for !c.After(now) {
		c = c.Add(time.Hour)
	}
	return c
}

// nextDaily moves to the following day whenever the wall-clock slot resolves
// to an instant not after now, which also covers the repeated hour when
// clocks fall back.
func nextDaily(now time.Time, at domain.TimeOfDay) time.Time {
	c := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
	for day := 1; !c.After(now); day++ {
		c = time.Date(now.Year(), now.Month(), now.Day()+day, at.Hour, at.Minute, 0, 0, now.Location())
	}
	return c
}

// nextWeekly considers the configured weekdays in this week and next week,
// so a slot that already passed this week rolls over.
func nextWeekly(now time.Time, weekdays []int, at domain.TimeOfDay, weekStart int) time.Time {
	start := StartOfWeek(now, weekStart)
	var best time.Time
	for week := 0; week < 2; week++ {
		for _, wd := range weekdays {
			offset := (wd-weekStart+7)%7 + 7*week
			c := time.Date(start.Year(), start.Month(), start.Day()+offset, at.Hour, at.Minute, 0, 0, now.Location())
			if c.After(now) {
				best = earliest(best, c)
			}
		}
	}
	return best
}

// nextMonthly considers the configured days in this month and the next ones,
// skipping days a month does not have.
func nextMonthly(now time.Time, days []int, at domain.TimeOfDay) time.Time {
	for k := 0; k <= maxMonthLookahead; k++ {
		first := time.Date(now.Year(), now.Month()+time.Month(k), 1, 0, 0, 0, 0, now.Location())
		dim := DaysInMonth(first)
		var best time.Time
		for _, d := range days {
			if d > dim {
				continue
			}
			c := time.Date(first.Year(), first.Month(), d, at.Hour, at.Minute, 0, 0, now.Location())
			if c.After(now) {
				best = earliest(best, c)
			}
		}
		if !best.IsZero() {
			return best
		}
	}
	return time.Time{}
}

// StartOfWeek returns midnight of the first day of t's week.
func StartOfWeek(t time.Time, weekStart int) time.Time {
	back := (int(t.Weekday()) - weekStart + 7) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-back, 0, 0, 0, 0, t.Location())
}

// StartOfDay returns midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func earliest(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() || a.Before(b) {
		return a
	}
	return b
}
