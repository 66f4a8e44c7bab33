// Package calendar exports sleeping items as an iCalendar feed.
package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/presenter"
)

const productID = "-//snoozzd//wake schedule//EN"

// ErrEmptyFeed is returned when no item can be exported.
var ErrEmptyFeed = errors.New("nothing to export")

var weekdays = []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Feed renders one VEVENT per pending item. Items waiting for a browser
// launch have no wake instant and are left out.
func Feed(items []*domain.Item, now time.Time, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText("X-WR-CALNAME", "Snoozz")
	cal.Props.SetText("X-WR-TIMEZONE", loc.String())

	for _, it := range items {
		if !it.Schedulable() || it.WakesOnStartup() {
			continue
		}
		event := toEvent(it, now, loc)
		cal.Children = append(cal.Children, event.Component)
	}
	if len(cal.Children) == 0 {
		return nil, ErrEmptyFeed
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func toEvent(it *domain.Item, now time.Time, loc *time.Location) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, it.ID+"@snoozz")
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, it.WakeUpTime.In(loc))
	event.Props.SetText(ical.PropSummary, it.Title)

	urls := it.URLs()
	if len(urls) > 0 {
		p := ical.NewProp(ical.PropURL)
		p.Value = urls[0]
		event.Props.Set(p)
	}

	desc := "Snoozed " + presenter.SnoozedAgo(it.TimeCreated, now)
	if it.Kind != domain.KindTab {
		desc += "\n" + strings.Join(urls, "\n")
	}
	event.Props.SetText(ical.PropDescription, desc)

	if it.Repeat != nil {
		opt, ok := recurrence(*it.Repeat)
		if ok {
			p := ical.NewProp(ical.PropRecurrenceRule)
			p.Value = opt.RRuleString()
			event.Props.Set(p)
		}
	}
	return event
}

// recurrence maps a rule onto RFC 5545. The time of day comes from DTSTART,
// which already holds the rule's next slot. Rules mixing weekdays and days
// of the month have no single RRULE equivalent and are exported as one-offs.
func recurrence(rule domain.ScheduleRule) (*rrule.ROption, bool) {
	if rule.Validate() != nil {
		return nil, false
	}
	switch rule.Type {
	case domain.RuleHourly:
		return &rrule.ROption{Freq: rrule.HOURLY, Byminute: []int{rule.Time.Minute}}, true
	case domain.RuleDaily, domain.RuleDailyMorning, domain.RuleDailyEvening:
		return &rrule.ROption{Freq: rrule.DAILY}, true
	}

	days := rule.Weekly
	if len(days) == 0 && len(rule.Monthly) == 0 {
		switch rule.Type {
		case domain.RuleWeekends:
			days = []int{int(time.Saturday)}
		case domain.RuleMondays:
			days = []int{int(time.Monday)}
		}
	}

	switch {
	case len(days) > 0 && len(rule.Monthly) > 0:
		return nil, false
	case len(days) > 0:
		opt := &rrule.ROption{Freq: rrule.WEEKLY}
		for _, d := range days {
			opt.Byweekday = append(opt.Byweekday, weekdays[d])
		}
		return opt, true
	case len(rule.Monthly) > 0:
		return &rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: append([]int(nil), rule.Monthly...)}, true
	}
	return nil, false
}
