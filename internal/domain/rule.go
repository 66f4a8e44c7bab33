package domain

import (
	"encoding/json"
	"fmt"
)

// RuleType tags the recurrence family of a ScheduleRule.
type RuleType string

const (
	RuleStartup      RuleType = "startup"
	RuleHourly       RuleType = "hourly"
	RuleDaily        RuleType = "daily"
	RuleDailyMorning RuleType = "daily_morning"
	RuleDailyEvening RuleType = "daily_evening"
	RuleWeekends     RuleType = "weekends"
	RuleMondays      RuleType = "mondays"
	RuleWeekly       RuleType = "weekly"
	RuleMonthly      RuleType = "monthly"
	RuleCustom       RuleType = "custom"
)

// RuleTypes lists every recognised rule type.
var RuleTypes = []RuleType{
	RuleStartup, RuleHourly, RuleDaily, RuleDailyMorning, RuleDailyEvening,
	RuleWeekends, RuleMondays, RuleWeekly, RuleMonthly, RuleCustom,
}

// TimeOfDay is an [hour, minute] pair.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// At builds a TimeOfDay.
func At(hour, minute int) TimeOfDay { return TimeOfDay{Hour: hour, Minute: minute} }

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{t.Hour, t.Minute})
}

// UnmarshalJSON accepts the [hour, minute] pair and the older bare-hour number.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var hour int
	if err := json.Unmarshal(data, &hour); err == nil {
		*t = TimeOfDay{Hour: hour}
		return nil
	}
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("time of day must be [hour, minute]: %w", err)
	}
	switch len(pair) {
	case 0:
		*t = TimeOfDay{}
	case 1:
		*t = TimeOfDay{Hour: pair[0]}
	default:
		*t = TimeOfDay{Hour: pair[0], Minute: pair[1]}
	}
	return nil
}

// ScheduleRule describes how a repeating item recurs.
// Time is ignored by the morning/evening variants, which read the global defaults instead.
// Weekly holds weekday numbers (0 = Sunday); Monthly holds day-of-month numbers.
type ScheduleRule struct {
	Type    RuleType  `json:"type"`
	Time    TimeOfDay `json:"time"`
	Weekly  []int     `json:"weekly,omitempty"`
	Monthly []int     `json:"monthly,omitempty"`
}

// Validate checks the static shape of the rule. It does not evaluate it.
func (r ScheduleRule) Validate() error {
	switch r.Type {
	case RuleStartup, RuleDailyMorning, RuleDailyEvening:
		return nil
	case RuleHourly:
		if r.Time.Minute < 0 || r.Time.Minute > 59 {
			return &RuleError{Type: r.Type, Reason: "minute out of range"}
		}
		return nil
	case RuleDaily, RuleWeekends, RuleMondays:
		if !r.Time.Valid() {
			return &RuleError{Type: r.Type, Reason: "time out of range"}
		}
		return validateDays(r)
	case RuleWeekly, RuleMonthly, RuleCustom:
		if !r.Time.Valid() {
			return &RuleError{Type: r.Type, Reason: "time out of range"}
		}
		if len(r.Weekly) == 0 && len(r.Monthly) == 0 {
			return &RuleError{Type: r.Type, Reason: "no weekdays or days of month"}
		}
		return validateDays(r)
	default:
		return &RuleError{Type: r.Type, Reason: "unknown type"}
	}
}

func validateDays(r ScheduleRule) error {
	for _, d := range r.Weekly {
		if d < 0 || d > 6 {
			return &RuleError{Type: r.Type, Reason: fmt.Sprintf("weekday %d out of range", d)}
		}
	}
	for _, d := range r.Monthly {
		if d < 1 || d > 31 {
			return &RuleError{Type: r.Type, Reason: fmt.Sprintf("day of month %d out of range", d)}
		}
	}
	return nil
}
