package rules

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
)

// 2026-10-16 is a Friday.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	opts := domain.DefaultOptions()

	tests := []struct {
		name string
		rule domain.ScheduleRule
		now  time.Time
		want time.Time
	}{
		{
			name: "daily before time stays today",
			rule: domain.ScheduleRule{Type: domain.RuleDaily, Time: domain.At(9, 0)},
			now:  at(16, 8, 0),
			want: at(16, 9, 0),
		},
		{
			name: "daily after time rolls to tomorrow",
			rule: domain.ScheduleRule{Type: domain.RuleDaily, Time: domain.At(9, 0)},
			now:  at(16, 9, 30),
			want: at(17, 9, 0),
		},
		{
			name: "daily exactly at time rolls to tomorrow",
			rule: domain.ScheduleRule{Type: domain.RuleDaily, Time: domain.At(9, 0)},
			now:  at(16, 9, 0),
			want: at(17, 9, 0),
		},
		{
			name: "hourly before minute",
			rule: domain.ScheduleRule{Type: domain.RuleHourly, Time: domain.At(0, 30)},
			now:  at(16, 10, 15),
			want: at(16, 10, 30),
		},
		{
			name: "hourly past minute",
			rule: domain.ScheduleRule{Type: domain.RuleHourly, Time: domain.At(0, 30)},
			now:  at(16, 10, 45),
			want: at(16, 11, 30),
		},
		{
			name: "hourly at end of day",
			rule: domain.ScheduleRule{Type: domain.RuleHourly, Time: domain.At(0, 0)},
			now:  at(16, 23, 10),
			want: at(17, 0, 0),
		},
		{
			name: "daily morning reads defaults",
			rule: domain.ScheduleRule{Type: domain.RuleDailyMorning, Time: domain.At(3, 0)},
			now:  at(16, 10, 0),
			want: at(17, 9, 0),
		},
		{
			name: "daily evening reads defaults",
			rule: domain.ScheduleRule{Type: domain.RuleDailyEvening},
			now:  at(16, 10, 0),
			want: at(16, 18, 0),
		},
		{
			name: "weekends defaults to saturday",
			rule: domain.ScheduleRule{Type: domain.RuleWeekends, Time: domain.At(9, 0)},
			now:  at(16, 10, 0),
			want: at(17, 9, 0),
		},
		{
			name: "weekends on saturday after slot goes to next week",
			rule: domain.ScheduleRule{Type: domain.RuleWeekends, Time: domain.At(9, 0)},
			now:  at(17, 10, 0),
			want: at(24, 9, 0),
		},
		{
			name: "mondays",
			rule: domain.ScheduleRule{Type: domain.RuleMondays, Time: domain.At(9, 0)},
			now:  at(16, 10, 0),
			want: at(19, 9, 0),
		},
		{
			name: "weekly passed this week",
			rule: domain.ScheduleRule{Type: domain.RuleWeekly, Time: domain.At(9, 0), Weekly: []int{3}},
			now:  at(16, 10, 0),
			want: at(21, 9, 0),
		},
		{
			name: "weekly later today",
			rule: domain.ScheduleRule{Type: domain.RuleWeekly, Time: domain.At(9, 0), Weekly: []int{5}},
			now:  at(16, 8, 0),
			want: at(16, 9, 0),
		},
		{
			name: "custom weekdays picks earliest",
			rule: domain.ScheduleRule{Type: domain.RuleCustom, Time: domain.At(12, 0), Weekly: []int{1, 6, 0}},
			now:  at(16, 10, 0),
			want: at(17, 12, 0),
		},
		{
			name: "monthly next month",
			rule: domain.ScheduleRule{Type: domain.RuleMonthly, Time: domain.At(9, 0), Monthly: []int{1, 15}},
			now:  at(16, 10, 0),
			want: time.Date(2026, time.November, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "monthly later today",
			rule: domain.ScheduleRule{Type: domain.RuleMonthly, Time: domain.At(9, 0), Monthly: []int{16}},
			now:  at(16, 8, 0),
			want: at(16, 9, 0),
		},
		{
			name: "monthly skips months without the day",
			rule: domain.ScheduleRule{Type: domain.RuleMonthly, Time: domain.At(9, 0), Monthly: []int{31}},
			now:  at(31, 10, 0),
			want: time.Date(2026, time.December, 31, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "monthly day missing from next month",
			rule: domain.ScheduleRule{Type: domain.RuleMonthly, Time: domain.At(9, 0), Monthly: []int{31}},
			now:  time.Date(2026, time.March, 31, 10, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.May, 31, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "monthly crosses year",
			rule: domain.ScheduleRule{Type: domain.RuleMonthly, Time: domain.At(9, 0), Monthly: []int{5}},
			now:  time.Date(2026, time.December, 20, 9, 0, 0, 0, time.UTC),
			want: time.Date(2027, time.January, 5, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.rule, tt.now, opts)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceStartup(t *testing.T) {
	now := at(16, 10, 0)
	got, err := NextOccurrence(domain.ScheduleRule{Type: domain.RuleStartup}, now, domain.DefaultOptions())
	if err != nil {
		t.Fatalf("NextOccurrence() error = %v", err)
	}
	if want := now.AddDate(20, 0, 0); !got.Equal(want) {
		t.Errorf("NextOccurrence() = %v, want %v", got, want)
	}
}

func TestNextOccurrenceFollowsMorningSetting(t *testing.T) {
	rule := domain.ScheduleRule{Type: domain.RuleDailyMorning}
	now := at(16, 6, 0)

	opts := domain.DefaultOptions()
	first, _ := NextOccurrence(rule, now, opts)

	opts.Morning = domain.At(7, 30)
	second, _ := NextOccurrence(rule, now, opts)

	if !first.Equal(at(16, 9, 0)) {
		t.Errorf("with default morning got %v", first)
	}
	if !second.Equal(at(16, 7, 30)) {
		t.Errorf("with 7:30 morning got %v", second)
	}
}

func TestNextOccurrenceWeekStart(t *testing.T) {
	opts := domain.DefaultOptions()
	opts.WeekStart = 1
	rule := domain.ScheduleRule{Type: domain.RuleWeekly, Time: domain.At(9, 0), Weekly: []int{0}}

	// Sunday is the last day of a Monday-based week.
	got, err := NextOccurrence(rule, at(16, 10, 0), opts)
	if err != nil {
		t.Fatalf("NextOccurrence() error = %v", err)
	}
	if want := at(18, 9, 0); !got.Equal(want) {
		t.Errorf("NextOccurrence() = %v, want %v", got, want)
	}
}

func TestNextOccurrenceInvalid(t *testing.T) {
	tests := []struct {
		name string
		rule domain.ScheduleRule
	}{
		{"unknown type", domain.ScheduleRule{Type: "fortnightly"}},
		{"weekly without days", domain.ScheduleRule{Type: domain.RuleWeekly, Time: domain.At(9, 0)}},
		{"monthly without days", domain.ScheduleRule{Type: domain.RuleMonthly, Time: domain.At(9, 0)}},
		{"weekday out of range", domain.ScheduleRule{Type: domain.RuleCustom, Weekly: []int{7}}},
		{"day of month out of range", domain.ScheduleRule{Type: domain.RuleMonthly, Monthly: []int{32}}},
		{"hour out of range", domain.ScheduleRule{Type: domain.RuleDaily, Time: domain.At(25, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NextOccurrence(tt.rule, at(16, 10, 0), domain.DefaultOptions())
			if !errors.Is(err, domain.ErrInvalidScheduleRule) {
				t.Errorf("NextOccurrence() error = %v, want ErrInvalidScheduleRule", err)
			}
		})
	}
}

func TestNextOccurrenceStrictlyFuture(t *testing.T) {
	opts := domain.DefaultOptions()
	rules := []domain.ScheduleRule{
		{Type: domain.RuleHourly, Time: domain.At(0, 30)},
		{Type: domain.RuleDaily, Time: domain.At(9, 0)},
		{Type: domain.RuleDailyMorning},
		{Type: domain.RuleDailyEvening},
		{Type: domain.RuleWeekends, Time: domain.At(10, 0)},
		{Type: domain.RuleMondays, Time: domain.At(8, 15)},
		{Type: domain.RuleWeekly, Time: domain.At(17, 45), Weekly: []int{2, 4}},
		{Type: domain.RuleMonthly, Time: domain.At(9, 0), Monthly: []int{1, 29, 31}},
		{Type: domain.RuleCustom, Time: domain.At(6, 0), Monthly: []int{10}},
	}

	start := time.Date(2026, time.January, 25, 0, 0, 0, 0, time.UTC)
	for _, rule := range rules {
		for now := start; now.Before(start.AddDate(0, 2, 0)); now = now.Add(37*time.Minute + 13*time.Second) {
			got, err := NextOccurrence(rule, now, opts)
			if err != nil {
				t.Fatalf("%s at %v: error = %v", rule.Type, now, err)
			}
			if !got.After(now) {
				t.Fatalf("%s at %v: got %v, not strictly after now", rule.Type, now, got)
			}
		}
	}
}

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return loc
}

// On 1 November 2026 New York clocks fall back from 02:00 EDT to 01:00 EST,
// so 01:00-01:59 happens twice: 05:00-05:59 UTC (EDT) and 06:00-06:59 UTC (EST).
func TestNextOccurrenceFallBack(t *testing.T) {
	ny := newYork(t)
	opts := domain.DefaultOptions()
	utc := func(month time.Month, day, hour, minute int) time.Time {
		return time.Date(2026, month, day, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		rule domain.ScheduleRule
		now  time.Time
		want time.Time
	}{
		{
			name: "hourly in the repeated hour",
			rule: domain.ScheduleRule{Type: domain.RuleHourly, Time: domain.At(0, 30)},
			now:  utc(time.November, 1, 6, 20), // 01:20 EST
			want: utc(time.November, 1, 6, 30), // 01:30 EST
		},
		{
			name: "hourly past the first 01:30",
			rule: domain.ScheduleRule{Type: domain.RuleHourly, Time: domain.At(0, 30)},
			now:  utc(time.November, 1, 5, 40), // 01:40 EDT
			want: utc(time.November, 1, 6, 30), // 01:30 EST
		},
		{
			name: "daily slot already taken in the first pass",
			rule: domain.ScheduleRule{Type: domain.RuleDaily, Time: domain.At(1, 30)},
			now:  utc(time.November, 1, 6, 20), // 01:20 EST
			want: utc(time.November, 2, 6, 30), // tomorrow 01:30 EST
		},
		{
			name: "weekly on the fall back sunday",
			rule: domain.ScheduleRule{Type: domain.RuleWeekly, Time: domain.At(1, 30), Weekly: []int{0}},
			now:  utc(time.November, 1, 6, 20),
			want: utc(time.November, 8, 6, 30),
		},
		{
			name: "monthly on the fall back day",
			rule: domain.ScheduleRule{Type: domain.RuleMonthly, Time: domain.At(1, 30), Monthly: []int{1}},
			now:  utc(time.November, 1, 6, 20),
			want: utc(time.December, 1, 6, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.rule, tt.now.In(ny), opts)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want.In(ny))
			}
		})
	}
}

func TestNextOccurrenceStrictlyFutureAcrossDST(t *testing.T) {
	ny := newYork(t)
	opts := domain.DefaultOptions()
	rules := []domain.ScheduleRule{
		{Type: domain.RuleHourly, Time: domain.At(0, 30)},
		{Type: domain.RuleDaily, Time: domain.At(1, 30)},
		{Type: domain.RuleDaily, Time: domain.At(2, 30)},
		{Type: domain.RuleWeekly, Time: domain.At(1, 30), Weekly: []int{0}},
		{Type: domain.RuleMonthly, Time: domain.At(2, 30), Monthly: []int{1, 8}},
	}
	// Spring forward on 8 March, fall back on 1 November
	windows := []time.Time{
		time.Date(2026, time.March, 7, 12, 0, 0, 0, ny),
		time.Date(2026, time.October, 31, 12, 0, 0, 0, ny),
	}

	for _, rule := range rules {
		for _, start := range windows {
			for now := start; now.Before(start.Add(48 * time.Hour)); now = now.Add(7 * time.Minute) {
				got, err := NextOccurrence(rule, now, opts)
				if err != nil {
					t.Fatalf("%s at %v: error = %v", rule.Type, now, err)
				}
				if !got.After(now) {
					t.Fatalf("%s at %v: got %v, not strictly after now", rule.Type, now, got)
				}
			}
		}
	}
}

func TestNextOccurrencePeriodic(t *testing.T) {
	opts := domain.DefaultOptions()
	tests := []struct {
		name   string
		rule   domain.ScheduleRule
		period func(time.Time) time.Time
	}{
		{
			name:   "daily",
			rule:   domain.ScheduleRule{Type: domain.RuleDaily, Time: domain.At(9, 0)},
			period: func(t time.Time) time.Time { return t.AddDate(0, 0, 1) },
		},
		{
			name:   "weekly",
			rule:   domain.ScheduleRule{Type: domain.RuleWeekly, Time: domain.At(9, 0), Weekly: []int{2}},
			period: func(t time.Time) time.Time { return t.AddDate(0, 0, 7) },
		},
		{
			name:   "monthly",
			rule:   domain.ScheduleRule{Type: domain.RuleMonthly, Time: domain.At(9, 0), Monthly: []int{12}},
			period: func(t time.Time) time.Time { return t.AddDate(0, 1, 0) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, err := NextOccurrence(tt.rule, at(16, 10, 0), opts)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			for i := 0; i < 24; i++ {
				next, err := NextOccurrence(tt.rule, prev.Add(time.Second), opts)
				if err != nil {
					t.Fatalf("NextOccurrence() error = %v", err)
				}
				if want := tt.period(prev); !next.Equal(want) {
					t.Fatalf("step %d: got %v, want %v", i, next, want)
				}
				prev = next
			}
		})
	}
}
