package defaults

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/presenter"
)

var popupModes = []string{"morning", "evening", "now"}

var popupChoices = []string{
	presenter.ChoiceWeekend, presenter.ChoiceMonday, presenter.ChoiceWeek, presenter.ChoiceMonth,
}

// Mapper turns a seed file into domain options.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapOptions overlays f on base. Any invalid value fails the whole file.
func (m *Mapper) MapOptions(f File, base domain.Options) (domain.Options, error) {
	opts, _ := domain.DecodeOptions(base, nil)

	if f.Morning != "" {
		t, err := parseTimeOfDay(f.Morning)
		if err != nil {
			return base, fmt.Errorf("morning: %w", err)
		}
		opts.Morning = t
	}
	if f.Evening != "" {
		t, err := parseTimeOfDay(f.Evening)
		if err != nil {
			return base, fmt.Errorf("evening: %w", err)
		}
		opts.Evening = t
	}

	switch f.HourFormat {
	case 0:
	case 12, 24:
		opts.HourFormat = f.HourFormat
	default:
		return base, fmt.Errorf("hourFormat must be 12 or 24, got %d", f.HourFormat)
	}

	if err := setEnum(&opts.Notifications, f.Notifications, "notifications", "on", "off"); err != nil {
		return base, err
	}
	if err := setEnum(&opts.Polling, f.Polling, "polling", "on", "off"); err != nil {
		return base, err
	}
	if err := setEnum(&opts.Badge, f.Badge, "badge", "today", "all", "none"); err != nil {
		return base, err
	}

	if f.History != nil {
		opts.History = *f.History
	}

	if f.WeekStart != "" {
		wd, err := parseWeekday(f.WeekStart)
		if err != nil {
			return base, err
		}
		opts.WeekStart = wd
	}

	for choice, mode := range f.Popup {
		if !slices.Contains(popupChoices, choice) {
			return base, fmt.Errorf("popup: unknown choice %q", choice)
		}
		if !slices.Contains(popupModes, mode) {
			return base, fmt.Errorf("popup %s: unknown mode %q", choice, mode)
		}
		opts.Popup[choice] = mode
	}

	if f.ContextMenu != nil {
		known := presenter.ChoiceIDs()
		menu := make([]string, 0, len(f.ContextMenu))
		for _, id := range f.ContextMenu {
			if !slices.Contains(known, id) {
				return base, fmt.Errorf("contextMenu: unknown choice %q", id)
			}
			if !slices.Contains(menu, id) {
				menu = append(menu, id)
			}
		}
		opts.ContextMenu = menu
	}

	return opts, nil
}

func setEnum(dst *string, value, field string, allowed ...string) error {
	if value == "" {
		return nil
	}
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, "|"), value)
	}
	*dst = value
	return nil
}

// parseTimeOfDay accepts "9", "9:30" and "09:30".
func parseTimeOfDay(s string) (domain.TimeOfDay, error) {
	hour, minute, found := strings.Cut(strings.TrimSpace(s), ":")
	h, err := strconv.Atoi(hour)
	if err != nil {
		return domain.TimeOfDay{}, fmt.Errorf("invalid time %q", s)
	}
	m := 0
	if found {
		if m, err = strconv.Atoi(minute); err != nil {
			return domain.TimeOfDay{}, fmt.Errorf("invalid time %q", s)
		}
	}
	t := domain.At(h, m)
	if !t.Valid() {
		return domain.TimeOfDay{}, fmt.Errorf("time %q out of range", s)
	}
	return t, nil
}

func parseWeekday(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekStart %d out of range", n)
		}
		return n, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return int(d), nil
		}
	}
	return 0, fmt.Errorf("weekStart: unknown weekday %q", s)
}
