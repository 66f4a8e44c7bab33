package domain

import (
	"encoding/json"
	"fmt"
)

// Storage keys of the two persisted collections.
const (
	KeySnoozed = "snoozed"
	KeyOptions = "snoozedOptions"
)

// Options is the persisted preferences object.
type Options struct {
	Morning       TimeOfDay         `json:"morning"`
	Evening       TimeOfDay         `json:"evening"`
	HourFormat    int               `json:"hourFormat"`    // 12 or 24
	Notifications string            `json:"notifications"` // "on" | "off"
	History       int               `json:"history"`       // retention in days, <= 0 disables cleanup
	Badge         string            `json:"badge"`         // "today" | "all" | "none"
	Polling       string            `json:"polling"`       // "on" | "off"
	WeekStart     int               `json:"weekStart"`     // 0 = Sunday
	Popup         map[string]string `json:"popup"`         // choice -> "morning" | "evening" | "now"
	ContextMenu   []string          `json:"contextMenu"`
}

// DefaultOptions returns the factory preferences.
func DefaultOptions() Options {
	return Options{
		Morning:       At(9, 0),
		Evening:       At(18, 0),
		HourFormat:    12,
		Notifications: "on",
		History:       30,
		Badge:         "today",
		Polling:       "on",
		WeekStart:     0,
		Popup: map[string]string{
			"weekend": "morning",
			"monday":  "morning",
			"week":    "morning",
			"month":   "morning",
		},
		ContextMenu: []string{"startup", "in-an-hour", "today-evening", "tom-morning", "weekend"},
	}
}

// DecodeOptions overlays stored JSON on top of base; absent fields keep base values.
func DecodeOptions(base Options, data []byte) (Options, error) {
	opts := base
	opts.Popup = make(map[string]string, len(base.Popup))
	for k, v := range base.Popup {
		opts.Popup[k] = v
	}
	opts.ContextMenu = append([]string(nil), base.ContextMenu...)
	if len(data) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return base, fmt.Errorf("failed to decode options: %w", err)
	}
	if opts.HourFormat != 24 {
		opts.HourFormat = 12
	}
	if opts.WeekStart < 0 || opts.WeekStart > 6 {
		opts.WeekStart = 0
	}
	return opts, nil
}

// NotificationsOff reports whether non-forced notifications are suppressed.
func (o Options) NotificationsOff() bool { return o.Notifications == "off" }
