package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidScheduleRule marks an unknown rule type or a rule whose candidate set is empty.
	ErrInvalidScheduleRule = errors.New("invalid schedule rule")
	// ErrInvalidTarget marks a snooze request for a disallowed URL or a time already past.
	ErrInvalidTarget = errors.New("invalid snooze target")
	// ErrDeliveryFailure marks a tab/window host call that was rejected.
	ErrDeliveryFailure = errors.New("delivery failure")
	// ErrStorageFailure marks a persistence call that failed.
	ErrStorageFailure = errors.New("storage failure")
	// ErrNotFound is returned when an item id is unknown.
	ErrNotFound = errors.New("not found")
)

// RuleError describes why a schedule rule could not be evaluated.
type RuleError struct {
	Type   RuleType
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid schedule rule %q: %s", e.Type, e.Reason)
}

func (e *RuleError) Unwrap() error { return ErrInvalidScheduleRule }

// TargetError carries the user-facing reason a snooze request was refused.
type TargetError struct {
	Reason string
}

func (e *TargetError) Error() string { return "invalid snooze target: " + e.Reason }

func (e *TargetError) Unwrap() error { return ErrInvalidTarget }

// Refusal messages surfaced in blocking notifications.
const (
	ReasonInvalidLink = "The link you are trying to snooze is invalid."
	ReasonInvalidTime = "The time you have selected is invalid."
)
