package run

import (
	"fmt"
	"strings"
)

// transitions is the authoritative state machine table. REJECTED has no exits:
// a rejected run is recreated, never revived through a transition.
var transitions = map[Status][]Status{
	StatusDraft:                  {StatusUnderReview, StatusRejected},
	StatusUnderReview:            {StatusPendingFinanceApproval, StatusRejected},
	StatusPendingFinanceApproval: {StatusApproved, StatusRejected},
	StatusApproved:               {StatusLocked},
	StatusLocked:                 {StatusUnlocked},
	StatusUnlocked:               {StatusLocked},
	StatusRejected:               {},
}

// AllowedTargets returns the states reachable from the given state.
func AllowedTargets(from Status) []Status {
	targets := transitions[from]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether from -> to is present in the table.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition validates a requested status change and returns an
// InvalidTransitionError naming the current state, the requested state and
// the allowed set when the table does not permit it.
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{Current: from, Requested: to, Allowed: AllowedTargets(from)}
	}
	return nil
}

// InvalidTransitionError carries enough context for a caller to self-diagnose
// without log access.
type InvalidTransitionError struct {
	Current   Status
	Requested Status
	Allowed   []Status
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	if len(allowed) == 0 {
		return fmt.Sprintf("cannot transition payroll run from %s to %s: %s is terminal", e.Current, e.Requested, e.Current)
	}
	return fmt.Sprintf("cannot transition payroll run from %s to %s: allowed targets are %s",
		e.Current, e.Requested, strings.Join(allowed, ", "))
}

// Statuses lists every state the machine knows, for table-driven checks and
// list filters.
func Statuses() []Status {
	return []Status{
		StatusDraft,
		StatusUnderReview,
		StatusPendingFinanceApproval,
		StatusApproved,
		StatusLocked,
		StatusUnlocked,
		StatusRejected,
	}
}

// EditGuard reports whether run header fields (period, entity, specialist)
// may be edited in the given state. LOCKED blocks edits outright, REJECTED is
// terminal and immutable, and the three review states require a reject first.
func EditGuard(s Status) error {
	switch s {
	case StatusLocked:
		return ErrRunLocked
	case StatusRejected:
		return ErrRunRejected
	case StatusUnderReview, StatusPendingFinanceApproval, StatusApproved:
		return ErrEditRequiresReject
	}
	return nil
}
