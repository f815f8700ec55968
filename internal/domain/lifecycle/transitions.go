// Package lifecycle holds the request status enumeration and its transition
// table. Legality of a transition is a single table lookup; the use-case layer
// adds guards and ledger side effects on top.
package lifecycle

import (
	"time"

	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
)

// Persisted request statuses. Overdue is intentionally absent: it is derived
// at read time from the scheduled return and never stored.
const (
	StatusSubmitted      = "submitted"
	StatusApproved       = "approved"
	StatusReadyForPickup = "ready_for_pickup"
	StatusHandedOver     = "handed_over"
	StatusReturned       = "returned"
	StatusClosed         = "closed"
	StatusRejected       = "rejected"
)

// StatusOverdue is the derived, read-only status reported for a handed-over
// request whose scheduled return time has passed.
const StatusOverdue = "overdue"

// transitions maps each status to the set of statuses reachable from it.
// Terminal statuses (rejected, closed) have no entry.
var transitions = map[string][]string{
	StatusSubmitted:      {StatusApproved, StatusRejected},
	StatusApproved:       {StatusReadyForPickup, StatusHandedOver},
	StatusReadyForPickup: {StatusHandedOver},
	StatusHandedOver:     {StatusReturned, StatusClosed},
	StatusReturned:       {StatusClosed},
}

// CanTransition reports whether from → to is a legal transition.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status accepts no further transitions.
func IsTerminal(status string) bool {
	_, ok := transitions[status]
	return !ok && Valid(status)
}

// Valid reports whether s is a persisted status.
func Valid(s string) bool {
	switch s {
	case StatusSubmitted, StatusApproved, StatusReadyForPickup,
		StatusHandedOver, StatusReturned, StatusClosed, StatusRejected:
		return true
	}
	return false
}

// IsOverdue reports whether a handed-over request has passed its scheduled
// return without being returned. Pure derivation, no ledger effect: the item
// stays in use until an actual return.
func IsOverdue(r *entity.Request, now time.Time) bool {
	return r.Status == StatusHandedOver &&
		r.ScheduledReturnAt != nil &&
		r.ScheduledReturnAt.Before(now)
}

// EffectiveStatus is the status to report to callers: the stored status, or
// overdue when the derivation applies.
func EffectiveStatus(r *entity.Request, now time.Time) string {
	if IsOverdue(r, now) {
		return StatusOverdue
	}
	return r.Status
}
