package entity

import "time"

// Movement types.
const (
	MovementIntake     = "intake"     // stock entering the store
	MovementAllocation = "allocation" // handover to a holder
	MovementReturn     = "return"     // stock coming back
)

// Movement is an immutable ledger entry for an inventory-affecting event.
// Append-only: the sum of allocation minus return quantities for a quantity
// item type reconciles with its InUse counter.
type Movement struct {
	ID         string
	Type       string
	ItemTypeID string
	UnitID     *string
	Quantity   int
	SourceRef  string // department or user reference the stock came from
	DestRef    string // department or user reference the stock went to
	ActorID    string
	RequestID  *string // nil for intake movements
	CreatedAt  time.Time
}
