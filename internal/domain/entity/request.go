package entity

import "time"

// Urgency of a request.
const (
	UrgencyImmediate = "immediate"
	UrgencyScheduled = "scheduled"
)

// Request is one requested line: one item type and either a quantity (quantity
// mode) or a single assigned unit (serial mode, Quantity stored as 1). Rows are
// never deleted, only moved to a terminal status by the state machine.
//
// GroupID links lines submitted together in one checkout; it is a grouping key
// only, no row represents the group itself.
type Request struct {
	ID           string
	GroupID      *string
	RequesterID  string
	DepartmentID string
	ItemTypeID   string
	UnitID       *string
	Quantity     int
	Status       string // see lifecycle package
	Urgency      string

	// Recipient identity snapshot, captured at submission and kept even if the
	// requester record later changes.
	RecipientName  string
	RecipientPhone string

	ScheduledPickupAt *time.Time
	ScheduledReturnAt *time.Time

	// One approver per slot; FirstApprovedBy is used only by double-approval
	// item types, where the request stays submitted until a second, distinct
	// actor approves.
	FirstApprovedBy *string
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectedBy      *string
	RejectedAt      *time.Time
	RejectReason    string
	HandedOverBy    *string
	HandedOverAt    *time.Time
	ReturnedBy      *string
	ReturnedAt      *time.Time
	ClosedBy        *string
	ClosedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
