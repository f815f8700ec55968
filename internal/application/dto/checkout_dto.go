package dto

import "time"

// CheckoutLine one line of a group checkout.
type CheckoutLine struct {
	ItemTypeID string `json:"item_type_id"`
	Quantity   int    `json:"quantity"` // serial items: number of units wanted, one request row each
}

// GroupCheckoutInput a multi-item checkout submitted as one action. All lines
// share the recipient snapshot and scheduling.
type GroupCheckoutInput struct {
	Lines             []CheckoutLine `json:"lines"`
	Urgency           string         `json:"urgency"`
	RecipientName     string         `json:"recipient_name"`
	RecipientPhone    string         `json:"recipient_phone"`
	ScheduledPickupAt *time.Time     `json:"scheduled_pickup_at,omitempty"`
	ScheduledReturnAt *time.Time     `json:"scheduled_return_at,omitempty"`
}

// CheckoutRowError a per-row failure after group validation passed (late
// stock race). Earlier created rows stand.
type CheckoutRowError struct {
	ItemTypeID string `json:"item_type_id"`
	Message    string `json:"message"`
}

// GroupCheckoutResult created rows plus any per-row errors.
type GroupCheckoutResult struct {
	GroupID  string             `json:"group_id"`
	Requests []RequestResponse  `json:"requests"`
	Errors   []CheckoutRowError `json:"errors,omitempty"`
}
