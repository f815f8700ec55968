package dto

import (
	"time"

	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/lifecycle"
)

// SubmitRequestInput input for one request line.
type SubmitRequestInput struct {
	ItemTypeID        string     `json:"item_type_id"`
	Quantity          int        `json:"quantity"` // ignored for serial items (always 1)
	Urgency           string     `json:"urgency"`  // immediate | scheduled
	RecipientName     string     `json:"recipient_name"`
	RecipientPhone    string     `json:"recipient_phone"`
	ScheduledPickupAt *time.Time `json:"scheduled_pickup_at,omitempty"`
	ScheduledReturnAt *time.Time `json:"scheduled_return_at,omitempty"`
}

// RejectInput carries the mandatory rejection reason.
type RejectInput struct {
	Reason string `json:"reason"`
}

// ConfirmInput confirmation details for a handover or return.
type ConfirmInput struct {
	Confirmed bool   `json:"confirmed"`
	PIN       string `json:"pin,omitempty"`
}

// RequestResponse public view of a request line. Status is the effective
// status: a handed-over request past its scheduled return reports "overdue"
// while StoredStatus keeps the persisted value.
type RequestResponse struct {
	ID                string     `json:"id"`
	GroupID           *string    `json:"group_id,omitempty"`
	RequesterID       string     `json:"requester_id"`
	DepartmentID      string     `json:"department_id"`
	ItemTypeID        string     `json:"item_type_id"`
	UnitID            *string    `json:"unit_id,omitempty"`
	Quantity          int        `json:"quantity"`
	Status            string     `json:"status"`
	StoredStatus      string     `json:"stored_status"`
	Urgency           string     `json:"urgency"`
	RecipientName     string     `json:"recipient_name"`
	RecipientPhone    string     `json:"recipient_phone,omitempty"`
	ScheduledPickupAt *time.Time `json:"scheduled_pickup_at,omitempty"`
	ScheduledReturnAt *time.Time `json:"scheduled_return_at,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	HandedOverAt      *time.Time `json:"handed_over_at,omitempty"`
	ReturnedAt        *time.Time `json:"returned_at,omitempty"`
	RejectReason      string     `json:"reject_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ToRequestResponse maps an entity to its public view, deriving overdue at
// read time.
func ToRequestResponse(r *entity.Request, now time.Time) RequestResponse {
	return RequestResponse{
		ID:                r.ID,
		GroupID:           r.GroupID,
		RequesterID:       r.RequesterID,
		DepartmentID:      r.DepartmentID,
		ItemTypeID:        r.ItemTypeID,
		UnitID:            r.UnitID,
		Quantity:          r.Quantity,
		Status:            lifecycle.EffectiveStatus(r, now),
		StoredStatus:      r.Status,
		Urgency:           r.Urgency,
		RecipientName:     r.RecipientName,
		RecipientPhone:    r.RecipientPhone,
		ScheduledPickupAt: r.ScheduledPickupAt,
		ScheduledReturnAt: r.ScheduledReturnAt,
		ApprovedAt:        r.ApprovedAt,
		HandedOverAt:      r.HandedOverAt,
		ReturnedAt:        r.ReturnedAt,
		RejectReason:      r.RejectReason,
		CreatedAt:         r.CreatedAt,
	}
}
