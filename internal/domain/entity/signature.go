package entity

import "time"

// Signature kinds.
const (
	SignatureHandover = "handover"
	SignatureReturn   = "return"
)

// Signature records whether the counterparty confirmed a handover or return.
// A lightweight non-repudiation record, not cryptographic proof. One per
// Movement and per Request transition.
type Signature struct {
	ID         string
	MovementID string
	RequestID  string
	Kind       string
	Confirmed  bool
	PIN        string // optional
	CreatedAt  time.Time
}
