package entity

import "time"

// Tracking modes for an ItemType.
const (
	TrackingQuantity = "quantity" // aggregate counters only
	TrackingSerial   = "serial"   // individually serialized units
)

// ItemType is a catalog entry for a kind of equipment. In quantity mode the
// counters must always satisfy Available + InUse == Total; in serial mode the
// counters are unused and stock lives in ItemUnit rows.
type ItemType struct {
	ID            string
	DepartmentID  string
	Name          string
	TrackingMode  string // quantity | serial
	Total         int
	Available     int
	InUse         int
	MinimumAlert  int  // alert when Available drops below this; 0 disables
	DoubleApprove bool // requires two distinct approvers
	MaxLoanDays   int  // 0 = unlimited
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsSerial reports whether stock is tracked as serialized units.
func (t *ItemType) IsSerial() bool { return t.TrackingMode == TrackingSerial }

// BelowMinimum reports whether available stock has fallen under the alert threshold.
func (t *ItemType) BelowMinimum() bool {
	return t.MinimumAlert > 0 && t.Available < t.MinimumAlert
}
