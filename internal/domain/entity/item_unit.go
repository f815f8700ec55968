package entity

import "time"

// Statuses for an ItemUnit. Closed set; transitions happen only through the
// ledger operations (allocate/release) and the maintenance flag action.
const (
	UnitAvailable   = "available"
	UnitInUse       = "in_use"
	UnitMaintenance = "maintenance"
)

// ItemUnit is one physical serialized instance of a serial-tracked ItemType.
// SerialNumber is unique within the item type. HolderID is set only while in use.
type ItemUnit struct {
	ID           string
	ItemTypeID   string
	SerialNumber string
	Status       string
	HolderID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
