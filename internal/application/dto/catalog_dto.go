package dto

// CreateItemTypeRequest input for a new catalog entry.
type CreateItemTypeRequest struct {
	DepartmentID  string `json:"department_id"`
	Name          string `json:"name"`
	TrackingMode  string `json:"tracking_mode"` // quantity | serial
	MinimumAlert  int    `json:"minimum_alert"`
	DoubleApprove bool   `json:"double_approve"`
	MaxLoanDays   int    `json:"max_loan_days"`
}

// UpdateItemTypeRequest mutable policy attributes of a catalog entry.
// Tracking mode and counters are not editable here.
type UpdateItemTypeRequest struct {
	Name          string `json:"name"`
	MinimumAlert  int    `json:"minimum_alert"`
	DoubleApprove bool   `json:"double_approve"`
	MaxLoanDays   int    `json:"max_loan_days"`
}

// IntakeRequest adds stock: Quantity for quantity mode, SerialNumber for
// serial mode (exactly one applies).
type IntakeRequest struct {
	Quantity     int    `json:"quantity"`
	SerialNumber string `json:"serial_number"`
}

// AdjustTotalRequest bounded total adjustment for a quantity item.
type AdjustTotalRequest struct {
	NewTotal int `json:"new_total"`
}

// MaintenanceRequest toggles a unit in or out of maintenance.
type MaintenanceRequest struct {
	Enable bool `json:"enable"`
}

// CreateDepartmentRequest input for a new department.
type CreateDepartmentRequest struct {
	Name                string `json:"name"`
	AutoApproveRequests bool   `json:"auto_approve_requests"`
	AllowImmediate      bool   `json:"allow_immediate"`
	AllowScheduled      bool   `json:"allow_scheduled"`
}
