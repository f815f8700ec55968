package entity

import "time"

// Department is a store section owning item types and users. The policy flags
// are read per department and passed into the engine as a value object.
type Department struct {
	ID        string
	Name      string
	Policy    DepartmentPolicy
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DepartmentPolicy controls how requests for a department are handled.
type DepartmentPolicy struct {
	AutoApproveRequests bool
	AllowImmediate      bool
	AllowScheduled      bool
}
