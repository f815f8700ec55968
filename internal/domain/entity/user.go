package entity

import "time"

// Roles.
const (
	RoleAdmin   = "admin"   // manages every department
	RoleManager = "manager" // manages own department
	RoleStaff   = "staff"   // can submit and receive equipment
)

// User is an account able to authenticate and act on the system.
type User struct {
	ID           string
	DepartmentID string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         string
	Status       string // active | disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
