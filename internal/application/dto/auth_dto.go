package dto

import "time"

// RegisterRequest input for account creation.
type RegisterRequest struct {
	DepartmentID string `json:"department_id"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Role         string `json:"role"` // defaults to staff
}

// LoginRequest input for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse public view of a user (no password hash).
type UserResponse struct {
	ID           string    `json:"id"`
	DepartmentID string    `json:"department_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginResponse token plus user.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
