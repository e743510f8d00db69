package domain

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleClient   Role = "client"
	RoleShowroom Role = "showroom"
	RoleAdmin    Role = "admin"
)

// User is the read-only account view used to address renters and showrooms.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
	Role  Role      `json:"role"`
}

// Principal identifies the caller of a lifecycle operation.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsAdmin() bool    { return p.Role == RoleAdmin }
func (p Principal) IsShowroom() bool { return p.Role == RoleShowroom }
