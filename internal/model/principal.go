package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleManager  UserRole = "MANAGER"
	UserRoleEmployee UserRole = "EMPLOYEE"
)

type Principal struct {
	UserID       uuid.UUID
	DepartmentID *uuid.UUID
	Role         UserRole
	EmployeeID   *string
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsManager() bool {
	return p.Role == UserRoleManager
}

func (p Principal) IsEmployee() bool {
	return p.Role == UserRoleEmployee
}

// CanRecord reports whether the principal may enter violations manually.
func (p Principal) CanRecord() bool {
	return p.IsAdmin() || p.IsManager()
}
