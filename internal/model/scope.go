package model

import "github.com/google/uuid"

type ScopeType string

const (
	ScopeAll        ScopeType = "ALL"
	ScopeDepartment ScopeType = "DEPARTMENT"
	ScopeSelf       ScopeType = "SELF"
)

type Scope struct {
	Type          ScopeType
	DepartmentIDs []uuid.UUID
	EmployeeID    *string
}

func (s Scope) AllowsEmployee(employeeID string, departmentID *uuid.UUID) bool {
	switch s.Type {
	case ScopeAll:
		return true
	case ScopeSelf:
		return s.EmployeeID != nil && *s.EmployeeID == employeeID
	case ScopeDepartment:
		if departmentID == nil {
			return false
		}
		for _, id := range s.DepartmentIDs {
			if id == *departmentID {
				return true
			}
		}
		return false
	default:
		return false
	}
}
