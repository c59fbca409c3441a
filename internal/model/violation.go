package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ViolationSource string

const (
	ViolationSourceManual ViolationSource = "MANUAL"
	ViolationSourceKafka  ViolationSource = "KAFKA"
)

// ViolationRecord is a single disciplinary event. Records are append-only.
type ViolationRecord struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	EmployeeID   string          `gorm:"type:varchar(64);not null" json:"employee_id"`
	EmployeeName string          `gorm:"type:varchar(255);not null" json:"employee_name"`
	DepartmentID *uuid.UUID      `gorm:"type:uuid" json:"department_id"`
	Type         string          `gorm:"type:varchar(64);not null" json:"type"`
	Reason       string          `gorm:"type:text" json:"reason"`
	OccurredAt   time.Time       `gorm:"not null" json:"occurred_at"`
	Source       ViolationSource `gorm:"type:violation_source;not null;default:'MANUAL'" json:"source"`
	CreatedBy    *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (ViolationRecord) TableName() string {
	return "violation_records"
}

func (r *ViolationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Department struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ParentID *uuid.UUID `gorm:"type:uuid" json:"parent_id"`
	Name     string     `gorm:"type:varchar(255);not null" json:"name"`
	IsActive bool       `gorm:"not null;default:true" json:"is_active"`
}

func (Department) TableName() string {
	return "departments"
}
