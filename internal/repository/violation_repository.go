package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"discipline-service/internal/model"
)

type ViolationRepository struct {
	db *gorm.DB
}

func NewViolationRepository(db *gorm.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

const maxListLimit = 200

type ViolationFilter struct {
	Scope        model.Scope
	EmployeeID   string
	DepartmentID *uuid.UUID
	Types        []string
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

// RecordSetVersion changes whenever a record is appended for an employee.
type RecordSetVersion struct {
	Count         int64
	LastCreatedAt *time.Time
}

func (r *ViolationRepository) List(ctx context.Context, filter ViolationFilter) ([]model.ViolationRecord, error) {
	query := r.db.WithContext(ctx).Model(&model.ViolationRecord{})
	query = applyScopeFilter(query, filter.Scope)

	if filter.EmployeeID != "" {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}
	if filter.DateFrom != nil {
		query = query.Where("occurred_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("occurred_at <= ?", *filter.DateTo)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	query = query.Limit(clampLimit(filter.Limit))

	var records []model.ViolationRecord
	if err := query.Order("occurred_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByEmployee returns every record of one employee in no particular order.
func (r *ViolationRepository) ListByEmployee(ctx context.Context, employeeID string) ([]model.ViolationRecord, error) {
	var records []model.ViolationRecord
	if err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ViolationRepository) ListEmployeeIDs(ctx context.Context, scope model.Scope) ([]string, error) {
	query := r.db.WithContext(ctx).Model(&model.ViolationRecord{})
	query = applyScopeFilter(query, scope)

	var ids []string
	if err := query.Distinct("employee_id").Order("employee_id").Pluck("employee_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ViolationRepository) Version(ctx context.Context, employeeID string) (RecordSetVersion, error) {
	var row RecordSetVersion
	if err := r.db.WithContext(ctx).
		Model(&model.ViolationRecord{}).
		Select("COUNT(*) AS count, MAX(created_at) AS last_created_at").
		Where("employee_id = ?", employeeID).
		Scan(&row).Error; err != nil {
		return RecordSetVersion{}, err
	}
	return row, nil
}

// Create is idempotent on the record id, so redelivered events are stored once.
func (r *ViolationRepository) Create(ctx context.Context, record *model.ViolationRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(record).Error
}

// clampLimit defaults an unset limit to the maximum page size and caps larger ones.
func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func applyScopeFilter(query *gorm.DB, scope model.Scope) *gorm.DB {
	switch scope.Type {
	case model.ScopeAll:
		return query
	case model.ScopeDepartment:
		if len(scope.DepartmentIDs) == 0 {
			return query.Where("1=0")
		}
		return query.Where("department_id IN ?", scope.DepartmentIDs)
	case model.ScopeSelf:
		if scope.EmployeeID == nil {
			return query.Where("1=0")
		}
		return query.Where("employee_id = ?", *scope.EmployeeID)
	default:
		return query.Where("1=0")
	}
}
