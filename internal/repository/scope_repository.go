package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"discipline-service/internal/model"
)

var ErrScopeUnsupported = errors.New("principal role is not allowed")

type ScopeRepository struct {
	db *gorm.DB
}

func NewScopeRepository(db *gorm.DB) *ScopeRepository {
	return &ScopeRepository{db: db}
}

func (r *ScopeRepository) ResolveScope(ctx context.Context, principal model.Principal) (model.Scope, error) {
	scope := model.Scope{}

	switch {
	case principal.IsAdmin():
		scope.Type = model.ScopeAll
		return scope, nil
	case principal.IsManager():
		if principal.DepartmentID == nil {
			return model.Scope{}, ErrScopeUnsupported
		}
		scope.Type = model.ScopeDepartment
		departments, err := r.listDepartmentTree(ctx, *principal.DepartmentID)
		if err != nil {
			return model.Scope{}, err
		}
		scope.DepartmentIDs = departments
		return scope, nil
	case principal.IsEmployee():
		if principal.EmployeeID == nil {
			return model.Scope{}, ErrScopeUnsupported
		}
		scope.Type = model.ScopeSelf
		scope.EmployeeID = principal.EmployeeID
		return scope, nil
	default:
		return model.Scope{}, ErrScopeUnsupported
	}
}

// listDepartmentTree returns root and all active descendants.
func (r *ScopeRepository) listDepartmentTree(ctx context.Context, root uuid.UUID) ([]uuid.UUID, error) {
	type result struct {
		ID uuid.UUID
	}
	var data []result
	if err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE tree AS (
			SELECT id FROM departments WHERE id = ?
			UNION
			SELECT d.id FROM departments d JOIN tree t ON d.parent_id = t.id WHERE d.is_active
		)
		SELECT id FROM tree`, root).
		Scan(&data).Error; err != nil {
		return nil, err
	}

	rows := []uuid.UUID{root}
	for _, row := range data {
		if row.ID != root {
			rows = append(rows, row.ID)
		}
	}
	return rows, nil
}
