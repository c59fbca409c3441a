package service

import (
	"context"
	"errors"

	"discipline-service/internal/model"
	"discipline-service/internal/repository"
)

type ScopeResolver interface {
	ResolveScope(ctx context.Context, principal model.Principal) (model.Scope, error)
}

type ViolationStore interface {
	List(ctx context.Context, filter repository.ViolationFilter) ([]model.ViolationRecord, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]model.ViolationRecord, error)
	ListEmployeeIDs(ctx context.Context, scope model.Scope) ([]string, error)
	Version(ctx context.Context, employeeID string) (repository.RecordSetVersion, error)
	// Create inserts record and ignores it when a record with the same id exists.
	Create(ctx context.Context, record *model.ViolationRecord) error
}

func resolveScope(ctx context.Context, scopes ScopeResolver, principal model.Principal) (model.Scope, error) {
	scope, err := scopes.ResolveScope(ctx, principal)
	if err != nil {
		if errors.Is(err, repository.ErrScopeUnsupported) {
			return model.Scope{}, ErrPermissionDenied
		}
		return model.Scope{}, err
	}
	return scope, nil
}
