package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"discipline-service/internal/model"
	"discipline-service/internal/repository"
)

type fakeScopes struct {
	departments []uuid.UUID
}

func (f fakeScopes) ResolveScope(_ context.Context, principal model.Principal) (model.Scope, error) {
	switch principal.Role {
	case model.UserRoleAdmin:
		return model.Scope{Type: model.ScopeAll}, nil
	case model.UserRoleManager:
		return model.Scope{Type: model.ScopeDepartment, DepartmentIDs: f.departments}, nil
	case model.UserRoleEmployee:
		return model.Scope{Type: model.ScopeSelf, EmployeeID: principal.EmployeeID}, nil
	default:
		return model.Scope{}, repository.ErrScopeUnsupported
	}
}

type fakeStore struct {
	mu          sync.Mutex
	records     []model.ViolationRecord
	clock       time.Time
	listByCalls int
}

func newFakeStore(records ...model.ViolationRecord) *fakeStore {
	s := &fakeStore{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for i := range records {
		r := records[i]
		_ = s.Create(context.Background(), &r)
	}
	return s
}

func (s *fakeStore) List(_ context.Context, filter repository.ViolationFilter) ([]model.ViolationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ViolationRecord
	for _, r := range s.records {
		if !filter.Scope.AllowsEmployee(r.EmployeeID, r.DepartmentID) {
			continue
		}
		if filter.EmployeeID != "" && r.EmployeeID != filter.EmployeeID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) ListByEmployee(_ context.Context, employeeID string) ([]model.ViolationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listByCalls++
	var out []model.ViolationRecord
	for _, r := range s.records {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) ListEmployeeIDs(_ context.Context, scope model.Scope) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, r := range s.records {
		if seen[r.EmployeeID] || !scope.AllowsEmployee(r.EmployeeID, r.DepartmentID) {
			continue
		}
		seen[r.EmployeeID] = true
		ids = append(ids, r.EmployeeID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *fakeStore) Version(_ context.Context, employeeID string) (repository.RecordSetVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var v repository.RecordSetVersion
	for _, r := range s.records {
		if r.EmployeeID != employeeID {
			continue
		}
		v.Count++
		created := r.CreatedAt
		if v.LastCreatedAt == nil || created.After(*v.LastCreatedAt) {
			v.LastCreatedAt = &created
		}
	}
	return v, nil
}

func (s *fakeStore) Create(_ context.Context, record *model.ViolationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	for _, existing := range s.records {
		if existing.ID == record.ID {
			return nil
		}
	}
	s.clock = s.clock.Add(time.Second)
	record.CreatedAt = s.clock
	s.records = append(s.records, *record)
	return nil
}
