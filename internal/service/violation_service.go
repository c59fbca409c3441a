package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"discipline-service/internal/model"
	"discipline-service/internal/repository"
)

// Clock skew tolerated for occurrence times reported slightly in the future.
const futureTolerance = 5 * time.Minute

type ViolationService struct {
	scopes ScopeResolver
	store  ViolationStore
	now    func() time.Time
}

func NewViolationService(scopes ScopeResolver, store ViolationStore) *ViolationService {
	return &ViolationService{
		scopes: scopes,
		store:  store,
		now:    time.Now,
	}
}

type ListViolationsOptions struct {
	EmployeeID   string
	DepartmentID *uuid.UUID
	Types        []string
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

func (s *ViolationService) List(ctx context.Context, principal model.Principal, opts ListViolationsOptions) ([]model.ViolationRecord, error) {
	scope, err := resolveScope(ctx, s.scopes, principal)
	if err != nil {
		return nil, err
	}

	filter := repository.ViolationFilter{
		Scope:        scope,
		EmployeeID:   opts.EmployeeID,
		DepartmentID: opts.DepartmentID,
		Types:        opts.Types,
		DateFrom:     opts.DateFrom,
		DateTo:       opts.DateTo,
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	}

	return s.store.List(ctx, filter)
}

type CreateViolationInput struct {
	// ID makes ingestion idempotent; a zero value gets a fresh id on insert.
	ID           uuid.UUID
	EmployeeID   string
	EmployeeName string
	DepartmentID *uuid.UUID
	Type         string
	Reason       string
	OccurredAt   *time.Time
}

// Record stores a manually entered violation.
func (s *ViolationService) Record(ctx context.Context, principal model.Principal, input CreateViolationInput) (*model.ViolationRecord, error) {
	if !principal.CanRecord() {
		return nil, ErrPermissionDenied
	}

	scope, err := resolveScope(ctx, s.scopes, principal)
	if err != nil {
		return nil, err
	}

	if input.DepartmentID == nil && principal.IsManager() {
		input.DepartmentID = principal.DepartmentID
	}

	record, err := s.buildRecord(input, model.ViolationSourceManual)
	if err != nil {
		return nil, err
	}

	if !scope.AllowsEmployee(record.EmployeeID, record.DepartmentID) {
		return nil, ErrPermissionDenied
	}

	record.CreatedBy = &principal.UserID
	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Ingest stores a violation delivered by an upstream system. Storing the same
// input ID twice keeps a single record.
func (s *ViolationService) Ingest(ctx context.Context, input CreateViolationInput) (*model.ViolationRecord, error) {
	record, err := s.buildRecord(input, model.ViolationSourceKafka)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *ViolationService) buildRecord(input CreateViolationInput, source model.ViolationSource) (*model.ViolationRecord, error) {
	employeeID := strings.TrimSpace(input.EmployeeID)
	employeeName := strings.TrimSpace(input.EmployeeName)
	vType := strings.TrimSpace(input.Type)

	if employeeID == "" {
		return nil, fmt.Errorf("%w: employee_id is required", ErrInvalidInput)
	}
	if employeeName == "" {
		return nil, fmt.Errorf("%w: employee_name is required", ErrInvalidInput)
	}
	if vType == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidInput)
	}

	now := s.now()
	occurredAt := now
	if input.OccurredAt != nil {
		if input.OccurredAt.IsZero() {
			return nil, fmt.Errorf("%w: occurred_at is invalid", ErrInvalidInput)
		}
		if input.OccurredAt.After(now.Add(futureTolerance)) {
			return nil, fmt.Errorf("%w: occurred_at is in the future", ErrInvalidInput)
		}
		occurredAt = *input.OccurredAt
	}

	return &model.ViolationRecord{
		ID:           input.ID,
		EmployeeID:   employeeID,
		EmployeeName: employeeName,
		DepartmentID: input.DepartmentID,
		Type:         vType,
		Reason:       strings.TrimSpace(input.Reason),
		OccurredAt:   occurredAt.UTC(),
		Source:       source,
	}, nil
}
