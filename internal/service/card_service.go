package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"discipline-service/internal/card"
	"discipline-service/internal/model"
	"discipline-service/internal/repository"
)

type CardServiceConfig struct {
	Location  *time.Location
	CacheSize int
	Now       func() time.Time
}

// CardService derives card statuses from stored violation records. Results
// are cached per record-set version, so a new record invalidates its entry.
type CardService struct {
	scopes     ScopeResolver
	store      ViolationStore
	aggregator *card.Aggregator
	location   *time.Location
	now        func() time.Time
	cache      *lru.Cache[string, cachedStatus]
}

type cachedStatus struct {
	status       model.ViolationStatus
	departmentID *uuid.UUID
}

type CardReport struct {
	EvaluationWeek   string                `json:"evaluation_week"`
	Status           model.ViolationStatus `json:"status"`
	DisplayText      string                `json:"display_text"`
	DisplayColor     model.Color           `json:"display_color"`
	NearRedCard      bool                  `json:"near_red_card"`
	YellowCardsToRed int                   `json:"yellow_cards_to_red"`
	NextWeek         model.Prediction      `json:"next_week"`
}

func NewCardService(scopes ScopeResolver, store ViolationStore, cfg CardServiceConfig) (*CardService, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}

	cache, err := lru.New[string, cachedStatus](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create status cache: %w", err)
	}

	return &CardService{
		scopes:     scopes,
		store:      store,
		aggregator: card.NewAggregator(),
		location:   cfg.Location,
		now:        cfg.Now,
		cache:      cache,
	}, nil
}

// Status evaluates one employee's cards through week, or the current week
// when week is empty.
func (s *CardService) Status(ctx context.Context, principal model.Principal, employeeID, week string) (*CardReport, error) {
	scope, err := resolveScope(ctx, s.scopes, principal)
	if err != nil {
		return nil, err
	}

	evalWeek, err := s.evaluationWeek(week)
	if err != nil {
		return nil, err
	}

	entry, err := s.load(ctx, employeeID, evalWeek)
	if err != nil {
		return nil, err
	}

	switch scope.Type {
	case model.ScopeAll:
	case model.ScopeSelf:
		if !scope.AllowsEmployee(employeeID, nil) {
			return nil, ErrPermissionDenied
		}
	default:
		if entry.status.TotalViolations == 0 {
			return nil, ErrNotFound
		}
		if !scope.AllowsEmployee(employeeID, entry.departmentID) {
			return nil, ErrPermissionDenied
		}
	}

	report := buildReport(evalWeek, entry.status)
	return &report, nil
}

// Overview returns a report for every employee with records visible to the
// principal, red cards first.
func (s *CardService) Overview(ctx context.Context, principal model.Principal, week string) ([]CardReport, error) {
	scope, err := resolveScope(ctx, s.scopes, principal)
	if err != nil {
		return nil, err
	}

	evalWeek, err := s.evaluationWeek(week)
	if err != nil {
		return nil, err
	}

	ids, err := s.store.ListEmployeeIDs(ctx, scope)
	if err != nil {
		return nil, err
	}

	reports := make([]CardReport, 0, len(ids))
	for _, id := range ids {
		entry, err := s.load(ctx, id, evalWeek)
		if err != nil {
			return nil, err
		}
		reports = append(reports, buildReport(evalWeek, entry.status))
	}

	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i].Status, reports[j].Status
		if a.CurrentRedCards != b.CurrentRedCards {
			return a.CurrentRedCards > b.CurrentRedCards
		}
		if a.CurrentYellowCards != b.CurrentYellowCards {
			return a.CurrentYellowCards > b.CurrentYellowCards
		}
		return a.EmployeeID < b.EmployeeID
	})

	return reports, nil
}

func (s *CardService) evaluationWeek(week string) (string, error) {
	if week == "" {
		return card.WeekKey(s.now().In(s.location)), nil
	}
	key, err := card.NormalizeWeekKey(week)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return key, nil
}

func (s *CardService) load(ctx context.Context, employeeID, evalWeek string) (cachedStatus, error) {
	version, err := s.store.Version(ctx, employeeID)
	if err != nil {
		return cachedStatus{}, err
	}

	key := cacheKey(employeeID, version, evalWeek)
	if entry, ok := s.cache.Get(key); ok {
		return entry, nil
	}

	records, err := s.store.ListByEmployee(ctx, employeeID)
	if err != nil {
		return cachedStatus{}, err
	}

	var departmentID *uuid.UUID
	var latest time.Time
	for i := range records {
		records[i].OccurredAt = records[i].OccurredAt.In(s.location)
		if records[i].OccurredAt.After(latest) {
			latest = records[i].OccurredAt
			departmentID = records[i].DepartmentID
		}
	}

	status, err := s.aggregator.AggregateAt(records, evalWeek)
	if err != nil {
		if errors.Is(err, card.ErrInvalidInput) {
			return cachedStatus{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return cachedStatus{}, err
	}
	if status.EmployeeID == "" {
		status.EmployeeID = employeeID
	}

	entry := cachedStatus{status: status, departmentID: departmentID}
	s.cache.Add(key, entry)
	return entry, nil
}

func cacheKey(employeeID string, version repository.RecordSetVersion, evalWeek string) string {
	var last int64
	if version.LastCreatedAt != nil {
		last = version.LastCreatedAt.UnixNano()
	}
	return fmt.Sprintf("%s|%d|%d|%s", employeeID, version.Count, last, evalWeek)
}

func buildReport(evalWeek string, status model.ViolationStatus) CardReport {
	return CardReport{
		EvaluationWeek:   evalWeek,
		Status:           status,
		DisplayText:      card.DisplayText(status),
		DisplayColor:     card.DisplayColor(status),
		NearRedCard:      card.IsNearRedCard(status),
		YellowCardsToRed: card.YellowCardsToRed(status.CurrentYellowCards),
		NextWeek:         card.PredictNextWeek(status),
	}
}
