package card

import (
	"fmt"
	"sort"
	"time"

	"discipline-service/internal/model"
)

// Two yellow cards in hand are converted into one red card.
const yellowPerRed = 2

type Option func(*Aggregator)

// WithClock sets the source of "now" used to pick the default evaluation week.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// Aggregator folds one employee's violation records into a ViolationStatus.
// It holds no state besides its clock and is safe for concurrent use.
type Aggregator struct {
	now func() time.Time
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAggregator = NewAggregator()

// CalculateViolationStatus aggregates records up to the current calendar week.
func CalculateViolationStatus(records []model.ViolationRecord) (model.ViolationStatus, error) {
	return defaultAggregator.Aggregate(records)
}

// Aggregate evaluates records through the week containing the clock's now.
func (a *Aggregator) Aggregate(records []model.ViolationRecord) (model.ViolationStatus, error) {
	return a.AggregateAt(records, WeekKey(a.now()))
}

type keyedRecord struct {
	week   string
	record model.ViolationRecord
}

// AggregateAt walks every week from the first violation's week through
// evaluationWeek, including weeks without violations. If a record lies after
// evaluationWeek the walk is extended to that record's week so no record is
// ever dropped.
func (a *Aggregator) AggregateAt(records []model.ViolationRecord, evaluationWeek string) (model.ViolationStatus, error) {
	evalKey, err := NormalizeWeekKey(evaluationWeek)
	if err != nil {
		return model.ViolationStatus{}, err
	}

	if len(records) == 0 {
		return model.ViolationStatus{
			Status:  model.CardStatusNormal,
			History: []model.StatusChange{},
		}, nil
	}

	keyed, err := keyRecords(records)
	if err != nil {
		return model.ViolationStatus{}, err
	}

	counts := make(map[string]int, len(keyed))
	for _, kr := range keyed {
		counts[kr.week]++
	}

	first := keyed[0].week
	end := evalKey
	if last := keyed[len(keyed)-1].week; last > end {
		end = last
	}

	latest := keyed[len(keyed)-1].record
	status := model.ViolationStatus{
		EmployeeID:      latest.EmployeeID,
		EmployeeName:    latest.EmployeeName,
		TotalViolations: len(records),
		History:         []model.StatusChange{},
	}

	yellow, red := 0, 0
	week := first
	for {
		t, err := WeekStart(week)
		if err != nil {
			return model.ViolationStatus{}, err
		}

		count := counts[week]
		switch {
		case count > 0:
			yellow += count
			status.History = append(status.History, model.StatusChange{
				Week:       week,
				ChangeType: model.ChangeTypeViolation,
				CardType:   model.CardTypeYellow,
				Reason:     fmt.Sprintf("本周违规%d次，获得%d张黄牌", count, count),
				Timestamp:  t,
			})
			status.LastViolationWeek = stringPtr(week)

			if yellow >= yellowPerRed {
				redDelta := yellow / yellowPerRed
				red += redDelta
				yellow %= yellowPerRed
				status.History = append(status.History, model.StatusChange{
					Week:       week,
					ChangeType: model.ChangeTypeEscalation,
					CardType:   model.CardTypeRed,
					Reason:     fmt.Sprintf("%d张黄牌升级为%d张红牌", redDelta*yellowPerRed, redDelta),
					Timestamp:  t,
				})
			}
		case yellow > 0 && red == 0:
			yellow--
			status.History = append(status.History, model.StatusChange{
				Week:       week,
				ChangeType: model.ChangeTypeRecovery,
				CardType:   model.CardTypeYellow,
				Reason:     "连续一周无违规，恢复1张黄牌",
				Timestamp:  t,
			})
			status.LastRecoveryWeek = stringPtr(week)
		}

		if week >= end {
			break
		}
		if week, err = NextWeekKey(week); err != nil {
			return model.ViolationStatus{}, err
		}
	}

	status.CurrentYellowCards = yellow
	status.CurrentRedCards = red
	status.Status = Classify(yellow, red)
	return status, nil
}

// keyRecords validates records and orders them by week, then time, then id,
// falling back to the remaining fields so ties never depend on input order.
func keyRecords(records []model.ViolationRecord) ([]keyedRecord, error) {
	employeeID := records[0].EmployeeID
	keyed := make([]keyedRecord, 0, len(records))
	for i, r := range records {
		if r.EmployeeID == "" {
			return nil, fmt.Errorf("%w: record %d has no employee id", ErrInvalidInput, i)
		}
		if r.EmployeeID != employeeID {
			return nil, fmt.Errorf("%w: mixed employee ids %q and %q", ErrInvalidInput, employeeID, r.EmployeeID)
		}
		if r.OccurredAt.IsZero() {
			return nil, fmt.Errorf("%w: record %d has no occurrence time", ErrInvalidInput, i)
		}
		keyed = append(keyed, keyedRecord{week: WeekKey(r.OccurredAt), record: r})
	}

	sort.Slice(keyed, func(i, j int) bool {
		a, b := keyed[i], keyed[j]
		if a.week != b.week {
			return a.week < b.week
		}
		if !a.record.OccurredAt.Equal(b.record.OccurredAt) {
			return a.record.OccurredAt.Before(b.record.OccurredAt)
		}
		if a.record.ID != b.record.ID {
			return a.record.ID.String() < b.record.ID.String()
		}
		if a.record.EmployeeName != b.record.EmployeeName {
			return a.record.EmployeeName < b.record.EmployeeName
		}
		if a.record.Type != b.record.Type {
			return a.record.Type < b.record.Type
		}
		return a.record.Reason < b.record.Reason
	})
	return keyed, nil
}

func stringPtr(s string) *string {
	return &s
}
