package model

import "time"

type CardStatus string

const (
	CardStatusNormal CardStatus = "normal"
	CardStatusYellow CardStatus = "yellow"
	CardStatusRed    CardStatus = "red"
)

type ChangeType string

const (
	ChangeTypeViolation  ChangeType = "violation"
	ChangeTypeEscalation ChangeType = "escalation"
	ChangeTypeRecovery   ChangeType = "recovery"
)

type CardType string

const (
	CardTypeYellow CardType = "yellow"
	CardTypeRed    CardType = "red"
)

type Color string

const (
	ColorGreen  Color = "green"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
)

// StatusChange is one week-level entry in a ViolationStatus history.
type StatusChange struct {
	Week       string     `json:"week"`
	ChangeType ChangeType `json:"change_type"`
	CardType   CardType   `json:"card_type"`
	Reason     string     `json:"reason"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ViolationStatus is derived from an employee's violation records and is never
// stored. The zero value is the normal state with no cards.
type ViolationStatus struct {
	EmployeeID         string         `json:"employee_id"`
	EmployeeName       string         `json:"employee_name"`
	CurrentYellowCards int            `json:"current_yellow_cards"`
	CurrentRedCards    int            `json:"current_red_cards"`
	TotalViolations    int            `json:"total_violations"`
	Status             CardStatus     `json:"status"`
	LastViolationWeek  *string        `json:"last_violation_week"`
	LastRecoveryWeek   *string        `json:"last_recovery_week"`
	History            []StatusChange `json:"history"`
}

type Prediction struct {
	WillRecover  bool `json:"will_recover"`
	WillEscalate bool `json:"will_escalate"`
	YellowCards  int  `json:"yellow_cards"`
	RedCards     int  `json:"red_cards"`
}
