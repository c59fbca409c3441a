package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"discipline-service/internal/service"
)

var ErrMalformedMessage = errors.New("malformed violation message")

// Message is the JSON payload published on the violations topic.
type Message struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	DepartmentID string `json:"department_id"`
	Type         string `json:"type"`
	Reason       string `json:"reason"`
	OccurredAt   string `json:"occurred_at"`
}

func Decode(value []byte) (service.CreateViolationInput, error) {
	var msg Message
	if err := json.Unmarshal(value, &msg); err != nil {
		return service.CreateViolationInput{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	if strings.TrimSpace(msg.OccurredAt) == "" {
		return service.CreateViolationInput{}, fmt.Errorf("%w: occurred_at is required", ErrMalformedMessage)
	}
	occurredAt, err := time.Parse(time.RFC3339, strings.TrimSpace(msg.OccurredAt))
	if err != nil {
		return service.CreateViolationInput{}, fmt.Errorf("%w: occurred_at: %v", ErrMalformedMessage, err)
	}

	input := service.CreateViolationInput{
		EmployeeID:   msg.EmployeeID,
		EmployeeName: msg.EmployeeName,
		Type:         msg.Type,
		Reason:       msg.Reason,
		OccurredAt:   &occurredAt,
	}
	if dept := strings.TrimSpace(msg.DepartmentID); dept != "" {
		id, err := uuid.Parse(dept)
		if err != nil {
			return service.CreateViolationInput{}, fmt.Errorf("%w: department_id: %v", ErrMalformedMessage, err)
		}
		input.DepartmentID = &id
	}
	return input, nil
}
