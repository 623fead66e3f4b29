package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chitieu/internal/core"

	"github.com/google/uuid"
)

type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseToggled EventType = "expense.toggled"
	EventExpenseDeleted EventType = "expense.deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventExpenseCreated, EventExpenseToggled, EventExpenseDeleted:
		return true
	}
	return false
}

// ExpenseEvent describes one lifecycle change of a record. Expense carries the
// state after the change and is nil for deletions.
type ExpenseEvent struct {
	EventID    string        `json:"event_id"`
	Type       EventType     `json:"type"`
	ExpenseID  int64         `json:"expense_id"`
	Expense    *core.Expense `json:"expense"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewExpenseEvent stamps a fresh event id. Pass a nil expense for deletions.
func NewExpenseEvent(t EventType, id int64, e *core.Expense) *ExpenseEvent {
	if t == EventExpenseDeleted {
		e = nil
	}
	return &ExpenseEvent{
		EventID:    uuid.NewString(),
		Type:       t,
		ExpenseID:  id,
		Expense:    e,
		OccurredAt: time.Now().UTC(),
	}
}

func (m *ExpenseEvent) Validate() error {
	if _, err := uuid.Parse(m.EventID); err != nil {
		return fmt.Errorf("event_id: %w", err)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	if m.ExpenseID <= 0 {
		return errors.New("expense_id must be positive")
	}
	if m.Type != EventExpenseDeleted && m.Expense == nil {
		return fmt.Errorf("%s event without expense payload", m.Type)
	}
	return nil
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and validates a message body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
