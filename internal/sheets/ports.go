// Package sheets defines the append-only journal that mirrors expense
// lifecycle events to a spreadsheet.
package sheets

import (
	"context"
	"time"

	"chitieu/internal/core"
)

// Header is the first row of a journal sheet.
var Header = []any{"event_id", "occurred_at", "event", "expense_id", "title", "amount", "type", "is_paid"}

// Entry is one journal row. Title, Amount, Kind and IsPaid are empty for
// deletions.
type Entry struct {
	EventID    string
	OccurredAt time.Time
	Event      string
	ExpenseID  int64
	Title      string
	Amount     string
	Kind       core.Kind
	IsPaid     bool
}

// Row renders the entry in Header column order.
func (e Entry) Row() []any {
	paid := ""
	if e.Kind == core.KindExpense {
		if e.IsPaid {
			paid = "TRUE"
		} else {
			paid = "FALSE"
		}
	}
	return []any{
		e.EventID,
		e.OccurredAt.UTC().Format(time.RFC3339),
		e.Event,
		e.ExpenseID,
		e.Title,
		e.Amount,
		string(e.Kind),
		paid,
	}
}

// Ports for outbound adapters.
type JournalWriter interface {
	Append(ctx context.Context, e Entry) (rowRef string, err error)
}
