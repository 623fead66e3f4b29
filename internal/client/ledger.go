package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"chitieu/internal/core"
)

// API is the subset of Client the Ledger needs.
type API interface {
	List(ctx context.Context) ([]core.Expense, error)
	Create(ctx context.Context, n core.NewExpense) (core.Expense, error)
	TogglePaid(ctx context.Context, id int64) (core.Expense, error)
	Delete(ctx context.Context, id int64) error
}

// ErrNotConfirmed is returned by Delete when the confirmation was declined.
var ErrNotConfirmed = errors.New("delete not confirmed")

// Ledger is the client-side view: the last fetched list and its totals.
// Every successful mutation re-fetches the list; a failed call leaves the
// previous list and totals in place.
type Ledger struct {
	api API

	mu       sync.RWMutex
	expenses []core.Expense
	totals   core.Totals
}

func NewLedger(api API) *Ledger {
	return &Ledger{api: api, expenses: []core.Expense{}}
}

// Expenses returns a copy of the current list, newest first.
func (l *Ledger) Expenses() []core.Expense {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.Expense(nil), l.expenses...)
}

func (l *Ledger) Totals() core.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals
}

func (l *Ledger) Refresh(ctx context.Context) error {
	items, err := l.api.List(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.expenses = items
	l.totals = core.Summarize(items)
	l.mu.Unlock()
	return nil
}

// Add checks the draft locally and sends it only when it passes: the title
// must be non-blank and the amount a number greater than zero.
func (l *Ledger) Add(ctx context.Context, title, amount string, kind core.Kind) (core.Expense, error) {
	draft, err := core.ParseNewExpense(title, amount, string(kind))
	if err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return core.Expense{}, &ValidationError{Field: ve.Field, Message: ve.Err.Error()}
		}
		return core.Expense{}, err
	}

	e, err := l.api.Create(ctx, draft)
	if err != nil {
		return core.Expense{}, err
	}
	return e, l.Refresh(ctx)
}

// Toggle flips the paid flag of a chi record. Records that are not in the
// current list or are not chi are refused without a request.
func (l *Ledger) Toggle(ctx context.Context, id int64) (core.Expense, error) {
	current, ok := l.find(id)
	if ok && !current.Toggleable() {
		return core.Expense{}, &ValidationError{Field: "type", Message: core.ErrNotToggleable.Error()}
	}
	if !ok {
		return core.Expense{}, &NotFoundError{ID: id}
	}

	e, err := l.api.TogglePaid(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	return e, l.Refresh(ctx)
}

// Delete removes id after confirm returns true. A nil confirm counts as
// declined.
func (l *Ledger) Delete(ctx context.Context, id int64, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return ErrNotConfirmed
	}
	if err := l.api.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	return l.Refresh(ctx)
}

func (l *Ledger) find(id int64) (core.Expense, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}
