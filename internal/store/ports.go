// Package store declares the persistence port for expense records.
package store

import (
	"context"
	"errors"

	"chitieu/internal/core"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("expense not found")

type (
	// Reader exposes the read side of the ledger.
	Reader interface {
		// List returns every record, newest id first.
		List(ctx context.Context) ([]core.Expense, error)
		Get(ctx context.Context, id int64) (core.Expense, error)
	}

	// Writer mutates single records. Each call affects at most one row.
	Writer interface {
		// Create stores a validated draft with is_paid=false and a fresh id.
		Create(ctx context.Context, n core.NewExpense) (core.Expense, error)
		// TogglePaid flips is_paid and bumps updated_at.
		TogglePaid(ctx context.Context, id int64) (core.Expense, error)
		Delete(ctx context.Context, id int64) error
	}

	Store interface {
		Reader
		Writer
		// Ping reports whether the backing engine is reachable.
		Ping(ctx context.Context) error
	}
)
