package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// Expense is the row shape of the expenses table. Amount is kept as the
// exact decimal text that was written.
type Expense struct {
	ID        int64
	Title     string
	Amount    string
	Type      string
	IsPaid    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const expenseColumns = `id, title, amount, type, is_paid, created_at, updated_at`

func scanExpense(row interface{ Scan(...interface{}) error }) (Expense, error) {
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Amount,
		&i.Type,
		&i.IsPaid,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listExpenses = `SELECT ` + expenseColumns + ` FROM expenses ORDER BY id DESC`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Expense{}
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const createExpense = `INSERT INTO expenses (title, amount, type, is_paid, created_at, updated_at)
VALUES (?, ?, ?, 0, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	Title     string
	Amount    string
	Type      string
	CreatedAt time.Time
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.Title,
		arg.Amount,
		arg.Type,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanExpense(row)
}

const toggleExpensePaid = `UPDATE expenses
SET is_paid = NOT is_paid, updated_at = ?
WHERE id = ?
RETURNING ` + expenseColumns

func (q *Queries) ToggleExpensePaid(ctx context.Context, id int64, updatedAt time.Time) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, toggleExpensePaid, updatedAt, id))
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
