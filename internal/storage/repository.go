// Package storage persists expense records in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/store"

	_ "modernc.org/sqlite"
)

// busyTimeout is applied to every connection so that concurrent writers
// wait instead of failing with SQLITE_BUSY.
const busyTimeout = 5000

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ store.Store = (*SQLiteRepository)(nil)

func dsn(dbPath string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", dbPath, busyTimeout)
}

// NewSQLiteRepository opens (and creates if needed) the database at dbPath
// and brings its schema up to date.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer connection serialises toggles and inserts.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db), now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return toCore(row)
}

func (r *SQLiteRepository) Create(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	n, err := n.Normalize()
	if err != nil {
		return core.Expense{}, err
	}
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Title:     n.Title,
		Amount:    n.Amount.String(),
		Type:      n.Type.String(),
		CreatedAt: r.now().UTC(),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldExpenseID, row.ID,
		log.FieldKind, row.Type,
		log.FieldAmount, row.Amount)

	return toCore(row)
}

func (r *SQLiteRepository) TogglePaid(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.ToggleExpensePaid(ctx, id, r.now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("toggle expense %d: %w", id, err)
	}
	return toCore(row)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", log.FieldComponent, log.ComponentStorage, log.FieldExpenseID, id)
	return nil
}

func toCore(row Expense) (core.Expense, error) {
	amount, err := core.ParseAmount(row.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: stored amount %q: %w", row.ID, row.Amount, err)
	}
	return core.Expense{
		ID:        row.ID,
		Title:     row.Title,
		Amount:    amount,
		Type:      core.Kind(row.Type),
		IsPaid:    row.IsPaid,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}
