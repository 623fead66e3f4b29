// Package postgres persists expense records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/storage"
	"chitieu/internal/store"

	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const columns = `id, title, amount::text, type, is_paid, created_at, updated_at`

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL, migrates the schema and returns a ready store.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

// RunMigrations uses a database/sql handle over the pgx stdlib driver, which
// is what the migrate pgx driver expects.
func RunMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}
	return storage.Migrate(migrationsFS, "pgx5", driver)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+columns+` FROM expenses ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (core.Expense, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM expenses WHERE id = $1`, id)
	return s.one(row, "get", id)
}

func (s *Store) Create(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	n, err := n.Normalize()
	if err != nil {
		return core.Expense{}, err
	}
	ts := s.now().UTC()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO expenses (title, amount, type, is_paid, created_at, updated_at)
		 VALUES ($1, $2::numeric, $3, FALSE, $4, $4)
		 RETURNING `+columns,
		n.Title, n.Amount.String(), n.Type.String(), ts)
	e, err := scan(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved to Postgres",
		log.FieldComponent, log.ComponentStorage,
		log.FieldExpenseID, e.ID,
		log.FieldKind, e.Type,
		log.FieldAmount, e.Amount.String())
	return e, nil
}

func (s *Store) TogglePaid(ctx context.Context, id int64) (core.Expense, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE expenses SET is_paid = NOT is_paid, updated_at = $1
		 WHERE id = $2
		 RETURNING `+columns,
		s.now().UTC(), id)
	return s.one(row, "toggle", id)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) one(row pgx.Row, op string, id int64) (core.Expense, error) {
	e, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("%s expense %d: %w", op, id, err)
	}
	return e, nil
}

func scan(row pgx.Row) (core.Expense, error) {
	var (
		e      core.Expense
		amount string
		kind   string
	)
	if err := row.Scan(&e.ID, &e.Title, &amount, &kind, &e.IsPaid, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return core.Expense{}, err
	}
	m, err := core.ParseAmount(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: stored amount %q: %w", e.ID, amount, err)
	}
	e.Amount = m
	e.Type = core.Kind(kind)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}
