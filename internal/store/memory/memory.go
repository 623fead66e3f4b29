// Package memory keeps expense records in process memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"chitieu/internal/core"
	"chitieu/internal/store"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Expense
	now    func() time.Time
}

func New() *Store {
	return &Store{items: make(map[int64]core.Expense), now: time.Now}
}

// NewWithClock is New with an injectable time source.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	return e, nil
}

// Create assigns the next id. Ids of deleted records are never handed out again.
func (s *Store) Create(_ context.Context, n core.NewExpense) (core.Expense, error) {
	n, err := n.Normalize()
	if err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ts := s.now().UTC()
	e := core.Expense{
		ID:        s.nextID,
		Title:     n.Title,
		Amount:    n.Amount,
		Type:      n.Type,
		IsPaid:    false,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.items[e.ID] = e
	return e, nil
}

func (s *Store) TogglePaid(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	e.IsPaid = !e.IsPaid
	e.UpdatedAt = s.now().UTC()
	s.items[id] = e
	return e, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
