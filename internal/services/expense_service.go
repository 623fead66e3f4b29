// Package services applies the ledger rules on top of a store and announces
// every change on the event bus.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chitieu/internal/amqp"
	"chitieu/internal/cache"
	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/store"
)

const (
	storeTimeout = 5 * time.Second
	listCacheKey = "expenses"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ExpenseService orchestrates store writes, the list cache and event publishing.
type ExpenseService struct {
	store     store.Store
	publisher EventPublisher
	listCache *cache.LRUCache[[]core.Expense]
	logger    *slog.Logger

	// cacheMu orders cache fills against invalidations. A fill is dropped
	// when a mutation bumped gen after the store read began.
	cacheMu sync.Mutex
	gen     uint64
}

type Option func(*ExpenseService)

// WithPublisher enables lifecycle events. Publishing failures are logged only.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithListCache caches List results for ttl. Zero disables caching.
func WithListCache(ttl time.Duration) Option {
	return func(s *ExpenseService) {
		if ttl > 0 {
			s.listCache = cache.NewLRUCache[[]core.Expense](1, ttl)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ExpenseService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewExpenseService(st store.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{store: st, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With(log.FieldComponent, log.ComponentExpense)
	return s
}

// ListCache returns the cache for registration with a cache.Manager, or nil.
func (s *ExpenseService) ListCache() cache.Cleaner {
	if s.listCache == nil {
		return nil
	}
	return s.listCache
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	if s.listCache != nil {
		if items, ok := s.listCache.Get(listCacheKey); ok {
			return append([]core.Expense(nil), items...), nil
		}
	}

	gen := s.generation()

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if s.listCache != nil {
		s.cacheMu.Lock()
		if s.gen == gen {
			s.listCache.Set(listCacheKey, append([]core.Expense(nil), items...))
		}
		s.cacheMu.Unlock()
	}
	return items, nil
}

// Summary computes totals over the full list.
func (s *ExpenseService) Summary(ctx context.Context) (core.Totals, error) {
	items, err := s.List(ctx)
	if err != nil {
		return core.Totals{}, err
	}
	return core.Summarize(items), nil
}

func (s *ExpenseService) Create(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	if err := n.Validate(); err != nil {
		return core.Expense{}, err
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	e, err := s.store.Create(sctx, n)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "Expense created",
		log.FieldOperation, "create",
		log.FieldExpenseID, e.ID,
		log.FieldKind, e.Type,
		log.FieldAmount, e.Amount.String())
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseCreated, e.ID, &e))
	return e, nil
}

// TogglePaid flips the paid flag of a chi record. Income records have no paid
// status and are rejected with a ValidationError on "type".
func (s *ExpenseService) TogglePaid(ctx context.Context, id int64) (core.Expense, error) {
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	current, err := s.store.Get(sctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("toggle expense %d: %w", id, err)
	}
	if !current.Toggleable() {
		return core.Expense{}, &core.ValidationError{Field: "type", Err: core.ErrNotToggleable}
	}

	e, err := s.store.TogglePaid(sctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("toggle expense %d: %w", id, err)
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "Expense paid status toggled",
		log.FieldOperation, "update",
		log.FieldExpenseID, e.ID,
		"is_paid", e.IsPaid)
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseToggled, e.ID, &e))
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.store.Delete(sctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "Expense deleted", log.FieldOperation, "delete", log.FieldExpenseID, id)
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseDeleted, id, nil))
	return nil
}

// Ping reports store readiness.
func (s *ExpenseService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.store.Ping(ctx)
}

func (s *ExpenseService) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.gen
}

func (s *ExpenseService) invalidate() {
	if s.listCache == nil {
		return
	}
	s.cacheMu.Lock()
	s.gen++
	s.listCache.Purge()
	s.cacheMu.Unlock()
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			log.FieldEventType, ev.Type,
			log.FieldExpenseID, ev.ExpenseID,
			log.FieldError, err)
	}
}
