package amqp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*ExpenseEvent
	block  chan struct{}
}

func (r *recordingPublisher) PublishExpenseEvent(ctx context.Context, ev *ExpenseEvent) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAsyncPublisherDoesNotWaitForBroker(t *testing.T) {
	next := &recordingPublisher{block: make(chan struct{})}
	p := NewAsyncPublisher(next, 2, quietLogger())

	start := time.Now()
	for i := int64(1); i <= 2; i++ {
		if err := p.PublishExpenseEvent(context.Background(), NewExpenseEvent(EventExpenseDeleted, i, nil)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	err := p.PublishExpenseEvent(context.Background(), NewExpenseEvent(EventExpenseDeleted, 3, nil))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("enqueue should not block on a stalled broker")
	}
}

func TestAsyncPublisherSendsInOrderAndDrains(t *testing.T) {
	next := &recordingPublisher{}
	p := NewAsyncPublisher(next, 10, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()

	for i := int64(1); i <= 5; i++ {
		if err := p.PublishExpenseEvent(context.Background(), NewExpenseEvent(EventExpenseDeleted, i, nil)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	if next.count() != 5 {
		t.Fatalf("expected all 5 events sent, got %d", next.count())
	}
	for i, ev := range next.events {
		if ev.ExpenseID != int64(i+1) {
			t.Fatalf("event %d out of order: expense %d", i, ev.ExpenseID)
		}
	}
}
