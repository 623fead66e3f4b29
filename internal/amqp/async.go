package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chitieu/internal/log"
)

const (
	defaultQueueSize = 256
	drainTimeout     = 5 * time.Second
)

var ErrQueueFull = errors.New("event queue is full")

// Publisher is satisfied by *Client.
type Publisher interface {
	PublishExpenseEvent(ctx context.Context, ev *ExpenseEvent) error
}

// AsyncPublisher takes events off the request path. PublishExpenseEvent
// only enqueues; Run sends them in order on a single goroutine.
type AsyncPublisher struct {
	next   Publisher
	queue  chan *ExpenseEvent
	logger *slog.Logger
}

// NewAsyncPublisher buffers up to size events for next. A size below one
// uses the default.
func NewAsyncPublisher(next Publisher, size int, logger *slog.Logger) *AsyncPublisher {
	if size < 1 {
		size = defaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncPublisher{
		next:   next,
		queue:  make(chan *ExpenseEvent, size),
		logger: logger.With(log.FieldComponent, log.ComponentAMQP),
	}
}

// PublishExpenseEvent never blocks. When the queue is full the event is
// dropped and ErrQueueFull returned.
func (p *AsyncPublisher) PublishExpenseEvent(_ context.Context, ev *ExpenseEvent) error {
	select {
	case p.queue <- ev:
		return nil
	default:
		return fmt.Errorf("enqueue %s for expense %d: %w", ev.Type, ev.ExpenseID, ErrQueueFull)
	}
}

// Run publishes queued events until ctx is done, then tries to flush what
// is left within drainTimeout.
func (p *AsyncPublisher) Run(ctx context.Context) error {
	// Events already taken off the queue are sent even while shutting down.
	sendCtx := context.WithoutCancel(ctx)
	for {
		select {
		case ev := <-p.queue:
			p.send(sendCtx, ev)
		case <-ctx.Done():
			p.drain()
			return nil
		}
	}
}

func (p *AsyncPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case ev := <-p.queue:
			if ctx.Err() != nil {
				p.logger.Warn("Dropping unsent expense events on shutdown", "pending", len(p.queue)+1)
				return
			}
			p.send(ctx, ev)
		default:
			return
		}
	}
}

func (p *AsyncPublisher) send(ctx context.Context, ev *ExpenseEvent) {
	if err := p.next.PublishExpenseEvent(ctx, ev); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish expense event",
			log.FieldEventID, ev.EventID,
			log.FieldEventType, ev.Type,
			log.FieldExpenseID, ev.ExpenseID,
			log.FieldError, err)
	}
}
