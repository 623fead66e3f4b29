// Package worker mirrors expense lifecycle events into the journal sink.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chitieu/internal/amqp"
	"chitieu/internal/cache"
	"chitieu/internal/log"
	"chitieu/internal/sheets"
)

// Events already written are remembered for this long so that redelivered
// messages do not produce duplicate rows.
const (
	dedupeTTL  = 24 * time.Hour
	dedupeSize = 10000
)

// JournalWorker turns events into journal rows.
type JournalWorker struct {
	journal sheets.JournalWriter
	seen    *cache.LRUCache[string]
	logger  *slog.Logger
}

func NewJournalWorker(journal sheets.JournalWriter, logger *slog.Logger) *JournalWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalWorker{
		journal: journal,
		seen:    cache.NewLRUCache[string](dedupeSize, dedupeTTL),
		logger:  logger.With(log.FieldComponent, log.ComponentWorker),
	}
}

// Dedupe exposes the seen-events cache so callers can register it for sweeping.
func (w *JournalWorker) Dedupe() cache.Cleaner {
	return w.seen
}

// HandleEvent appends ev to the journal. Returning an error requeues the message.
func (w *JournalWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	if _, dup := w.seen.Get(ev.EventID); dup {
		w.logger.DebugContext(ctx, "Skipping already journaled event", log.FieldEventID, ev.EventID)
		return nil
	}

	ref, err := w.journal.Append(ctx, EntryFromEvent(ev))
	if err != nil {
		return fmt.Errorf("append event %s: %w", ev.EventID, err)
	}
	w.seen.Set(ev.EventID, ref)

	w.logger.InfoContext(ctx, "Journaled expense event",
		log.FieldEventID, ev.EventID,
		log.FieldEventType, ev.Type,
		log.FieldExpenseID, ev.ExpenseID,
		log.FieldSheetsRef, ref)
	return nil
}

// EntryFromEvent flattens an event into a journal row.
func EntryFromEvent(ev *amqp.ExpenseEvent) sheets.Entry {
	entry := sheets.Entry{
		EventID:    ev.EventID,
		OccurredAt: ev.OccurredAt,
		Event:      string(ev.Type),
		ExpenseID:  ev.ExpenseID,
	}
	if e := ev.Expense; e != nil {
		entry.Title = e.Title
		entry.Amount = e.Amount.String()
		entry.Kind = e.Type
		entry.IsPaid = e.IsPaid
	}
	return entry
}
