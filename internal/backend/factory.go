package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chitieu/internal/amqp"
	"chitieu/internal/log"
	"chitieu/internal/storage"
	"chitieu/internal/storage/postgres"
	"chitieu/internal/store"
	"chitieu/internal/store/memory"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With(log.FieldComponent, log.ComponentBackend)}
}

// CreateBackend opens the store for config.Type and, when an AMQP URL is
// set, a publisher. An unreachable broker disables events instead of failing
// startup.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		st      store.Store
		closeSt func() error
		err     error
	)
	switch config.Type {
	case SQLiteBackend:
		var repo *storage.SQLiteRepository
		repo, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		st, closeSt = repo, repo.Close
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case PostgresBackend:
		var pg *postgres.Store
		pg, err = postgres.Open(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		st, closeSt = pg, pg.Close
		f.logger.Info("Initialized Postgres backend")
	case MemoryBackend:
		st = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			publisher = nil
		} else {
			f.logger.Info("Initialized AMQP publisher", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	cleanup := func() error {
		var errs []error
		if publisher != nil {
			errs = append(errs, publisher.Close())
		}
		if closeSt != nil {
			errs = append(errs, closeSt())
		}
		return errors.Join(errs...)
	}

	return &BackendResult{Store: st, Publisher: publisher, Cleanup: cleanup}, nil
}
