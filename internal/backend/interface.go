// Package backend builds the configured expense store and event publisher.
package backend

import (
	"context"
	"slices"

	"chitieu/internal/amqp"
	"chitieu/internal/store"
)

// CleanupFunc releases what CreateBackend opened.
type CleanupFunc func() error

// BackendResult is a ready store plus the optional event publisher.
type BackendResult struct {
	Store store.Store
	// Publisher is nil when AMQP is not configured.
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return slices.Contains(BackendTypes(), bt)
}
