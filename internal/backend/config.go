package backend

import (
	"errors"
	"fmt"

	"chitieu/internal/config"
)

// FromAppConfig picks the storage and broker settings out of the process
// configuration.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("backend: nil app config")
	}
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("backend %q: must be one of %v", cfg.DataBackend, BackendTypes())
	}
	return Config{
		Type:         bt,
		SQLiteDBPath: cfg.SQLiteDBPath,
		DatabaseURL:  cfg.DatabaseURL,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		AMQPQueue:    cfg.AMQPQueue,
	}, nil
}

// Validate repeats the checks CreateBackend relies on so a Config built by
// hand fails early.
func (c Config) Validate() error {
	var errs []error
	switch c.Type {
	case MemoryBackend:
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			errs = append(errs, errors.New("sqlite backend needs a database path"))
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres backend needs a database URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("backend %q: must be one of %v", c.Type, BackendTypes()))
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		errs = append(errs, errors.New("AMQP URL set without exchange and queue"))
	}
	return errors.Join(errs...)
}

func BackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}
