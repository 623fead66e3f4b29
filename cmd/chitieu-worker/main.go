// Command chitieu-worker consumes expense events and appends them to the
// journal sheet.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"chitieu/internal/amqp"
	"chitieu/internal/cache"
	"chitieu/internal/cli"
	"chitieu/internal/config"
	"chitieu/internal/log"
	"chitieu/internal/sheets"
	gsheet "chitieu/internal/sheets/google"
	memjournal "chitieu/internal/sheets/memory"
	"chitieu/internal/worker"
)

const dedupeSweepInterval = 10 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting chitieu-worker", log.FieldOperation, log.OpStartup)
	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	journal, err := openJournal(ctx, cfg, logger)
	if err != nil {
		return err
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	w := worker.NewJournalWorker(journal, logger.Base())
	caches := cache.NewManager(logger.Base())
	caches.Register(w.Dedupe())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeExpenseEvents(gctx, w.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error { return caches.Run(gctx, dedupeSweepInterval) })
	return g.Wait()
}

// openJournal returns the Google Sheets journal when a spreadsheet is
// configured and an in-memory one otherwise.
func openJournal(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.JournalWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, journaling to memory only")
		return memjournal.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, err
	}
	logger.Info("Google Sheets journal initialized", "sheet", cfg.GoogleSheetName)
	return client, nil
}
