package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"playgroup_finder/internal/adapters/observability"
	"playgroup_finder/internal/adapters/sheets"
	"playgroup_finder/internal/app"
	"playgroup_finder/internal/shared"
	mysqlrepo "playgroup_finder/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	log.Info().
		Str("sheet", cfg.SheetID).
		Strs("ranges", cfg.SheetRanges).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := sheets.New(sheets.Options{
		BaseURL:     cfg.SheetsBase,
		SheetID:     cfg.SheetID,
		Range:       cfg.SheetRange,
		ClientEmail: cfg.ClientEmail,
		PrivateKey:  cfg.PrivateKey,
		APIKey:      cfg.SheetsAPIKey,
		RPS:         cfg.SheetsRPS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sheets client")
	}
	syncer := app.NewSyncService(client, repo)
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, rng := range cfg.SheetRanges {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("ingestion interrupted")
			break
		}

		wg.Add(1)
		go func(rng string) {
			defer wg.Done()
			defer sem.Release(1)

			if err := syncer.SyncRange(ctx, rng); err != nil {
				failed.Add(1)
				log.Warn().Str("range", rng).Err(err).Msg("sync failed")
				return
			}
			log.Info().Str("range", rng).Msg("sync ok")
		}(rng)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Error().Int32("failed", n).Int("ranges", len(cfg.SheetRanges)).Msg("ingestion completed with failures")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("ingestion completed")
}
