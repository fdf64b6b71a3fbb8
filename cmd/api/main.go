package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "playgroup_finder/internal/adapters/http_server"
	"playgroup_finder/internal/adapters/memory"
	"playgroup_finder/internal/adapters/observability"
	redisad "playgroup_finder/internal/adapters/redis"
	"playgroup_finder/internal/adapters/sheets"
	"playgroup_finder/internal/app"
	"playgroup_finder/internal/domain"
	"playgroup_finder/internal/filter"
	"playgroup_finder/internal/shared"
	mysqlrepo "playgroup_finder/internal/storage/mysql"
)

func main() {
	// a missing .env is fine; real env vars win
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	src, closeSrc := rowSource(cfg)
	defer closeSrc()

	cache, closeCache := filterCache(ctx, cfg)
	defer closeCache()

	eng := filter.NewEngine(filter.WithLocation(cfg.Location()))
	q := app.NewQueryService(app.NewSheetService(src, cfg.SheetCacheTTL), eng, cache, cfg.FilterCacheTTL)

	// http
	srv := server.New(cfg.CORSOrigins)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("source", cfg.DataSource).
		Dur("sheet_ttl", cfg.SheetCacheTTL).
		Dur("filter_ttl", cfg.FilterCacheTTL).
		Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

// rowSource picks where the sheet comes from: the live spreadsheet, or the
// last snapshot the ingestor stored in MySQL.
func rowSource(cfg shared.Config) (domain.RowSource, func()) {
	switch cfg.DataSource {
	case shared.SourceMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Str("range", cfg.SheetRange).Msg("reading sheet snapshots from database")
		return mysqlrepo.NewSnapshotSource(mysqlrepo.New(db), cfg.SheetRange), func() { _ = db.Close() }
	case shared.SourceSheets:
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
		return client, func() {}
	default:
		log.Fatal().Str("source", cfg.DataSource).Msg("DATA_SOURCE must be sheets or mysql")
		return nil, nil
	}
}

// filterCache uses Redis when configured and reachable, otherwise an
// in-process cache swept on a ticker.
func filterCache(ctx context.Context, cfg shared.Config) (domain.Cache, func()) {
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := rc.Ping(pctx)
		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Msg("filtered results cached in redis")
			return rc, func() { _ = rc.Close() }
		}
		log.Warn().Err(err).Msg("redis unavailable, falling back to memory cache")
		_ = rc.Close()
	}

	mc := memory.New(cfg.FilterCacheTTL)
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := mc.Sweep(); n > 0 {
					log.Debug().Int("evicted", n).Msg("filter cache swept")
				}
			}
		}
	}()
	return mc, func() {}
}
