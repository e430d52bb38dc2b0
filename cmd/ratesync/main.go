package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"rental_yield/internal/adapters/observability"
	"rental_yield/internal/adapters/ratesapi"
	redisad "rental_yield/internal/adapters/redis"
	"rental_yield/internal/app"
	"rental_yield/internal/domain"
	"rental_yield/internal/shared"
	mysqlrepo "rental_yield/internal/storage/mysql"
)

const runTimeout = 2 * time.Minute

func main() {
	seed := flag.Bool("seed", false, "write the built-in rent table to storage before syncing")
	once := flag.Bool("once", false, "run a single sync even when SYNC_CRON is set")
	flag.Parse()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "ratesync")

	log.Info().
		Str("base", cfg.RatesBase).
		Int("workers", cfg.Workers).
		Str("cron", cfg.SyncCron).
		Msg("ratesync starting")

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
	if *seed {
		if err := repo.SeedRentRows(context.Background(), domain.DefaultRentTable().Rows(), "builtin"); err != nil {
			log.Fatal().Err(err).Msg("seed rent table failed")
		}
		log.Info().Msg("built-in rent table seeded")
	}

	client, err := ratesapi.New(cfg.RatesBase, cfg.RatesKey, cfg.RatesRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rates client")
	}
	if cfg.RatesKey == "" {
		log.Warn().Msg("RATES_API_KEY is empty")
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}
	tables := app.NewTableSource(repo, cache, cfg.CacheTTL, domain.DefaultRentTable())
	syncer := app.NewRateSyncService(client, repo, tables)

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		failed := 0
		for b, err := range syncer.SyncAll(ctx, cfg.Workers) {
			observability.ObserveRateSync(string(b), err)
			if err != nil {
				failed++
				log.Warn().Str("bedrooms", string(b)).Err(err).Msg("sync failed")
				continue
			}
			log.Info().Str("bedrooms", string(b)).Msg("sync ok")
		}
		log.Info().Int("failed", failed).Msg("rate sync completed")
	}

	if cfg.SyncCron == "" || *once {
		run()
		return
	}

	observability.MustRegisterDefault()
	observability.Serve(cfg.MetricsAddr)

	c := cron.New()
	if _, err := c.AddFunc(cfg.SyncCron, run); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.SyncCron).Msg("invalid SYNC_CRON")
	}
	c.Start()
	log.Info().Str("cron", cfg.SyncCron).Msg("scheduler started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("stopping scheduler")
	<-c.Stop().Done()
}
