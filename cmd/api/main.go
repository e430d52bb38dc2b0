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
	"github.com/rs/zerolog/log"

	server "rental_yield/internal/adapters/http_server"
	"rental_yield/internal/adapters/observability"
	redisad "rental_yield/internal/adapters/redis"
	"rental_yield/internal/app"
	"rental_yield/internal/domain"
	"rental_yield/internal/shared"
	mysqlrepo "rental_yield/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	policy := cfg.Policy()
	log.Info().
		Float64("cleans_per_month", policy.CleansPerMonth).
		Float64("booked_nights", policy.BookedNightsPerMonth).
		Bool("carry_month_overflow", policy.CarryMonthOverflow).
		Msg("calculator policy")

	// deps: storage and cache are optional, the built-in table always works
	var (
		repo  domain.RentRepository
		cache domain.Cache
	)
	if !cfg.UseBuiltinTable {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)

		if cfg.RedisAddr != "" {
			rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
			defer rc.Close()
			if err := rc.Ping(context.Background()); err != nil {
				log.Warn().Err(err).Msg("redis unavailable, rent table will not be cached")
			} else {
				cache = rc
			}
		}
	} else {
		log.Info().Msg("using built-in rent table only; history disabled")
	}

	tables := app.NewTableSource(repo, cache, cfg.CacheTTL, domain.DefaultRentTable())
	calc := app.NewCalculationService(tables, repo, policy)

	// http
	srv := server.New(server.Options{
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Calc: calc})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
