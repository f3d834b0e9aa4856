package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mailstore-bot/internal/bot"
	"mailstore-bot/internal/broadcast"
	"mailstore-bot/internal/database"
	"mailstore-bot/internal/flow"
	"mailstore-bot/internal/health"
	"mailstore-bot/internal/idempotency"
	"mailstore-bot/internal/lifecycle"
	"mailstore-bot/internal/middleware"
	"mailstore-bot/internal/ratelimit"
	"mailstore-bot/internal/repository"
	"mailstore-bot/internal/stockcache"
	"mailstore-bot/pkg/config"
	"mailstore-bot/pkg/graceful"
	"mailstore-bot/pkg/logger"
	"mailstore-bot/pkg/metrics"
	pkgredis "mailstore-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		return 1
	}

	log := logger.New(*cfg)
	log.Info("starting mailstore bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("http_port", cfg.Server.Port),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to init sentry", slog.Any("error", err))
			return 1
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		return 1
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		return 1
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		return 1
	}

	// Redis is optional; without it flow state, dedup and rate limiting fall
	// back to in-process equivalents.
	var rdb *pkgredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = pkgredis.New(ctx, pkgredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			return 1
		}
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Error("error closing redis", slog.Any("error", cerr))
			}
		}()
	}

	runner := lifecycle.NewRunner(ctx, log)

	var (
		flowStorage flow.Storage
		guard       idempotency.Guard
		limiter     ratelimit.Limiter
		cache       *stockcache.Cache
	)
	if rdb != nil {
		flowStorage = flow.NewRedisStorage(rdb.Client, cfg.Flow.TTL, log)
		guard = idempotency.NewRedisGuard(rdb.Client, log)
		limiter = ratelimit.NewAdaptiveLimiter(
			ratelimit.NewRedisLimiter(rdb.Client, log),
			ratelimit.NewMemoryLimiter(log),
			log,
		)
		cache = stockcache.NewCache(rdb.Client)

		rlCleaner := ratelimit.NewCleaner(rdb.Client, log, time.Hour)
		runner.Go("ratelimit-cleaner", rlCleaner.Run)
	} else {
		memory := flow.NewMemoryStorage()
		flowStorage = memory
		guard = idempotency.NewMemoryGuard()
		limiter = ratelimit.NewMemoryLimiter(log)

		flowCleaner := flow.NewCleaner(memory, log, cfg.Flow.TTL, cfg.Flow.CleanupInterval)
		runner.Go("flow-cleaner", flowCleaner.Run)
	}

	tracker := flow.NewTracker(flowStorage, flow.Config{MinDeposit: cfg.Store.MinDeposit}, log)

	users := repository.NewUserRepository(db, log)
	stocks := repository.NewStockRepository(db, log)
	deposits := repository.NewDepositRepository(db, log)
	settings := repository.NewSettingsRepository(db, log)
	ledgerRepo := repository.NewLedgerRepository(db, log)

	rateLimitMw := middleware.NewRateLimitMiddleware(limiter, cfg.RateLimit, cfg.Bot.AdminID, log)

	b, err := bot.New(*cfg, log, bot.Dependencies{
		Users:      users,
		Stocks:     stocks,
		Deposits:   deposits,
		Settings:   settings,
		Ledger:     ledgerRepo,
		Tracker:    tracker,
		Guard:      guard,
		RateLimit:  rateLimitMw,
		StockCache: cache,
		Tasks:      runner,
	})
	if err != nil {
		log.Error("failed to initialize bot", slog.Any("error", err))
		return 1
	}

	config.Watch(v, cfg, func(bc config.BroadcastConfig, rl config.RateLimitConfig) {
		rateLimitMw.UpdateConfig(rl)
		b.Dispatcher().UpdateConfig(broadcast.Config{
			SendTimeout: bc.SendTimeout,
			Pace:        bc.Pace,
		})
	}, log)

	activity := metrics.NewActivityCollector(users, 0)
	runner.Go("activity-collector", activity.Run)

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	if rdb != nil {
		checker.AddCheck("redis", health.NewRedisChecker(rdb.Client))
	}

	httpServer := newObservabilityServer(cfg.Server.Port, checker, log)
	srv := graceful.NewServer(log, httpServer, cfg.Server.ShutdownTimeout)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("observability server stopped", slog.Any("error", err))
		}
	}()

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram-bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("background-tasks", runner.Wait)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := shutdown.Execute(shutdownCtx); err != nil {
			log.Error("shutdown finished with errors", slog.Any("error", err))
		}
	}()

	log.Info("mailstore bot is running")
	b.Start()

	log.Info("mailstore bot stopped")
	return 0
}

func newObservabilityServer(port string, checker *health.Checker, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())

		status := http.StatusOK
		for _, state := range results {
			if state != "OK" {
				status = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		for name, state := range results {
			_, _ = w.Write([]byte(name + ": " + state + "\n"))
		}
	})

	return &http.Server{
		Addr:              port,
		Handler:           middleware.New(log)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
