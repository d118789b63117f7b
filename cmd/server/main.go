package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/waitline/waitline/internal/api"
	"github.com/waitline/waitline/internal/business"
	"github.com/waitline/waitline/internal/cache/rediscache"
	"github.com/waitline/waitline/internal/config"
	"github.com/waitline/waitline/internal/db"
	"github.com/waitline/waitline/internal/dispatch"
	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/estimate"
	"github.com/waitline/waitline/internal/geo"
	"github.com/waitline/waitline/internal/ledger"
	"github.com/waitline/waitline/internal/metrics"
	"github.com/waitline/waitline/internal/notify"
	"github.com/waitline/waitline/internal/proximity"
	"github.com/waitline/waitline/internal/ratelimiter"
	"github.com/waitline/waitline/internal/service"
	"github.com/waitline/waitline/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// ---- storage ----
	var (
		led        ledger.Ledger
		businesses business.Store
	)
	switch cfg.Store {
	case "postgres":
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("database migrations applied")

		led = ledger.NewPgLedger(pool)
		businesses = business.NewPgStore(pool)
	default:
		led = ledger.NewMemoryLedger()
		businesses = seedMemoryStore()
		logger.Info("running with in-memory storage")
	}

	if cfg.RedisAddr != "" {
		rc := rediscache.New(cfg.RedisAddr)
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, caching disabled", zap.Error(err))
		} else {
			defer rc.Close()
			businesses = business.NewCachedStore(businesses, rc, cfg.CacheTTL)
			logger.Info("business cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	// ---- delivery collaborator ----
	var notifier notify.Notifier
	switch {
	case len(cfg.KafkaBrokers) > 0:
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kn.Close()
		notifier = kn
		logger.Info("kafka delivery enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	case cfg.WebhookURL != "":
		notifier = notify.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookTimeout)
		logger.Info("webhook delivery enabled", zap.String("url", cfg.WebhookURL))
	default:
		notifier = notify.NewLogNotifier(logger)
		logger.Info("log-only delivery enabled")
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := dispatch.New()
	limiter := ratelimiter.New(cfg.RateLimit)
	est := estimate.New(led, businesses, logger)

	svc := service.NewQueueService(
		led, businesses, est,
		proximity.NewRegistry(),
		proximity.NewEvaluator(logger),
		q, logger,
		service.Hooks{
			OnJoin: func(etaMinutes int) {
				m.QueueJoins.Inc()
				m.EstimatedWait.Observe(float64(etaMinutes))
			},
			OnLeave:      m.QueueLeaves.Inc,
			OnAlertFired: m.AlertsFired.Inc,
		},
	)

	// ---- worker pool ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	onSent, onFailed := m.WorkerHooks()
	pool := worker.NewPool(cfg.DispatchWorkers, q, led, businesses, notifier, limiter, logger, worker.MetricHooks{
		OnSent:   onSent,
		OnFailed: onFailed,
	})
	pool.Start(workerCtx)

	go sampleDepths(workerCtx, q, m)

	// ---- HTTP server ----
	router := api.NewRouter(svc, businesses, q, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal all workers to stop pulling new events.
	cancelWorkers()

	// 3. Wait for in-flight workers to finish their current event.
	pool.Wait()

	logger.Info("server stopped cleanly")
}

// sampleDepths keeps the dispatch depth gauges fresh for Prometheus scrapes.
func sampleDepths(ctx context.Context, q *dispatch.Queue, m *metrics.Metrics) {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			urgent, normal := q.Depths()
			m.DispatchDepthUrgent.Set(float64(urgent))
			m.DispatchDepthNormal.Set(float64(normal))
		}
	}
}

// seedMemoryStore loads a small demo catalogue so the in-memory mode is
// usable out of the box.
func seedMemoryStore() *business.MemoryStore {
	store := business.NewMemoryStore()
	store.Put(&domain.Business{
		ID:                1,
		Name:              "City Dental Clinic",
		Type:              "Clinic",
		Address:           "14 Harbor St",
		Location:          geo.Coord{Lat: 41.0082, Lon: 28.9784},
		AvgServiceMinutes: 15,
		IsOpen:            true,
	})
	store.Put(&domain.Business{
		ID:                2,
		Name:              "Corner Barber",
		Type:              "Salon",
		Address:           "3 Elm Ave",
		Location:          geo.Coord{Lat: 41.0151, Lon: 28.9795},
		AvgServiceMinutes: 20,
		IsOpen:            true,
	})
	store.Put(&domain.Business{
		ID:                3,
		Name:              "Rapid Auto Garage",
		Type:              "Garage",
		Address:           "88 Industrial Rd",
		Location:          geo.Coord{Lat: 40.9923, Lon: 29.0275},
		AvgServiceMinutes: 45,
		IsOpen:            true,
	})
	return store
}
