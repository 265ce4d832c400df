// README: Entry point; loads config, wires services, starts HTTP server and the revenue reconciler.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"parking/internal/config"
	httptransport "parking/internal/http"
	"parking/internal/http/handlers"
	"parking/internal/infra"
	"parking/internal/modules/event"
	"parking/internal/modules/lot"
	"parking/internal/modules/pricing"
	"parking/internal/modules/revenue"
	"parking/internal/modules/spotlock"
	"parking/internal/modules/webhook"
	"parking/internal/queue"
)

type spotStore interface {
	spotlock.Locker
	spotlock.IdempotencyStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		logger.Fatal("db init", zap.Error(err))
	}
	defer dbPool.Close()

	var spots spotStore
	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := infra.PingRedis(ctx, redisClient); err != nil {
		logger.Warn("redis unavailable; spot locks are process-local", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = redisClient.Close()
		spots = spotlock.NewMemoryStore(nil)
	} else {
		defer func() { _ = redisClient.Close() }()
		spots = spotlock.NewRedisStore(redisClient)
	}

	loc := cfg.Location()

	lotSvc := lot.NewService(lot.NewStore(dbPool), loc)
	pricingSvc := pricing.NewService(lotSvc, nil)
	eventStore := event.NewStore(dbPool)

	revenueStore := revenue.NewStore(dbPool)
	ledger := revenue.NewLedger(revenueStore, cfg.Revenue.Currency, loc, nil)
	reconciler := revenue.NewReconciler(revenueStore, ledger, cfg.Revenue.ReconcileEvery, logger.Named("reconcile"))

	publisher := queue.NewPublisher(cfg.AMQP.URL, logger.Named("amqp"))

	whCfg := webhook.Config{
		LockTTL:        cfg.Webhook.LockTTL,
		IdempotencyTTL: cfg.Webhook.IdempotencyTTL,
		MaxInFlight:    cfg.Webhook.MaxInFlight,
		Currency:       cfg.Revenue.Currency,
	}
	whLog := logger.Named("webhook")
	dispatcher := webhook.NewDispatcher(
		webhook.NewEntryHandler(eventStore, lotSvc, whCfg, whLog),
		webhook.NewParkedHandler(eventStore, lotSvc, pricingSvc, spots, spots, ledger, whCfg, whLog),
		webhook.NewExitHandler(eventStore, lotSvc, spots, ledger, publisher, whCfg, whLog),
		cfg.Webhook.MaxInFlight,
		whLog,
	)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Webhook: handlers.NewWebhookHandler(dispatcher, loc),
		Revenue: handlers.NewRevenueHandler(lotSvc, ledger, cfg.Revenue.Currency),
		Log:     logger.Named("http"),
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go reconciler.RunReconcileTicker(ctx)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server", zap.Error(err))
	}
	<-drained
	logger.Info("stopped")
}
