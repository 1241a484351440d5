package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codetesla51/gatez/gate"
	"github.com/codetesla51/gatez/store"
)

func main() {
	logger := initLogger()
	defer logger.Sync()

	cfg, err := LoadConfig("gatezd")
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}

	st, err := newStore(cfg.Store)
	if err != nil {
		logger.Fatal("building store", zap.Error(err))
	}
	defer st.Close()

	limiter, err := gate.NewKeyed(gate.Config{
		MaxAttempts: cfg.Gate.MaxAttempts,
		Window:      cfg.Gate.Window,
		Cooldown:    cfg.Gate.Cooldown,
	}, st)
	if err != nil {
		logger.Fatal("building limiter", zap.Error(err))
	}

	// The API guard is process-local; its keys are client IPs, not gate keys
	guardStore := store.NewMemoryStore()
	defer guardStore.Close()

	guard, err := gate.NewKeyed(gate.Config{
		MaxAttempts: cfg.Guard.MaxAttempts,
		Window:      cfg.Guard.Window,
		Cooldown:    cfg.Guard.Cooldown,
	}, guardStore)
	if err != nil {
		logger.Fatal("building api guard", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres rows outlive their TTL until something sweeps them
	if ds, ok := st.(*store.DatabaseStore); ok {
		go runCleanup(ctx, ds, cfg.Store.CleanupInterval, logger)
	}

	a := &api{limiter: limiter, store: st, logger: logger}
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      newRouter(a, guard),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gatezd listening",
			zap.String("addr", cfg.Server.Address),
			zap.String("backend", cfg.Store.Backend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
		logger.Info("gatezd stopped")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}

func initLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func runCleanup(ctx context.Context, ds *store.DatabaseStore, every time.Duration, logger *zap.Logger) {
	if every <= 0 {
		every = 5 * time.Minute
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := ds.CleanupExpired(ctx); err != nil {
				logger.Warn("expired state cleanup failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
