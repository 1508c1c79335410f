package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/subculture-collective/hooksink/internal/config"
	"github.com/subculture-collective/hooksink/internal/dispatch"
	"github.com/subculture-collective/hooksink/internal/httpserver"
	"github.com/subculture-collective/hooksink/internal/ledger"
	"github.com/subculture-collective/hooksink/internal/signature"
)

// main boots the receiver: config → logger → ledger → dispatcher → HTTP server.
func main() {
	// Refuses to start without WEBHOOK_SECRET.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	led, err := newLedger(cfg, logger)
	if err != nil {
		logger.Fatal("ledger init failed", zap.Error(err))
	}
	defer led.Close()

	disp := dispatch.New(logger, cfg.HandlerTimeout)
	dispatch.RegisterClipHandlers(disp, logger)

	verifier := signature.New(cfg.Secret)
	router := httpserver.NewRouter(cfg, led, disp, verifier, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server started", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}

// newLogger builds a production zap logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// newLedger selects the dedup backend: Postgres when LEDGER_DB_URL is set,
// otherwise the bounded in-memory ledger.
func newLedger(cfg config.Config, logger *zap.Logger) (ledger.Ledger, error) {
	if cfg.LedgerDBURL == "" {
		logger.Info("using memory ledger", zap.Int("capacity", cfg.LedgerCapacity))
		return ledger.NewMemory(cfg.LedgerCapacity), nil
	}

	pg, err := ledger.NewPostgres(cfg.LedgerDBURL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	logger.Info("using postgres ledger")
	return pg, nil
}
