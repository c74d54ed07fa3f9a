package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/server"
	"go-chi-calculator/internal/store"
	"go-chi-calculator/internal/theme"
	"go-chi-calculator/internal/widget"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load("", os.Getenv)
	if err != nil {
		panic(err)
	}

	// Logger
	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Tracing, metrics, log export
	telemetryShutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer telemetryShutdown(context.Background())

	// Store
	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		observability.Logger.Fatal("opening store", zap.Error(err))
	}
	defer st.Close()

	registry := widget.NewRegistry(st, cfg.DefaultTheme(), observability.Logger)

	// System theme signal
	if cfg.Theme.SignalFile != "" {
		src, err := theme.NewFileSource(cfg.Theme.SignalFile, observability.Logger)
		if err != nil {
			observability.Logger.Fatal("watching theme file", zap.Error(err))
		}
		go src.Run(ctx)
		go registry.FollowSystemTheme(ctx, src)
	}

	// Router
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.NewRouter(registry),
	}

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.String("store", cfg.Store.Driver),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(ctx, srv, cfg.ShutdownTimeout)
}

func waitForShutdown(ctx context.Context, srv *http.Server, timeout time.Duration) {

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		observability.Logger.Warn("shutdown", zap.Error(err))
	}
}
