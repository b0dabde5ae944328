package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/alert"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/config"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/logging"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/server"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/session"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage/bolt"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/theme"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := bolt.New(cfg.Storage.Path, bolt.WithLogger(logger))
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if n, err := store.PurgeRevocations(ctx); err != nil {
		logger.Warn("purge revocations", zap.Error(err))
	} else if n > 0 {
		logger.Info("purged expired revocations", zap.Int("count", n))
	}

	authSvc, err := session.NewAuthService(cfg, store, logger)
	if err != nil {
		logger.Fatal("init auth", zap.Error(err))
	}

	pref := theme.New(store, logger)
	if err := pref.Init(ctx); err != nil {
		logger.Warn("load theme", zap.Error(err))
	}

	notifier, err := alert.New(cfg, logger)
	if err != nil {
		logger.Fatal("init alert", zap.Error(err))
	}
	defer notifier.Close()

	srv := server.New(cfg, store, authSvc, pref, notifier, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	// graceful shutdown
	waitForSignal()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
