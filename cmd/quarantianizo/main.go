package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quarantianizo/internal/analytics"
	"quarantianizo/internal/bot"
	"quarantianizo/internal/cleanup"
	"quarantianizo/internal/config"
	"quarantianizo/internal/modules/audit"
	"quarantianizo/internal/session"
	"quarantianizo/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := storage.Open(ctx, storage.OptionsFromConfig(cfg), logger)
	defer store.Close()

	registries := session.New(cfg.BotOwnerID)
	membercountTTL := time.Duration(cfg.Registries.MembercountTTLMinutes) * time.Minute
	registries.Membercount.WithTTL(membercountTTL)
	auditLogger := audit.NewLogger(store, logger)
	analyticsEngine := analytics.New(store)

	scheduler, err := cleanup.New(cleanup.Config{
		Schedule:       cfg.Storage.CleanupSchedule,
		MembercountTTL: membercountTTL,
	}, store, registries.Membercount, registries.Owners, logger)
	if err != nil {
		logger.Fatal("cleanup init failed", zap.Error(err))
	}

	botSvc, err := bot.New(cfg, logger, store, registries, auditLogger, analyticsEngine)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}
	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal("cleanup start failed", zap.Error(err))
	}
	logger.Info("bot started", zap.String("storage", store.Backend()))

	group, groupCtx := errgroup.WithContext(ctx)
	if cfg.Health.Enabled {
		server := &http.Server{Addr: cfg.Health.Addr, Handler: healthHandler(store)}
		group.Go(func() error {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("health server error", zap.Error(err))
	}
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	botSvc.Close(shutdownCtx)
}

func healthHandler(store *storage.Store) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(store.Stats(r.Context()))
	})
	return mux
}
