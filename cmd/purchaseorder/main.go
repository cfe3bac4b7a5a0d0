package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/MarkMiraclee/purchaseorder/internal/auth"
	"github.com/MarkMiraclee/purchaseorder/internal/config"
	"github.com/MarkMiraclee/purchaseorder/internal/handlers"
	"github.com/MarkMiraclee/purchaseorder/internal/service"
	"github.com/MarkMiraclee/purchaseorder/internal/storage"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.SetLevel(cfg.Level())

	if err := run(cfg, log); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
	log.Info("server exited properly")
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer db.Close()

	codec := auth.NewCodec(cfg.TokenConfig())
	svc := service.New(db, codec, cfg.Limits(), log)
	api := handlers.NewAPI(svc, codec, log)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           handlers.NewRouter(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("server started on %s", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logrus.Logger) (storage.Storage, error) {
	if cfg.DatabaseURI == "" {
		log.Warn("DATABASE_URI is empty, using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}
	return storage.NewPostgresStorage(ctx, cfg.DatabaseURI, log)
}
