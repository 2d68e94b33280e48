package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/product-upsert-api/internal/app/notify"
	"github.com/mrops-br/product-upsert-api/internal/app/service"
	"github.com/mrops-br/product-upsert-api/internal/domain"
	"github.com/mrops-br/product-upsert-api/internal/infrastructure/config"
	"github.com/mrops-br/product-upsert-api/internal/infrastructure/http"
	"github.com/mrops-br/product-upsert-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-upsert-api/internal/infrastructure/notifier"
	"github.com/mrops-br/product-upsert-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/product-upsert-api/internal/infrastructure/repository/postgres"
	"github.com/mrops-br/product-upsert-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	telem, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer := telem.TracerProvider.Tracer("products-api")
	meter := telem.MeterProvider.Meter("products-api")
	logger := telem.Logger

	logger.Info("Starting Products API",
		slog.String("storage", cfg.Storage.Driver),
		slog.String("notifier", cfg.Notifier.Kind),
	)

	repo, db, err := newRepository(ctx, cfg, tracer, logger)
	if err != nil {
		logger.Error("Failed to initialize repository", slog.String("error", err.Error()))
		return
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	productService := service.NewProductService(repo, newNotifier(cfg, logger), time.Now, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	server := http.NewServer(&cfg.Server, &cfg.Metrics, productHandler, logger, telem.MeterProvider)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			logger.Error("Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
}

// newRepository returns the configured product store. The *sql.DB is nil for
// the in-memory store.
func newRepository(ctx context.Context, cfg *config.Config, tracer trace.Tracer, logger *slog.Logger) (domain.ProductRepository, *sql.DB, error) {
	if cfg.Storage.Driver == config.StoragePostgres {
		db, err := postgres.Open(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewProductRepository(db, tracer), db, nil
	}
	return memory.NewProductRepository(tracer, logger), nil, nil
}

func newNotifier(cfg *config.Config, logger *slog.Logger) notify.ProductUpdatedNotifier {
	switch cfg.Notifier.Kind {
	case config.NotifierWebhook:
		return notifier.NewWebhookNotifier(notifier.WebhookConfigFrom(cfg.Notifier), logger)
	case config.NotifierNoOp:
		return notifier.NewNoOpNotifier()
	default:
		return notifier.NewLogNotifier(logger)
	}
}
