package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/mrops-br/product-upsert-api/internal/infrastructure/config"
	"github.com/mrops-br/product-upsert-api/internal/pkg/errs"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open creates the connection pool described by cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errs.New("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, errs.Wrap(err, "open database")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "ping database")
	}

	return db, nil
}
