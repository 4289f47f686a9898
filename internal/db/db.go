package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"signal-export/internal/config"
)

// NewPool construye el pool de Postgres usado por el espejo de archivos.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Un export es corto; pocas conexiones bastan.
	poolCfg.MaxConns = int32(min(cfg.WorkerCount(), 8))
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}
