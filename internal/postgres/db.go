package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const pingTimeout = 5 * time.Second

type PoolOption func(*pgxpool.Config)

// WithMaxConns: 0 оставляет дефолт pgxpool (max(4, NumCPU)).
func WithMaxConns(n int32) PoolOption {
	return func(pc *pgxpool.Config) {
		if n > 0 {
			pc.MaxConns = n
		}
	}
}

// WithApplicationName виден в pg_stat_activity.
func WithApplicationName(name string) PoolOption {
	return func(pc *pgxpool.Config) {
		if name == "" {
			return
		}
		if pc.ConnConfig.RuntimeParams == nil {
			pc.ConnConfig.RuntimeParams = map[string]string{}
		}
		pc.ConnConfig.RuntimeParams["application_name"] = name
	}
}

// Open поднимает пул и сразу проверяет соединение: roomd не должен
// стартовать с недоступной базой.
func Open(ctx context.Context, dsn string, opts ...PoolOption) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConnIdleTime = 5 * time.Minute
	for _, opt := range opts {
		opt(pc)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return pool.Ping(ctx)
}

// Migrate идемпотентна: schema.sql написана через IF NOT EXISTS.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
