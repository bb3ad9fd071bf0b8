package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/store"
)

// initStore opens the configured store backend. Callers own Close and
// run Migrate themselves.
func initStore(ctx context.Context) (store.Store, error) {
	opts := store.Options{
		Pool: &store.PoolConfig{
			MaxConns: int32(cfg.Store.Pool.MaxConns),
			MinConns: int32(cfg.Store.Pool.MinConns),
		},
	}

	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.DSN, opts)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		zap.L().Debug("store opened", zap.String("driver", "sqlite"), zap.String("dsn", cfg.Store.DSN))
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DSN, opts)
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		zap.L().Debug("store opened", zap.String("driver", "postgres"))
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q (want sqlite or postgres)", cfg.Store.Driver)
	}
}
