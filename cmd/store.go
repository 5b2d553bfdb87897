package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpapi "github.com/tinoosan/wealth/internal/httpapi/v1"
	"github.com/tinoosan/wealth/internal/config"
	"github.com/tinoosan/wealth/internal/service/holding"
	"github.com/tinoosan/wealth/internal/service/networth"
	"github.com/tinoosan/wealth/internal/service/transaction"
	"github.com/tinoosan/wealth/internal/service/user"
	"github.com/tinoosan/wealth/internal/storage/memory"
	pgstore "github.com/tinoosan/wealth/internal/storage/postgres"
	sqlitestore "github.com/tinoosan/wealth/internal/storage/sqlite"
)

// ledgerStore is everything the services need from a backend.
type ledgerStore interface {
	user.Repo
	user.Writer
	transaction.Repo
	transaction.Writer
	holding.Repo
	holding.Writer
	networth.Repo
	networth.Writer
	httpapi.ReadyChecker
}

var (
	_ ledgerStore = (*memory.Store)(nil)
	_ ledgerStore = (*pgstore.Store)(nil)
	_ ledgerStore = (*sqlitestore.Store)(nil)
)

type backend struct {
	name  string
	store ledgerStore
	close func()
}

var errNoSQLBackend = errors.New("no SQL backend configured: set database.url or database.sqlite_path")

// openStore picks postgres when database.url is set, then sqlite, else memory.
// SQLite schemas are always brought up to date; postgres only when migrate is set.
func openStore(ctx context.Context, dc config.DatabaseConfig, migrate bool, logger *slog.Logger) (backend, error) {
	switch {
	case dc.URL != "":
		pg, err := pgstore.Open(ctx, dc.URL)
		if err != nil {
			return backend{}, fmt.Errorf("connect to postgres: %w", err)
		}
		if migrate {
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return backend{}, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return backend{name: "postgres", store: pg, close: pg.Close}, nil
	case dc.SQLitePath != "":
		sq, err := sqlitestore.Open(ctx, dc.SQLitePath)
		if err != nil {
			return backend{}, err
		}
		if err := sq.Migrate(ctx); err != nil {
			_ = sq.Close()
			return backend{}, fmt.Errorf("migrate sqlite: %w", err)
		}
		return backend{name: "sqlite", store: sq, close: func() {
			if err := sq.Close(); err != nil {
				logger.Error("close sqlite", "err", err)
			}
		}}, nil
	default:
		return backend{name: "memory", store: memory.New(), close: func() {}}, nil
	}
}
