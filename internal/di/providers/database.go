package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/ShoMaruoka/color-size-tool/internal/config"
	"github.com/ShoMaruoka/color-size-tool/internal/logger"
	"github.com/ShoMaruoka/color-size-tool/internal/session"
	"github.com/ShoMaruoka/color-size-tool/internal/store"
	"github.com/ShoMaruoka/color-size-tool/internal/store/postgres"
	"github.com/ShoMaruoka/color-size-tool/internal/store/sqlite"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
)

// SQLiteHandle wraps the SQLite store with shutdown capability.
// Run history always lives here, whatever the table and product backends are.
type SQLiteHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *SQLiteHandle) Shutdown() error {
	return h.Close()
}

// ProvideSQLite opens the SQLite database.
func ProvideSQLite(i do.Injector) (*SQLiteHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Products.SQLitePath, log.Component("sqlite"))
	if err != nil {
		return nil, err
	}
	return &SQLiteHandle{Store: db}, nil
}

// TablePersistenceHandle holds the configured conversion table backend.
type TablePersistenceHandle struct {
	table.Persistence
	close func() error
}

// Shutdown implements do.Shutdownable.
func (h *TablePersistenceHandle) Shutdown() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// ProvideTablePersistence selects where the conversion table is stored.
func ProvideTablePersistence(i do.Injector) (*TablePersistenceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Table.Backend {
	case config.BackendSQLite:
		db := do.MustInvoke[*SQLiteHandle](i)
		// The SQLite handle owns the connection.
		return &TablePersistenceHandle{Persistence: db.Store}, nil

	case config.BackendBadger:
		db, err := store.New(cfg.Table.BadgerPath, log.Component("badger"))
		if err != nil {
			return nil, err
		}
		log.Info("Conversion table stored in BadgerDB", "path", cfg.Table.BadgerPath)
		return &TablePersistenceHandle{Persistence: db, close: db.Close}, nil

	case config.BackendMemory:
		db, err := store.NewInMemory(log.Component("badger"))
		if err != nil {
			return nil, err
		}
		log.Warn("Conversion table is in memory; edits are lost on exit")
		return &TablePersistenceHandle{Persistence: db, close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown table backend %q", cfg.Table.Backend)
	}
}

// ProductStoreHandle exposes the product source and the resolved-row sink.
type ProductStoreHandle struct {
	Loader session.Loader
	Writer session.Writer
	close  func() error
}

// Shutdown implements do.Shutdownable.
func (h *ProductStoreHandle) Shutdown() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// ProvideProductStore selects the product backend.
func ProvideProductStore(i do.Injector) (*ProductStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Products.Backend {
	case config.ProductSQLite:
		db := do.MustInvoke[*SQLiteHandle](i)
		return &ProductStoreHandle{Loader: db.Store, Writer: db.Store}, nil

	case config.ProductPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		pg, err := postgres.Open(ctx, cfg.Products.DatabaseURL, postgres.PoolConfig{
			MaxConns: int32(cfg.Products.MaxConns), //nolint:gosec // Validate bounds it
		}, log.Component("postgres"))
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return &ProductStoreHandle{Loader: pg, Writer: pg, close: pg.Close}, nil

	default:
		return nil, fmt.Errorf("unknown product backend %q", cfg.Products.Backend)
	}
}
