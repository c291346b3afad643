// Package app assembles the application from configuration: storage
// backend, transaction manager, repositories and domain services.
package app

import (
	"context"
	"fmt"

	"stockbook/internal/config"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain/audit"
	"stockbook/internal/domain/catalogs/material"
	"stockbook/internal/domain/catalogs/sofamodel"
	"stockbook/internal/domain/catalogs/worker"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/infrastructure/storage"
	"stockbook/internal/infrastructure/storage/filestore"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/pkg/logger"
)

// App holds the wired application.
type App struct {
	Config config.Config
	Log    *logger.Logger

	Store   storage.Store
	Journal audit.Recorder

	Materials  *material.Service
	Workers    *worker.Service
	SofaModels *sofamodel.Service
	Ledger     *ledger.Service

	pool *postgres.Pool
}

// New builds the application for the configured storage driver.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{Config: cfg, Log: log, Journal: audit.Nop{}}

	var txm tx.Manager
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := postgres.RunMigrations(cfg.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}

		poolCfg := postgres.DefaultPoolConfig(cfg.Postgres.DSN)
		if cfg.Postgres.MaxConns > 0 {
			poolCfg.MaxConns = cfg.Postgres.MaxConns
		}
		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool

		manager := postgres.NewTxManager(pool)
		a.Store = postgres.NewStore(manager)
		txm = manager

		journal, err := postgres.NewJournal(manager)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init journal: %w", err)
		}
		a.Journal = journal

	case config.DriverFile:
		store, err := filestore.New(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open data dir: %w", err)
		}
		a.Store = store
		txm = tx.Nop{}

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	materials := storage.NewCollection[material.Material](a.Store, storage.KeyMaterials)
	transactions := storage.NewCollection[ledger.StockTransaction](a.Store, storage.KeyTransactions)
	workers := storage.NewCollection[worker.Worker](a.Store, storage.KeyWorkers)
	sofaModels := storage.NewCollection[sofamodel.SofaModel](a.Store, storage.KeySofaModels)

	rec := ledger.Reconciler{AllowNegative: cfg.Ledger.AllowNegative}

	a.Materials = material.NewService(materials, txm, a.Journal)
	a.Workers = worker.NewService(workers, txm)
	a.SofaModels = sofamodel.NewService(sofaModels, txm)
	a.Ledger = ledger.NewService(transactions, materials, workers, sofaModels, rec, txm, a.Journal)

	return a, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
}
