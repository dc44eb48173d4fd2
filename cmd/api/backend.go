package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/mongodb"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// backend repositorios y transacciones del motor configurado en DB_DRIVER.
type backend struct {
	tx        inventory.TxRunner
	products  repository.ProductRepository
	users     repository.UserRepository
	stock     repository.StockRepository
	movements repository.StockMovementRepository
	close     func(ctx context.Context)
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger, migrateOnStart bool) (*backend, error) {
	switch cfg.DB.Driver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("conexión a MongoDB: %w", err)
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("índices MongoDB: %w", err)
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("MongoDB conectado")
		return &backend{
			tx:        mongodb.NewTxRunner(client, db),
			products:  mongodb.NewProductRepository(db),
			users:     mongodb.NewUserRepository(db),
			stock:     mongodb.NewStockRepository(db),
			movements: mongodb.NewStockMovementRepository(db),
			close:     func(ctx context.Context) { _ = client.Disconnect(ctx) },
		}, nil

	default:
		if migrateOnStart {
			version, err := postgres.Migrate(cfg.DB.ConnectionString(), log.NewMigrateLogger(false))
			if err != nil {
				return nil, err
			}
			log.Info().Uint("version", version).Msg("migraciones aplicadas")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		return &backend{
			tx:        postgres.NewTxRunner(pool),
			products:  postgres.NewProductRepository(pool),
			users:     postgres.NewUserRepository(pool),
			stock:     postgres.NewStockRepository(pool),
			movements: postgres.NewStockMovementRepository(pool),
			close:     func(context.Context) { pool.Close() },
		}, nil
	}
}
