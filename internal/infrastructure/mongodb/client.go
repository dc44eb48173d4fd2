// Package mongodb implementa los puertos de persistencia sobre MongoDB (DB_DRIVER=mongo).
// Las colecciones replican las tablas de PostgreSQL; la unicidad de (product_id, location)
// la garantiza un índice único y las cantidades se modifican con findOneAndUpdate condicional.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jhoicas/stock-ledger/pkg/config"
)

const (
	productsCollection  = "products"
	usersCollection     = "users"
	stockCollection     = "stock_records"
	movementsCollection = "stock_movements"
)

// Connect abre el cliente, verifica la conexión y devuelve la base configurada.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		return nil, nil, fmt.Errorf("MONGO_URI no configurado")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes crea los índices que sostienen las invariantes de unicidad y las consultas.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		productsCollection: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		stockCollection: {
			{
				Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "location", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uq_stock_product_location"),
			},
			{Keys: bson.D{{Key: "location", Value: 1}}},
		},
		movementsCollection: {
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "movement_date", Value: -1}}},
			{Keys: bson.D{{Key: "location", Value: 1}}},
			{Keys: bson.D{{Key: "performed_by", Value: 1}}},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("crear índices de %s: %w", coll, err)
		}
	}
	return nil
}
