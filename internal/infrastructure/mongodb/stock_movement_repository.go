package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo colección append-only de movimientos.
type StockMovementRepo struct {
	coll *mongo.Collection
}

// NewStockMovementRepository construye el adaptador.
func NewStockMovementRepository(db *mongo.Database) *StockMovementRepo {
	return &StockMovementRepo{coll: db.Collection(movementsCollection)}
}

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, newMovementDoc(m)); err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID. (nil, nil) si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	var doc movementDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return doc.toEntity(), nil
}

func movementListFilter(f repository.MovementFilter) bson.D {
	filter := bson.D{}
	if f.ProductID != "" {
		filter = append(filter, bson.E{Key: "product_id", Value: f.ProductID})
	}
	if f.Location != "" {
		filter = append(filter, bson.E{Key: "location", Value: f.Location})
	}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "movement_type", Value: f.Type})
	}
	if f.From != nil || f.To != nil {
		date := bson.D{}
		if f.From != nil {
			date = append(date, bson.E{Key: "$gte", Value: *f.From})
		}
		if f.To != nil {
			date = append(date, bson.E{Key: "$lt", Value: *f.To})
		}
		filter = append(filter, bson.E{Key: "movement_date", Value: date})
	}
	return filter
}

// List devuelve movimientos (más recientes primero) según el filtro.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "movement_date", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}
	cur, err := r.coll.Find(ctx, movementListFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	var docs []movementDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stock movements: %w", err)
	}
	out := make([]*entity.StockMovement, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}
