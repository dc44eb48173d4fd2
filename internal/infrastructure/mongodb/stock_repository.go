package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre la colección stock_records.
type StockRepo struct {
	coll *mongo.Collection
}

// NewStockRepository construye el adaptador de stock.
func NewStockRepository(db *mongo.Database) *StockRepo {
	return &StockRepo{coll: db.Collection(stockCollection)}
}

func pairFilter(productID, location string) bson.D {
	return bson.D{{Key: "product_id", Value: productID}, {Key: "location", Value: location}}
}

// applyDeltaUpdate filtro y update del findOneAndUpdate condicional.
// Una salida exige current_quantity + delta >= 0 sin negar delta; una entrada exige
// que ni current_quantity ni total_in desborden int64.
func applyDeltaUpdate(productID, location string, delta int64, at time.Time) (bson.D, bson.D) {
	filter := pairFilter(productID, location)
	inc := bson.D{{Key: "current_quantity", Value: delta}}
	set := bson.D{{Key: "updated_at", Value: at}}
	if delta > 0 {
		ceiling := math.MaxInt64 - delta
		filter = append(filter,
			bson.E{Key: "current_quantity", Value: bson.D{{Key: "$lte", Value: ceiling}}},
			bson.E{Key: "total_in", Value: bson.D{{Key: "$lte", Value: ceiling}}},
		)
		inc = append(inc, bson.E{Key: "total_in", Value: delta})
		set = append(set, bson.E{Key: "last_in_date", Value: at})
	} else {
		filter = append(filter,
			bson.E{Key: "$expr", Value: bson.D{{Key: "$gte", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{"$current_quantity", delta}}}, 0,
			}}}},
			bson.E{Key: "total_out", Value: bson.D{{Key: "$lte", Value: math.MaxInt64 + delta}}},
		)
		inc = append(inc, bson.E{Key: "total_out", Value: -delta})
		set = append(set, bson.E{Key: "last_out_date", Value: at})
	}
	return filter, bson.D{{Key: "$inc", Value: inc}, {Key: "$set", Value: set}}
}

// GetOrCreate resuelve el registro del par o lo crea vacío con updateOne(upsert, $setOnInsert).
func (r *StockRepo) GetOrCreate(ctx context.Context, productID, location string, now time.Time) (*entity.StockRecord, error) {
	doc := newStockDoc(entity.NewStockRecord(uuid.New().String(), productID, location, now))
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "_id", Value: doc.ID},
		{Key: "current_quantity", Value: int64(0)},
		{Key: "reserved_quantity", Value: int64(0)},
		{Key: "incoming_quantity", Value: int64(0)},
		{Key: "min_level", Value: int64(0)},
		{Key: "max_level", Value: doc.MaxLevel},
		{Key: "total_in", Value: int64(0)},
		{Key: "total_out", Value: int64(0)},
		{Key: "last_in_date", Value: nil},
		{Key: "last_out_date", Value: nil},
		{Key: "serial_numbers", Value: doc.SerialNumbers},
		{Key: "created_at", Value: now},
		{Key: "updated_at", Value: now},
	}}}
	_, err := r.coll.UpdateOne(ctx, pairFilter(productID, location), update, options.Update().SetUpsert(true))
	// Dos upserts simultáneos: el perdedor choca con el índice único y el registro ya existe.
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("upsert stock: %w", err)
	}
	rec, err := r.Get(ctx, productID, location)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("upsert stock: registro (%s, %s) no visible tras el upsert", productID, location)
	}
	return rec, nil
}

// ApplyDelta suma delta solo si el saldo resultante no es negativo ni desborda.
func (r *StockRepo) ApplyDelta(ctx context.Context, productID, location string, delta int64, at time.Time) (*entity.StockRecord, error) {
	if delta == 0 || delta == math.MinInt64 {
		return nil, domain.ErrInvalidQuantity
	}
	filter, update := applyDeltaUpdate(productID, location, delta, at)
	rec, err := r.findOneAndUpdate(ctx, filter, update)
	if err != nil || rec != nil {
		return rec, err
	}
	// Sin coincidencia: se relee el registro para distinguir saldo insuficiente de desborde.
	current, err := r.Get(ctx, productID, location)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrInsufficientStock
	}
	if err := domaininv.ApplyDelta(current, delta, at); err != nil {
		return nil, err
	}
	return nil, domain.ErrInsufficientStock
}

// AddIncoming suma qty a incoming_quantity.
func (r *StockRepo) AddIncoming(ctx context.Context, productID, location string, qty int64, at time.Time) (*entity.StockRecord, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	filter := append(pairFilter(productID, location),
		bson.E{Key: "incoming_quantity", Value: bson.D{{Key: "$lte", Value: math.MaxInt64 - qty}}})
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "incoming_quantity", Value: qty}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: at}}},
	}
	rec, err := r.findOneAndUpdate(ctx, filter, update)
	if err != nil || rec != nil {
		return rec, err
	}
	current, err := r.Get(ctx, productID, location)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrStockNotFound
	}
	return nil, fmt.Errorf("%w: cantidad pedida fuera de rango", domain.ErrInvalidQuantity)
}

// findOneAndUpdate devuelve (nil, nil) cuando el filtro no coincide.
func (r *StockRepo) findOneAndUpdate(ctx context.Context, filter, update bson.D) (*entity.StockRecord, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc stockDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("update stock: %w", err)
	}
	return doc.toEntity(), nil
}

// Create inserta un registro explícito (administración de stock).
func (r *StockRepo) Create(ctx context.Context, rec *entity.StockRecord) error {
	if _, err := r.coll.InsertOne(ctx, newStockDoc(rec)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create stock: %w", err)
	}
	return nil
}

func (r *StockRepo) getOne(ctx context.Context, filter bson.D) (*entity.StockRecord, error) {
	var doc stockDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return doc.toEntity(), nil
}

// GetByID obtiene un registro por ID. (nil, nil) si no existe.
func (r *StockRepo) GetByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.getOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// GetForUpdate dentro de una transacción: cualquier escritura concurrente sobre el documento
// provoca WriteConflict y WithTransaction reintenta.
func (r *StockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.GetByID(ctx, id)
}

// Get obtiene el registro de un par (producto, ubicación). (nil, nil) si no existe.
func (r *StockRepo) Get(ctx context.Context, productID, location string) (*entity.StockRecord, error) {
	return r.getOne(ctx, pairFilter(productID, location))
}

// Update persiste los campos administrables; current_quantity y acumulados no se tocan.
func (r *StockRepo) Update(ctx context.Context, rec *entity.StockRecord) error {
	serials := rec.SerialNumbers
	if serials == nil {
		serials = []string{}
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "reserved_quantity", Value: rec.ReservedQuantity},
		{Key: "incoming_quantity", Value: rec.IncomingQuantity},
		{Key: "min_level", Value: rec.MinLevel},
		{Key: "max_level", Value: rec.MaxLevel},
		{Key: "serial_numbers", Value: serials},
		{Key: "updated_at", Value: rec.UpdatedAt},
	}}}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: rec.ID}}, update)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}

// Delete elimina el registro solo si está vacío.
func (r *StockRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "current_quantity", Value: int64(0)}})
	if err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}
	if res.DeletedCount == 1 {
		return nil
	}
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrStockNotFound
	}
	return domain.ErrStockNotEmpty
}

func stockListFilter(f repository.StockFilter) bson.D {
	filter := bson.D{}
	if f.ProductID != "" {
		filter = append(filter, bson.E{Key: "product_id", Value: f.ProductID})
	}
	if f.Location != "" {
		filter = append(filter, bson.E{Key: "location", Value: f.Location})
	}
	if f.BelowMin {
		filter = append(filter,
			bson.E{Key: "min_level", Value: bson.D{{Key: "$gt", Value: 0}}},
			bson.E{Key: "$expr", Value: bson.D{{Key: "$lte", Value: bson.A{"$current_quantity", "$min_level"}}}},
		)
	}
	return filter
}

// List devuelve registros según el filtro, ordenados por ubicación.
func (r *StockRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.StockRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "location", Value: 1}, {Key: "created_at", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}
	cur, err := r.coll.Find(ctx, stockListFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	var docs []stockDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stock: %w", err)
	}
	out := make([]*entity.StockRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}
