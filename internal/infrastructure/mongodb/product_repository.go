package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación de ProductRepository sobre la colección products.
type ProductRepo struct {
	db   *mongo.Database
	coll *mongo.Collection
}

// NewProductRepository construye el adaptador.
func NewProductRepository(db *mongo.Database) *ProductRepo {
	return &ProductRepo{db: db, coll: db.Collection(productsCollection)}
}

// Create persiste un nuevo producto. Código duplicado → ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	if _, err := r.coll.InsertOne(ctx, newProductDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, filter bson.D) (*entity.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return doc.toEntity(), nil
}

// GetByID obtiene un producto por ID. (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// GetByCode obtiene un producto por código. (nil, nil) si no existe.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	return r.getOne(ctx, bson.D{{Key: "code", Value: code}})
}

// GetByIDs obtiene los productos indicados en una sola consulta.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return []*entity.Product{}, nil
	}
	return r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}, options.Find())
}

// Update reemplaza el documento del producto.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: p.ID}}, newProductDoc(p))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func productListFilter(f repository.ProductFilter) bson.D {
	filter := bson.D{}
	if f.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "code", Value: pattern}},
			bson.D{{Key: "name", Value: pattern}},
		}})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	if f.Active != nil {
		filter = append(filter, bson.E{Key: "is_active", Value: *f.Active})
	}
	return filter
}

// List lista productos con filtros y paginación.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}
	return r.find(ctx, productListFilter(f), opts)
}

// Delete elimina el producto si ningún registro de stock ni movimiento lo referencia.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	ref := bson.D{{Key: "product_id", Value: id}}
	for _, coll := range []string{stockCollection, movementsCollection} {
		n, err := r.db.Collection(coll).CountDocuments(ctx, ref, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if n > 0 {
			return domain.ErrProductInUse
		}
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepo) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*entity.Product, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	out := make([]*entity.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}
