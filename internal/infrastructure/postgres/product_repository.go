package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productTable = "products"

var productColumns = []interface{}{
	"id", "code", "name", "description", "unit", "category", "purchase_price", "sale_price",
	"current_stock", "minimum_stock", "reorder_point", "is_active", "created_at", "updated_at",
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Unit, &p.Category, &p.PurchasePrice, &p.SalePrice,
		&p.CurrentStock, &p.MinimumStock, &p.ReorderPoint, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func productRecord(p *entity.Product) goqu.Record {
	return goqu.Record{
		"code":           p.Code,
		"name":           p.Name,
		"description":    p.Description,
		"unit":           p.Unit,
		"category":       p.Category,
		"purchase_price": p.PurchasePrice,
		"sale_price":     p.SalePrice,
		"current_stock":  p.CurrentStock,
		"minimum_stock":  p.MinimumStock,
		"reorder_point":  p.ReorderPoint,
		"is_active":      p.IsActive,
		"updated_at":     p.UpdatedAt,
	}
}

func listProductsQuery(f repository.ProductFilter) (string, []interface{}, error) {
	ds := dialect.From(productTable).Select(productColumns...)
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		ds = ds.Where(goqu.Or(goqu.C("code").ILike(pattern), goqu.C("name").ILike(pattern)))
	}
	if f.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(f.Category))
	}
	if f.Active != nil {
		ds = ds.Where(goqu.C("is_active").Eq(*f.Active))
	}
	ds = ds.Order(goqu.C("code").Asc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}
	return ds.Prepared(true).ToSQL()
}

// Create persiste un nuevo producto. Código duplicado → ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	rec := productRecord(p)
	rec["id"] = p.ID
	rec["created_at"] = p.CreatedAt
	query, args, err := dialect.Insert(productTable).Rows(rec).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert product: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, where goqu.Ex) (*entity.Product, error) {
	query, args, err := dialect.From(productTable).Select(productColumns...).Where(where).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get product: %w", err)
	}
	p, err := scanProduct(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByID obtiene un producto por ID. (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if !validUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, goqu.Ex{"id": id})
}

// GetByCode obtiene un producto por código. (nil, nil) si no existe.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	return r.getOne(ctx, goqu.Ex{"code": code})
}

// GetByIDs obtiene los productos indicados en una sola consulta (hidratación por lote).
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Product, error) {
	ids = validUUIDs(ids)
	if len(ids) == 0 {
		return []*entity.Product{}, nil
	}
	query, args, err := dialect.From(productTable).Select(productColumns...).
		Where(goqu.C("id").In(ids)).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get products: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update actualiza un producto existente.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query, args, err := dialect.Update(productTable).Set(productRecord(p)).
		Where(goqu.C("id").Eq(p.ID)).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build update product: %w", err)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// List lista productos con filtros y paginación.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	query, args, err := listProductsQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build list products: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete elimina el producto. Con stock o movimientos asociados (FK RESTRICT) → ErrProductInUse.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return domain.ErrProductNotFound
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
