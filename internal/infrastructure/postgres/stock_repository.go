package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockTable = "stock_records"

var stockColumns = []interface{}{
	"id", "product_id", "location", "current_quantity", "reserved_quantity", "incoming_quantity",
	"min_level", "max_level", "total_in", "total_out", "last_in_date", "last_out_date",
	"serial_numbers", "created_at", "updated_at",
}

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(
		&s.ID, &s.ProductID, &s.Location, &s.CurrentQuantity, &s.ReservedQuantity, &s.IncomingQuantity,
		&s.MinLevel, &s.MaxLevel, &s.TotalIn, &s.TotalOut, &s.LastInDate, &s.LastOutDate,
		&s.SerialNumbers, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.SerialNumbers == nil {
		s.SerialNumbers = []string{}
	}
	return &s, nil
}

// upsertStockQuery INSERT ... ON CONFLICT (product_id, location) DO NOTHING.
func upsertStockQuery(id, productID, location string, now time.Time) (string, []interface{}, error) {
	return dialect.Insert(stockTable).
		Rows(goqu.Record{
			"id":         id,
			"product_id": productID,
			"location":   location,
			"max_level":  entity.DefaultMaxLevel,
			"created_at": now,
			"updated_at": now,
		}).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
}

// applyDeltaQuery UPDATE condicional: solo afecta la fila si current_quantity + delta >= 0.
func applyDeltaQuery(productID, location string, delta int64, at time.Time) (string, []interface{}, error) {
	set := goqu.Record{
		"current_quantity": goqu.L("current_quantity + ?", delta),
		"updated_at":       at,
	}
	if delta > 0 {
		set["total_in"] = goqu.L("total_in + ?", delta)
		set["last_in_date"] = at
	} else {
		set["total_out"] = goqu.L("total_out + ?", -delta)
		set["last_out_date"] = at
	}
	return dialect.Update(stockTable).
		Set(set).
		Where(
			goqu.Ex{"product_id": productID, "location": location},
			goqu.L("current_quantity + ? >= 0", delta),
		).
		Returning(stockColumns...).
		Prepared(true).
		ToSQL()
}

func addIncomingQuery(productID, location string, qty int64, at time.Time) (string, []interface{}, error) {
	return dialect.Update(stockTable).
		Set(goqu.Record{
			"incoming_quantity": goqu.L("incoming_quantity + ?", qty),
			"updated_at":        at,
		}).
		Where(goqu.Ex{"product_id": productID, "location": location}).
		Returning(stockColumns...).
		Prepared(true).
		ToSQL()
}

func selectStockQuery(where goqu.Ex, forUpdate bool) (string, []interface{}, error) {
	ds := dialect.From(stockTable).Select(stockColumns...).Where(where)
	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}
	return ds.Prepared(true).ToSQL()
}

func listStockQuery(f repository.StockFilter) (string, []interface{}, error) {
	ds := dialect.From(stockTable).Select(stockColumns...)
	if f.ProductID != "" {
		ds = ds.Where(goqu.C("product_id").Eq(f.ProductID))
	}
	if f.Location != "" {
		ds = ds.Where(goqu.C("location").Eq(f.Location))
	}
	if f.BelowMin {
		ds = ds.Where(goqu.C("min_level").Gt(0), goqu.L("current_quantity <= min_level"))
	}
	ds = ds.Order(goqu.C("location").Asc(), goqu.C("created_at").Asc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}
	return ds.Prepared(true).ToSQL()
}

// GetOrCreate resuelve el registro del par o lo crea vacío con un upsert condicional.
func (r *StockRepo) GetOrCreate(ctx context.Context, productID, location string, now time.Time) (*entity.StockRecord, error) {
	query, args, err := upsertStockQuery(uuid.New().String(), productID, location, now)
	if err != nil {
		return nil, fmt.Errorf("build upsert stock: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("upsert stock: %w", err)
	}
	rec, err := r.Get(ctx, productID, location)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("upsert stock: registro (%s, %s) no visible tras el insert", productID, location)
	}
	return rec, nil
}

// ApplyDelta suma delta solo si el saldo resultante no es negativo.
func (r *StockRepo) ApplyDelta(ctx context.Context, productID, location string, delta int64, at time.Time) (*entity.StockRecord, error) {
	if delta == 0 || delta == math.MinInt64 {
		return nil, domain.ErrInvalidQuantity
	}
	query, args, err := applyDeltaQuery(productID, location, delta, at)
	if err != nil {
		return nil, fmt.Errorf("build apply delta: %w", err)
	}
	rec, err := scanStock(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapQuantityError(err, domain.ErrInsufficientStock, "apply delta")
	}
	return rec, nil
}

// AddIncoming suma qty a incoming_quantity.
func (r *StockRepo) AddIncoming(ctx context.Context, productID, location string, qty int64, at time.Time) (*entity.StockRecord, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	query, args, err := addIncomingQuery(productID, location, qty, at)
	if err != nil {
		return nil, fmt.Errorf("build add incoming: %w", err)
	}
	rec, err := scanStock(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapQuantityError(err, domain.ErrStockNotFound, "add incoming")
	}
	return rec, nil
}

// mapQuantityError traduce el resultado de un UPDATE condicional de cantidades:
// sin filas es noRows y un desborde de bigint es cantidad inválida.
func mapQuantityError(err, noRows error, op string) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return noRows
	case isNumericOutOfRange(err):
		return fmt.Errorf("%w: cantidad fuera de rango", domain.ErrInvalidQuantity)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Create inserta un registro explícito (administración de stock).
func (r *StockRepo) Create(ctx context.Context, rec *entity.StockRecord) error {
	serials := rec.SerialNumbers
	if serials == nil {
		serials = []string{}
	}
	query := `
		INSERT INTO stock_records (id, product_id, location, current_quantity, reserved_quantity,
			incoming_quantity, min_level, max_level, serial_numbers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.ProductID, rec.Location, rec.CurrentQuantity, rec.ReservedQuantity,
		rec.IncomingQuantity, rec.MinLevel, rec.MaxLevel, serials, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("create stock: %w", err)
	}
	return nil
}

func (r *StockRepo) getOne(ctx context.Context, where goqu.Ex, forUpdate bool) (*entity.StockRecord, error) {
	query, args, err := selectStockQuery(where, forUpdate)
	if err != nil {
		return nil, fmt.Errorf("build get stock: %w", err)
	}
	rec, err := scanStock(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return rec, nil
}

// GetByID obtiene un registro por ID. (nil, nil) si no existe.
func (r *StockRepo) GetByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	if !validUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, goqu.Ex{"id": id}, false)
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT ... FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	if !validUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, goqu.Ex{"id": id}, true)
}

// Get obtiene el registro de un par (producto, ubicación). (nil, nil) si no existe.
func (r *StockRepo) Get(ctx context.Context, productID, location string) (*entity.StockRecord, error) {
	if !validUUID(productID) {
		return nil, nil
	}
	return r.getOne(ctx, goqu.Ex{"product_id": productID, "location": location}, false)
}

// Update persiste los campos administrables; current_quantity y acumulados no se tocan.
func (r *StockRepo) Update(ctx context.Context, rec *entity.StockRecord) error {
	serials := rec.SerialNumbers
	if serials == nil {
		serials = []string{}
	}
	query := `
		UPDATE stock_records
		SET reserved_quantity = $2, incoming_quantity = $3, min_level = $4, max_level = $5,
			serial_numbers = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		rec.ID, rec.ReservedQuantity, rec.IncomingQuantity, rec.MinLevel, rec.MaxLevel, serials, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}

// Delete elimina el registro solo si está vacío.
func (r *StockRepo) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return domain.ErrStockNotFound
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_records WHERE id = $1 AND current_quantity = 0`, id)
	if err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
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

// List devuelve registros según el filtro, ordenados por ubicación.
func (r *StockRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.StockRecord, error) {
	if f.ProductID != "" && !validUUID(f.ProductID) {
		return []*entity.StockRecord{}, nil
	}
	query, args, err := listStockQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build list stock: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.StockRecord, 0)
	for rows.Next() {
		rec, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
