package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementTable = "stock_movements"

var movementColumns = []interface{}{
	"id", "product_id", "movement_type", "quantity", "location", "from_location", "to_location",
	"reference_document", "remarks", "performed_by", "movement_date",
}

// StockMovementRepo implementación sobre PostgreSQL (usable con pool o tx). Solo inserta y lee.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(
		&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Location, &m.FromLocation, &m.ToLocation,
		&m.ReferenceDocument, &m.Remarks, &m.PerformedBy, &m.MovementDate,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func insertMovementQuery(m *entity.StockMovement) (string, []interface{}, error) {
	return dialect.Insert(movementTable).
		Rows(goqu.Record{
			"id":                 m.ID,
			"product_id":         m.ProductID,
			"movement_type":      m.Type,
			"quantity":           m.Quantity,
			"location":           m.Location,
			"from_location":      m.FromLocation,
			"to_location":        m.ToLocation,
			"reference_document": m.ReferenceDocument,
			"remarks":            m.Remarks,
			"performed_by":       m.PerformedBy,
			"movement_date":      m.MovementDate,
		}).
		Prepared(true).
		ToSQL()
}

func listMovementsQuery(f repository.MovementFilter) (string, []interface{}, error) {
	ds := dialect.From(movementTable).Select(movementColumns...)
	if f.ProductID != "" {
		ds = ds.Where(goqu.C("product_id").Eq(f.ProductID))
	}
	if f.Location != "" {
		ds = ds.Where(goqu.C("location").Eq(f.Location))
	}
	if f.Type != "" {
		ds = ds.Where(goqu.C("movement_type").Eq(f.Type))
	}
	if f.From != nil {
		ds = ds.Where(goqu.C("movement_date").Gte(*f.From))
	}
	if f.To != nil {
		ds = ds.Where(goqu.C("movement_date").Lt(*f.To))
	}
	ds = ds.Order(goqu.C("movement_date").Desc(), goqu.C("id").Desc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}
	return ds.Prepared(true).ToSQL()
}

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query, args, err := insertMovementQuery(m)
	if err != nil {
		return fmt.Errorf("build insert movement: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: producto o usuario inexistente", domain.ErrInvalidInput)
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID. (nil, nil) si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	if !validUUID(id) {
		return nil, nil
	}
	query, args, err := dialect.From(movementTable).Select(movementColumns...).
		Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get movement: %w", err)
	}
	m, err := scanMovement(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// List devuelve movimientos (más recientes primero) según el filtro.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	if f.ProductID != "" && !validUUID(f.ProductID) {
		return []*entity.StockMovement{}, nil
	}
	query, args, err := listMovementsQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build list movements: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.StockMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
