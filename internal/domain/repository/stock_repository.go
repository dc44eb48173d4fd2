package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockFilter criterios opcionales para listar registros de stock.
type StockFilter struct {
	ProductID string
	Location  string
	BelowMin  bool // solo current_quantity <= min_level (min_level > 0)
	Limit     int
	Offset    int
}

// StockRepository define el puerto del libro de existencias por (producto, ubicación).
// Las operaciones de cantidad son escrituras condicionales: nunca leer-calcular-escribir.
type StockRepository interface {
	// GetOrCreate resuelve el registro del par o lo crea vacío con un upsert condicional.
	GetOrCreate(ctx context.Context, productID, location string, now time.Time) (*entity.StockRecord, error)
	// ApplyDelta suma delta a current_quantity solo si el resultado es >= 0.
	// Devuelve domain.ErrInsufficientStock si la condición no se cumple.
	ApplyDelta(ctx context.Context, productID, location string, delta int64, at time.Time) (*entity.StockRecord, error)
	// AddIncoming suma qty a incoming_quantity.
	AddIncoming(ctx context.Context, productID, location string, qty int64, at time.Time) (*entity.StockRecord, error)

	// Create devuelve domain.ErrDuplicate si ya existe un registro para (producto, ubicación).
	Create(ctx context.Context, rec *entity.StockRecord) error
	GetByID(ctx context.Context, id string) (*entity.StockRecord, error)
	// GetForUpdate obtiene el registro y lo bloquea hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error)
	Get(ctx context.Context, productID, location string) (*entity.StockRecord, error)
	// Update persiste umbrales, reservado, pedido y series; no toca current_quantity.
	Update(ctx context.Context, rec *entity.StockRecord) error
	// Delete elimina el registro solo si current_quantity = 0 (domain.ErrStockNotEmpty);
	// domain.ErrStockNotFound si no existe.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter StockFilter) ([]*entity.StockRecord, error)
}
