package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// fn debe usar el ctx recibido: en algunos motores transporta la sesión transaccional.
// Si fn devuelve error no queda ninguna escritura (ni stock ni movimiento).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// StockReportLine una fila del reporte de niveles de stock.
type StockReportLine struct {
	Code          string
	Name          string
	Location      string
	Current       int64
	Reserved      int64
	Incoming      int64
	MinLevel      int64
	MaxLevel      int64
	BelowMin      bool
	PurchasePrice decimal.Decimal
}

// StockReport datos ya resueltos para el generador.
type StockReport struct {
	Title       string
	GeneratedAt time.Time
	GeneratedBy string
	Location    string // vacío = todas
	Lines       []StockReportLine
	TotalUnits  int64
	Valuation   decimal.Decimal // Σ current × purchase_price
}

// StockReportGenerator genera la representación gráfica (PDF) del reporte.
type StockReportGenerator interface {
	GenerateStockReport(ctx context.Context, report StockReport) ([]byte, error)
}
