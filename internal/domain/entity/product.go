package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultUnit unidad de medida por defecto del catálogo.
const DefaultUnit = "unidad"

// Product representa una pieza o producto del catálogo.
// CurrentStock, MinimumStock y ReorderPoint son declarativos; la cantidad autoritativa vive en StockRecord.
type Product struct {
	ID            string
	Code          string // único en todo el catálogo
	Name          string
	Description   string
	Unit          string
	Category      string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	CurrentStock  int64
	MinimumStock  int64
	ReorderPoint  int64
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
