package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeIn              = "in"               // entrada
	MovementTypeOut             = "out"              // salida
	MovementTypeAdjustment      = "adjustment"       // ajuste (+/-)
	MovementTypeTransfer        = "transfer"         // entre ubicaciones
	MovementTypeIncomingOrdered = "incoming-ordered" // pedido a proveedor
)

// StockMovement es un evento inmutable que describe un cambio aplicado a un StockRecord.
type StockMovement struct {
	ID                string
	ProductID         string
	Type              string
	Quantity          int64  // positivo entra, negativo sale
	Location          string // fila del libro afectada
	FromLocation      string
	ToLocation        string
	ReferenceDocument string
	Remarks           string
	PerformedBy       string // UserID
	MovementDate      time.Time
}
