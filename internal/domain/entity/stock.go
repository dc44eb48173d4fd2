package entity

import "time"

// UnknownLocation es la ubicación usada cuando un movimiento no indica ninguna.
const UnknownLocation = "UNKNOWN"

// DefaultMaxLevel nivel máximo por defecto de un registro de stock.
const DefaultMaxLevel int64 = 99999

// StockRecord es el libro de existencias de un par (producto, ubicación).
// CurrentQuantity nunca es negativa; existe como máximo un registro por par.
type StockRecord struct {
	ID               string
	ProductID        string
	Location         string
	CurrentQuantity  int64
	ReservedQuantity int64 // solo se almacena; no descuenta disponibilidad
	IncomingQuantity int64 // pedido a proveedor, aún no recibido
	MinLevel         int64
	MaxLevel         int64
	TotalIn          int64 // acumulado de entradas
	TotalOut         int64 // acumulado de salidas (valor absoluto)
	LastInDate       *time.Time
	LastOutDate      *time.Time
	SerialNumbers    []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewStockRecord construye un registro vacío para el par indicado.
func NewStockRecord(id, productID, location string, now time.Time) *StockRecord {
	return &StockRecord{
		ID:            id,
		ProductID:     productID,
		Location:      location,
		MaxLevel:      DefaultMaxLevel,
		SerialNumbers: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
