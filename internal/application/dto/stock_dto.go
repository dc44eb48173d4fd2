package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest body para POST /api/stock-management/record-movement.
type RecordMovementRequest struct {
	ProductID         string `json:"product_id"`
	MovementType      string `json:"movement_type"`
	Quantity          int64  `json:"quantity"` // positivo entra, negativo sale
	Location          string `json:"location,omitempty"`
	ReferenceDocument string `json:"reference_document,omitempty"`
	Remarks           string `json:"remarks,omitempty"`
}

// IncomingPartItem una línea del plan de pedidos.
type IncomingPartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// PlanIncomingPartsRequest body para POST /api/stock-management/plan-incoming-parts.
type PlanIncomingPartsRequest struct {
	NeededParts  []IncomingPartItem `json:"needed_parts"`
	SupplierInfo string             `json:"supplier_info,omitempty"`
	DeliveryDate *time.Time         `json:"delivery_date,omitempty"`
}

// TransferRequest body para POST /api/stock-management/transfer.
type TransferRequest struct {
	ProductID         string `json:"product_id"`
	FromLocation      string `json:"from_location"`
	ToLocation        string `json:"to_location"`
	Quantity          int64  `json:"quantity"`
	ReferenceDocument string `json:"reference_document,omitempty"`
	Remarks           string `json:"remarks,omitempty"`
}

// CreateStockRequest body para POST /api/stock.
type CreateStockRequest struct {
	ProductID        string   `json:"product_id"`
	Location         string   `json:"location"`
	CurrentQuantity  int64    `json:"current_quantity"`
	ReservedQuantity int64    `json:"reserved_quantity"`
	IncomingQuantity int64    `json:"incoming_quantity"`
	MinLevel         int64    `json:"min_level"`
	MaxLevel         *int64   `json:"max_level"`
	SerialNumbers    []string `json:"serial_numbers"`
}

// UpdateStockRequest body para PUT /api/stock/:id; los campos nil no cambian.
// Un cambio de current_quantity se registra como movimiento de ajuste.
type UpdateStockRequest struct {
	CurrentQuantity  *int64   `json:"current_quantity"`
	ReservedQuantity *int64   `json:"reserved_quantity"`
	IncomingQuantity *int64   `json:"incoming_quantity"`
	MinLevel         *int64   `json:"min_level"`
	MaxLevel         *int64   `json:"max_level"`
	SerialNumbers    []string `json:"serial_numbers"`
	Remarks          string   `json:"remarks,omitempty"`
}

// StockResponse registro de stock hidratado con su producto.
type StockResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id"`
	Product          *ProductResponse `json:"product"`
	Location         string           `json:"location"`
	CurrentQuantity  int64            `json:"current_quantity"`
	ReservedQuantity int64            `json:"reserved_quantity"`
	IncomingQuantity int64            `json:"incoming_quantity"`
	MinLevel         int64            `json:"min_level"`
	MaxLevel         int64            `json:"max_level"`
	TotalIn          int64            `json:"total_in"`
	TotalOut         int64            `json:"total_out"`
	LastInDate       *time.Time       `json:"last_in_date"`
	LastOutDate      *time.Time       `json:"last_out_date"`
	SerialNumbers    []string         `json:"serial_numbers"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// MovementResponse movimiento hidratado con producto y usuario.
type MovementResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	Product           *ProductResponse `json:"product_details"`
	MovementType      string           `json:"movement_type"`
	Quantity          int64            `json:"quantity"`
	Location          string           `json:"location"`
	FromLocation      string           `json:"from_location,omitempty"`
	ToLocation        string           `json:"to_location,omitempty"`
	ReferenceDocument string           `json:"reference_document,omitempty"`
	Remarks           string           `json:"remarks,omitempty"`
	PerformedByID     string           `json:"performed_by"`
	PerformedBy       *UserResponse    `json:"performed_by_details"`
	MovementDate      time.Time        `json:"movement_date"`
}

// RecordMovementResponse resultado de registrar un movimiento.
type RecordMovementResponse struct {
	Movement MovementResponse `json:"movement"`
	Stock    StockResponse    `json:"stock"`
}

// SkippedPart línea del plan que se omitió.
type SkippedPart struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Reason    string `json:"reason"`
}

// PlanIncomingPartsResponse movimientos creados y líneas omitidas.
type PlanIncomingPartsResponse struct {
	Message   string             `json:"message"`
	Movements []MovementResponse `json:"movements"`
	Skipped   []SkippedPart      `json:"skipped"`
}

// TransferResponse los dos movimientos y los dos registros afectados.
type TransferResponse struct {
	Movements   []MovementResponse `json:"movements"`
	Source      StockResponse      `json:"source"`
	Destination StockResponse      `json:"destination"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockListResponse lista paginada de registros de stock.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// LowStockItemDTO registro en o por debajo de su nivel mínimo, con la cantidad sugerida de pedido.
type LowStockItemDTO struct {
	StockID           string `json:"stock_id"`
	ProductID         string `json:"product_id"`
	Code              string `json:"code"`
	ProductName       string `json:"product_name"`
	Location          string `json:"location"`
	CurrentQuantity   int64  `json:"current_quantity"`
	IncomingQuantity  int64  `json:"incoming_quantity"`
	MinLevel          int64  `json:"min_level"`
	MaxLevel          int64  `json:"max_level"`
	Deficit           int64  `json:"deficit"`             // min_level - current_quantity
	SuggestedOrderQty int64  `json:"suggested_order_qty"` // max_level - current - incoming
	// EstimatedOrderCost suggested_order_qty × precio de compra.
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	Priority           int             `json:"priority"` // 1 = más urgente
}
