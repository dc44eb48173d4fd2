package dto

import "github.com/jhoicas/stock-ledger/internal/domain/entity"

// NewProductResponse convierte la entidad a su salida HTTP. nil → nil.
func NewProductResponse(p *entity.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
		Category:      p.Category,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		CurrentStock:  p.CurrentStock,
		MinimumStock:  p.MinimumStock,
		ReorderPoint:  p.ReorderPoint,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// NewUserResponse convierte la entidad a su salida HTTP. nil → nil.
func NewUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewStockResponse arma la salida de un registro con el producto ya resuelto.
func NewStockResponse(s *entity.StockRecord, product *entity.Product) StockResponse {
	serials := s.SerialNumbers
	if serials == nil {
		serials = []string{}
	}
	return StockResponse{
		ID:               s.ID,
		ProductID:        s.ProductID,
		Product:          NewProductResponse(product),
		Location:         s.Location,
		CurrentQuantity:  s.CurrentQuantity,
		ReservedQuantity: s.ReservedQuantity,
		IncomingQuantity: s.IncomingQuantity,
		MinLevel:         s.MinLevel,
		MaxLevel:         s.MaxLevel,
		TotalIn:          s.TotalIn,
		TotalOut:         s.TotalOut,
		LastInDate:       s.LastInDate,
		LastOutDate:      s.LastOutDate,
		SerialNumbers:    serials,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// NewMovementResponse arma la salida de un movimiento con producto y usuario ya resueltos.
func NewMovementResponse(m *entity.StockMovement, product *entity.Product, user *entity.User) MovementResponse {
	return MovementResponse{
		ID:                m.ID,
		ProductID:         m.ProductID,
		Product:           NewProductResponse(product),
		MovementType:      m.Type,
		Quantity:          m.Quantity,
		Location:          m.Location,
		FromLocation:      m.FromLocation,
		ToLocation:        m.ToLocation,
		ReferenceDocument: m.ReferenceDocument,
		Remarks:           m.Remarks,
		PerformedByID:     m.PerformedBy,
		PerformedBy:       NewUserResponse(user),
		MovementDate:      m.MovementDate,
	}
}
