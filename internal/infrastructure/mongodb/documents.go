package mongodb

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

type productDoc struct {
	ID            string               `bson:"_id"`
	Code          string               `bson:"code"`
	Name          string               `bson:"name"`
	Description   string               `bson:"description"`
	Unit          string               `bson:"unit"`
	Category      string               `bson:"category"`
	PurchasePrice primitive.Decimal128 `bson:"purchase_price"`
	SalePrice     primitive.Decimal128 `bson:"sale_price"`
	CurrentStock  int64                `bson:"current_stock"`
	MinimumStock  int64                `bson:"minimum_stock"`
	ReorderPoint  int64                `bson:"reorder_point"`
	IsActive      bool                 `bson:"is_active"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	FirstName    string    `bson:"first_name"`
	LastName     string    `bson:"last_name"`
	Email        string    `bson:"email"`
	Role         string    `bson:"role"`
	IsActive     bool      `bson:"is_active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type stockDoc struct {
	ID               string     `bson:"_id"`
	ProductID        string     `bson:"product_id"`
	Location         string     `bson:"location"`
	CurrentQuantity  int64      `bson:"current_quantity"`
	ReservedQuantity int64      `bson:"reserved_quantity"`
	IncomingQuantity int64      `bson:"incoming_quantity"`
	MinLevel         int64      `bson:"min_level"`
	MaxLevel         int64      `bson:"max_level"`
	TotalIn          int64      `bson:"total_in"`
	TotalOut         int64      `bson:"total_out"`
	LastInDate       *time.Time `bson:"last_in_date"`
	LastOutDate      *time.Time `bson:"last_out_date"`
	SerialNumbers    []string   `bson:"serial_numbers"`
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at"`
}

type movementDoc struct {
	ID                string    `bson:"_id"`
	ProductID         string    `bson:"product_id"`
	Type              string    `bson:"movement_type"`
	Quantity          int64     `bson:"quantity"`
	Location          string    `bson:"location"`
	FromLocation      string    `bson:"from_location"`
	ToLocation        string    `bson:"to_location"`
	ReferenceDocument string    `bson:"reference_document"`
	Remarks           string    `bson:"remarks"`
	PerformedBy       string    `bson:"performed_by"`
	MovementDate      time.Time `bson:"movement_date"`
}

// toDecimal128 convierte un decimal a Decimal128; los valores ya vienen validados.
func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func newProductDoc(p *entity.Product) productDoc {
	return productDoc{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
		Category:      p.Category,
		PurchasePrice: toDecimal128(p.PurchasePrice),
		SalePrice:     toDecimal128(p.SalePrice),
		CurrentStock:  p.CurrentStock,
		MinimumStock:  p.MinimumStock,
		ReorderPoint:  p.ReorderPoint,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (d productDoc) toEntity() *entity.Product {
	return &entity.Product{
		ID:            d.ID,
		Code:          d.Code,
		Name:          d.Name,
		Description:   d.Description,
		Unit:          d.Unit,
		Category:      d.Category,
		PurchasePrice: fromDecimal128(d.PurchasePrice),
		SalePrice:     fromDecimal128(d.SalePrice),
		CurrentStock:  d.CurrentStock,
		MinimumStock:  d.MinimumStock,
		ReorderPoint:  d.ReorderPoint,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func newUserDoc(u *entity.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Role:         u.Role,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toEntity() *entity.User {
	return &entity.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Role:         d.Role,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newStockDoc(s *entity.StockRecord) stockDoc {
	serials := s.SerialNumbers
	if serials == nil {
		serials = []string{}
	}
	return stockDoc{
		ID:               s.ID,
		ProductID:        s.ProductID,
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

func (d stockDoc) toEntity() *entity.StockRecord {
	serials := d.SerialNumbers
	if serials == nil {
		serials = []string{}
	}
	return &entity.StockRecord{
		ID:               d.ID,
		ProductID:        d.ProductID,
		Location:         d.Location,
		CurrentQuantity:  d.CurrentQuantity,
		ReservedQuantity: d.ReservedQuantity,
		IncomingQuantity: d.IncomingQuantity,
		MinLevel:         d.MinLevel,
		MaxLevel:         d.MaxLevel,
		TotalIn:          d.TotalIn,
		TotalOut:         d.TotalOut,
		LastInDate:       d.LastInDate,
		LastOutDate:      d.LastOutDate,
		SerialNumbers:    serials,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func newMovementDoc(m *entity.StockMovement) movementDoc {
	return movementDoc{
		ID:                m.ID,
		ProductID:         m.ProductID,
		Type:              m.Type,
		Quantity:          m.Quantity,
		Location:          m.Location,
		FromLocation:      m.FromLocation,
		ToLocation:        m.ToLocation,
		ReferenceDocument: m.ReferenceDocument,
		Remarks:           m.Remarks,
		PerformedBy:       m.PerformedBy,
		MovementDate:      m.MovementDate,
	}
}

func (d movementDoc) toEntity() *entity.StockMovement {
	return &entity.StockMovement{
		ID:                d.ID,
		ProductID:         d.ProductID,
		Type:              d.Type,
		Quantity:          d.Quantity,
		Location:          d.Location,
		FromLocation:      d.FromLocation,
		ToLocation:        d.ToLocation,
		ReferenceDocument: d.ReferenceDocument,
		Remarks:           d.Remarks,
		PerformedBy:       d.PerformedBy,
		MovementDate:      d.MovementDate,
	}
}
